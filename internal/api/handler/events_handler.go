package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitpulse/backend/pkg/redis"
	"fitpulse/backend/pkg/response"
)

// EventsHandler 变更事件推送 HTTP 处理器（SSE）
//
// 管理端/客户端会话经此端点订阅集合变更：其他会话写入成功后，
// 已打开的页面无需手动刷新即可感知课表变化
type EventsHandler struct {
	rdb *redis.Client
}

// NewEventsHandler 创建 EventsHandler
func NewEventsHandler(rdb *redis.Client) *EventsHandler {
	return &EventsHandler{rdb: rdb}
}

// Stream 订阅变更事件流
// GET /api/v1/events/stream
func (h *EventsHandler) Stream(c *gin.Context) {
	if h.rdb == nil {
		response.Error(c, http.StatusServiceUnavailable, 10006, "事件推送暂不可用")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	events, cancel := h.rdb.SubscribeChanges(ctx)
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				return true
			}
			c.SSEvent("change", string(payload))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
