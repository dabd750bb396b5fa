package handler

import (
	"github.com/gin-gonic/gin"

	"fitpulse/backend/internal/service"
	"fitpulse/backend/pkg/response"
)

// ScheduleHandler 客户端课表 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListBookable 获取本人可预约课程列表
// GET /api/v1/schedule
func (h *ScheduleHandler) ListBookable(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	tier, ok := MustGetMembershipTier(c)
	if !ok {
		return
	}

	sessions, err := h.scheduleSvc.ListBookable(c.Request.Context(), userID, tier)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}
