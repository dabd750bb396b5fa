package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"fitpulse/backend/internal/service"
	"fitpulse/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
// Excel 课表导出（管理端）与 iCalendar 预约导出（客户端）
type ExportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc}
}

// ExportSchedule 导出日期区间课表为 Excel
// GET /api/v1/export/schedule?from=2026-09-01&to=2026-09-07
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.BadRequest(c, 10001, "from 日期格式非法")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "to 日期格式非法")
		return
	}
	if to.Before(from) {
		response.BadRequest(c, 14003, "日期区间非法")
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedule(c.Request.Context(), from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportCalendar 导出本人预约为 iCalendar (.ics)
// GET /api/v1/export/calendar
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	content, err := h.calendarSvc.ExportBookings(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename=bookings.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(content))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoInstances):
		response.NotFound(c, 17001, "该日期区间内没有课程实例")
	case errors.Is(err, service.ErrCalendarNoBookings):
		response.NotFound(c, 17003, "没有可导出的预约")
	default:
		response.InternalError(c)
	}
}
