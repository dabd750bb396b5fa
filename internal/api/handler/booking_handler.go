package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/service"
	"fitpulse/backend/pkg/response"
)

// BookingHandler 预约模块 HTTP 处理器（客户端）
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// CreateBooking 创建预约
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	tier, ok := MustGetMembershipTier(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Book(c.Request.Context(), userID, tier, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, booking)
}

// CancelBooking 取消预约
// DELETE /api/v1/bookings/:id
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.bookingSvc.Cancel(c.Request.Context(), userID, id); err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListMyBookings 获取本人预约列表
// GET /api/v1/bookings/my
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.bookingSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}

// handleBookingError 统一处理预约模块业务错误
// 每条预约规则对应独立业务码，前端据此提示具体拒绝原因
func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInstanceNotFound):
		response.NotFound(c, 15001, "课程实例不存在")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 16001, "预约记录不存在")
	case errors.Is(err, service.ErrBookingNotOwned):
		response.Forbidden(c, 16002, "无权操作他人的预约")
	case errors.Is(err, service.ErrSessionCancelled):
		response.BadRequest(c, 16003, "课程已被取消")
	case errors.Is(err, service.ErrSessionFull):
		response.Conflict(c, 16004, "课程名额已满")
	case errors.Is(err, service.ErrTierMismatch):
		response.Forbidden(c, 16005, "会员等级与课程类型不匹配")
	case errors.Is(err, service.ErrOutsideWindow):
		response.BadRequest(c, 16006, "超出可预约窗口")
	case errors.Is(err, service.ErrAlreadyBooked):
		response.Conflict(c, 16007, "已预约过该课程")
	case errors.Is(err, service.ErrQuotaExhausted):
		response.Forbidden(c, 16008, "滚动周期内预约额度已用完")
	case errors.Is(err, service.ErrSessionStarted):
		response.BadRequest(c, 16009, "课程已开始")
	case errors.Is(err, service.ErrCancelCutoffPassed):
		response.BadRequest(c, 16010, "距开课不足取消截止时间")
	default:
		response.InternalError(c)
	}
}
