package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/service"
	"fitpulse/backend/pkg/response"
)

// InstanceHandler 课程实例模块 HTTP 处理器（管理端）
type InstanceHandler struct {
	instanceSvc service.InstanceService
}

// NewInstanceHandler 创建 InstanceHandler
func NewInstanceHandler(instanceSvc service.InstanceService) *InstanceHandler {
	return &InstanceHandler{instanceSvc: instanceSvc}
}

// ListInstances 按日期区间获取实例列表（含实时预约数）
// GET /api/v1/instances?from=2026-09-01&to=2026-09-07
func (h *InstanceHandler) ListInstances(c *gin.Context) {
	var req dto.InstanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	instances, err := h.instanceSvc.ListByDateRange(c.Request.Context(), &req)
	if err != nil {
		h.handleInstanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": instances})
}

// GetInstance 获取实例详情
// GET /api/v1/instances/:id
func (h *InstanceHandler) GetInstance(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	instance, err := h.instanceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleInstanceError(c, err)
		return
	}

	response.OK(c, instance)
}

// CreateInstance 手工补录单个实例
// POST /api/v1/instances
func (h *InstanceHandler) CreateInstance(c *gin.Context) {
	var req dto.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	instance, err := h.instanceSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleInstanceError(c, err)
		return
	}

	response.Created(c, instance)
}

// UpdateInstance 修改实例（时间/容量/名称）
// PUT /api/v1/instances/:id
func (h *InstanceHandler) UpdateInstance(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	var req dto.UpdateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	instance, err := h.instanceSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleInstanceError(c, err)
		return
	}

	response.OK(c, instance)
}

// CancelInstance 取消课程（打标记，保留预约历史）
// PUT /api/v1/instances/:id/cancel
func (h *InstanceHandler) CancelInstance(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	instance, err := h.instanceSvc.Cancel(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleInstanceError(c, err)
		return
	}

	response.OK(c, instance)
}

// handleInstanceError 统一处理实例模块业务错误
func (h *InstanceHandler) handleInstanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInstanceNotFound):
		response.NotFound(c, 15001, "课程实例不存在")
	case errors.Is(err, service.ErrNoActivePeriod):
		response.BadRequest(c, 15002, "该日期不在任何活跃区间内")
	case errors.Is(err, service.ErrCapacityBelowBooked):
		response.BadRequest(c, 15003, "容量不能低于已有预约数")
	case errors.Is(err, service.ErrInstanceDuplicate):
		response.Conflict(c, 15004, "同一天同一时间已存在同名课程")
	case errors.Is(err, service.ErrPeriodDateInvalid):
		response.BadRequest(c, 14002, "日期格式非法")
	case errors.Is(err, service.ErrPeriodRangeInvalid):
		response.BadRequest(c, 14003, "日期区间非法")
	case errors.Is(err, service.ErrEntryTimeInvalid):
		response.BadRequest(c, 13003, "开始时间格式非法")
	default:
		response.InternalError(c)
	}
}
