package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/service"
	"fitpulse/backend/pkg/response"
)

// PeriodHandler 生效区间模块 HTTP 处理器（管理端）
// 同时承载生成器的重新生成 / 孤儿清理操作入口
type PeriodHandler struct {
	periodSvc    service.PeriodService
	generatorSvc service.GeneratorService
}

// NewPeriodHandler 创建 PeriodHandler
func NewPeriodHandler(periodSvc service.PeriodService, generatorSvc service.GeneratorService) *PeriodHandler {
	return &PeriodHandler{periodSvc: periodSvc, generatorSvc: generatorSvc}
}

// ListPeriods 获取区间列表
// GET /api/v1/periods?only_active=true
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	onlyActive := c.Query("only_active") == "true"

	periods, err := h.periodSvc.List(c.Request.Context(), onlyActive)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": periods})
}

// GetPeriod 获取区间详情
// GET /api/v1/periods/:id
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "区间ID不能为空")
		return
	}

	period, err := h.periodSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// CreatePeriod 创建区间并同步生成课程实例
// POST /api/v1/periods
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, created, err := h.periodSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.Created(c, gin.H{
		"period":          period,
		"instances_count": created,
	})
}

// DeletePeriod 停用区间并级联删除其课程实例
// DELETE /api/v1/periods/:id
func (h *PeriodHandler) DeletePeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "区间ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	removed, err := h.periodSvc.Deactivate(c.Request.Context(), id, callerID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, gin.H{"instances_removed": removed})
}

// Regenerate 重新生成区间内的课程实例
// POST /api/v1/periods/:id/generate
func (h *PeriodHandler) Regenerate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "区间ID不能为空")
		return
	}

	// 请求体可省略，省略时等价于默认幂等模式
	var req dto.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	count, err := h.generatorSvc.Generate(c.Request.Context(), id, req.ForceCleanup)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, dto.GenerateResponse{InstancesCount: count})
}

// CleanupOrphaned 清理孤儿实例（所属区间已停用/删除）
// POST /api/v1/periods/cleanup-orphaned
func (h *PeriodHandler) CleanupOrphaned(c *gin.Context) {
	count, err := h.generatorSvc.CleanupOrphaned(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.CleanupResponse{CleanedCount: count})
}

// handlePeriodError 统一处理区间/生成器模块业务错误
func (h *PeriodHandler) handlePeriodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 14001, "生效区间不存在")
	case errors.Is(err, service.ErrPeriodDateInvalid):
		response.BadRequest(c, 14002, "日期格式非法")
	case errors.Is(err, service.ErrPeriodRangeInvalid):
		response.BadRequest(c, 14003, "end_date 不能早于 start_date")
	case errors.Is(err, service.ErrPeriodOverlap):
		response.Conflict(c, 14004, "与已有活跃区间重叠")
	case errors.Is(err, service.ErrPeriodInactive):
		response.BadRequest(c, 14005, "生效区间已停用")
	case errors.Is(err, service.ErrNoEntriesToApply):
		response.BadRequest(c, 14006, "模板没有任何课位")
	case errors.Is(err, service.ErrEntryDayInvalid):
		response.InternalError(c)
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, 13001, "课表模板不存在")
	case errors.Is(err, service.ErrTemplateNotActive):
		response.BadRequest(c, 13004, "课表模板已停用")
	default:
		response.InternalError(c)
	}
}
