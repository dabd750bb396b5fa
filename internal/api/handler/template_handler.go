package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/service"
	"fitpulse/backend/pkg/response"
)

// TemplateHandler 周课表模板模块 HTTP 处理器（管理端）
type TemplateHandler struct {
	templateSvc service.TemplateService
}

// NewTemplateHandler 创建 TemplateHandler
func NewTemplateHandler(templateSvc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// ListTemplates 获取模板列表
// GET /api/v1/templates?only_active=true
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	onlyActive := c.Query("only_active") == "true"

	templates, err := h.templateSvc.List(c.Request.Context(), onlyActive)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": templates})
}

// GetTemplate 获取模板详情（含课位）
// GET /api/v1/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "模板ID不能为空")
		return
	}

	template, err := h.templateSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, template)
}

// CreateTemplate 创建模板
// POST /api/v1/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	template, err := h.templateSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.Created(c, template)
}

// UpdateTemplate 更新模板
// PUT /api/v1/templates/:id
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "模板ID不能为空")
		return
	}

	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	template, err := h.templateSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, template)
}

// DeleteTemplate 停用模板（软删除）
// DELETE /api/v1/templates/:id
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "模板ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.templateSvc.Deactivate(c.Request.Context(), id, callerID); err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddEntry 新增模板课位
// POST /api/v1/templates/:id/entries
func (h *TemplateHandler) AddEntry(c *gin.Context) {
	templateID := c.Param("id")
	if templateID == "" {
		response.BadRequest(c, 10001, "模板ID不能为空")
		return
	}

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entry, err := h.templateSvc.AddEntry(c.Request.Context(), templateID, &req, callerID)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.Created(c, entry)
}

// UpdateEntry 修改模板课位
// PUT /api/v1/template-entries/:id
func (h *TemplateHandler) UpdateEntry(c *gin.Context) {
	entryID := c.Param("id")
	if entryID == "" {
		response.BadRequest(c, 10001, "课位ID不能为空")
		return
	}

	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entry, err := h.templateSvc.UpdateEntry(c.Request.Context(), entryID, &req, callerID)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, entry)
}

// DeleteEntry 删除模板课位
// DELETE /api/v1/template-entries/:id
func (h *TemplateHandler) DeleteEntry(c *gin.Context) {
	entryID := c.Param("id")
	if entryID == "" {
		response.BadRequest(c, 10001, "课位ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.templateSvc.DeleteEntry(c.Request.Context(), entryID, callerID); err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleTemplateError 统一处理模板模块业务错误
func (h *TemplateHandler) handleTemplateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, 13001, "课表模板不存在")
	case errors.Is(err, service.ErrEntryNotFound):
		response.NotFound(c, 13002, "模板课位不存在")
	case errors.Is(err, service.ErrEntryTimeInvalid):
		response.BadRequest(c, 13003, "课位开始时间格式非法")
	case errors.Is(err, service.ErrTemplateNotActive):
		response.BadRequest(c, 13004, "课表模板已停用")
	default:
		response.InternalError(c)
	}
}
