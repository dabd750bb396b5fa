package dto

// ── 生效区间模块 DTO ──

// CreatePeriodRequest 创建生效区间请求（创建成功即同步生成课程实例）
type CreatePeriodRequest struct {
	TemplateID string `json:"template_id" binding:"required,uuid"`
	StartDate  string `json:"start_date"  binding:"required"` // "2026-09-01"
	EndDate    string `json:"end_date"    binding:"required"`
}

// GenerateRequest 实例生成请求
// ForceCleanup 为 true 时先删除目标日期区间内的全部实例（不限所属区间）再重建，
// 属于破坏性修复工具；默认模式对已存在课位幂等跳过
type GenerateRequest struct {
	ForceCleanup bool `json:"force_cleanup"`
}

// GenerateResponse 实例生成结果
type GenerateResponse struct {
	InstancesCount int `json:"instances_count"`
}

// CleanupResponse 孤儿实例清理结果
type CleanupResponse struct {
	CleanedCount int `json:"cleaned_count"`
}

// PeriodResponse 生效区间响应
type PeriodResponse struct {
	ID           string `json:"id"`
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}
