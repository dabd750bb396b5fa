package dto

// ── 模板模块 DTO ──

// CreateTemplateRequest 创建周课表模板请求
type CreateTemplateRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateTemplateRequest 更新模板请求
type UpdateTemplateRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// CreateEntryRequest 新增模板课位请求
type CreateEntryRequest struct {
	DayOfWeek       string `json:"day_of_week"      binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime       string `json:"start_time"       binding:"required"` // "HH:MM"
	DurationMin     int    `json:"duration_min"     binding:"required,min=1,max=1440"`
	ClassName       string `json:"class_name"       binding:"required,min=2,max=100"`
	SessionType     string `json:"session_type"     binding:"required,oneof=pro amateur"`
	MaxParticipants int    `json:"max_participants" binding:"required,min=1"`
}

// UpdateEntryRequest 修改模板课位请求
type UpdateEntryRequest struct {
	DayOfWeek       *string `json:"day_of_week"      binding:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime       *string `json:"start_time"`
	DurationMin     *int    `json:"duration_min"     binding:"omitempty,min=1,max=1440"`
	ClassName       *string `json:"class_name"       binding:"omitempty,min=2,max=100"`
	SessionType     *string `json:"session_type"     binding:"omitempty,oneof=pro amateur"`
	MaxParticipants *int    `json:"max_participants" binding:"omitempty,min=1"`
}

// ── 响应 ──

// TemplateResponse 模板响应
type TemplateResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"is_active"`
	Entries     []EntryResponse `json:"entries,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// EntryResponse 模板课位响应
type EntryResponse struct {
	ID              string `json:"id"`
	TemplateID      string `json:"template_id"`
	DayOfWeek       string `json:"day_of_week"`
	StartTime       string `json:"start_time"`
	DurationMin     int    `json:"duration_min"`
	ClassName       string `json:"class_name"`
	SessionType     string `json:"session_type"`
	MaxParticipants int    `json:"max_participants"`
}
