package dto

// ── 课程实例模块 DTO（管理端）──

// CreateInstanceRequest 手工补录单个课程实例请求
// 要求存在覆盖 class_date 的活跃区间，否则拒绝（避免孤儿实例）
type CreateInstanceRequest struct {
	ClassDate       string `json:"class_date"       binding:"required"` // "2026-09-07"
	StartTime       string `json:"start_time"       binding:"required"` // "HH:MM"
	DurationMin     int    `json:"duration_min"     binding:"required,min=1,max=1440"`
	ClassName       string `json:"class_name"       binding:"required,min=2,max=100"`
	SessionType     string `json:"session_type"     binding:"required,oneof=pro amateur"`
	MaxParticipants int    `json:"max_participants" binding:"required,min=1"`
}

// UpdateInstanceRequest 修改课程实例请求（时间/容量/名称）
type UpdateInstanceRequest struct {
	StartTime       *string `json:"start_time"`
	DurationMin     *int    `json:"duration_min"     binding:"omitempty,min=1,max=1440"`
	ClassName       *string `json:"class_name"       binding:"omitempty,min=2,max=100"`
	MaxParticipants *int    `json:"max_participants" binding:"omitempty,min=1"`
}

// InstanceListRequest 按日期区间查询实例
type InstanceListRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to"   binding:"required"`
}

// InstanceResponse 课程实例响应
type InstanceResponse struct {
	ID              string `json:"id"`
	TemplateEntryID string `json:"template_entry_id,omitempty"`
	PeriodID        string `json:"period_id"`
	ClassDate       string `json:"class_date"`
	StartTime       string `json:"start_time"`
	DurationMin     int    `json:"duration_min"`
	ClassName       string `json:"class_name"`
	SessionType     string `json:"session_type"`
	MaxParticipants int    `json:"max_participants"`
	IsCancelled     bool   `json:"is_cancelled"`
	CurrentBookings int    `json:"current_bookings"`
	Remaining       int    `json:"remaining"`
}
