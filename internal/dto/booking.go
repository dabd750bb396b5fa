package dto

// ── 预约模块 DTO ──

// CreateBookingRequest 创建预约请求
type CreateBookingRequest struct {
	InstanceID string `json:"instance_id" binding:"required,uuid"`
}

// 客户端视角的预约状态
const (
	BookingStateUpcoming         = "upcoming"           // 未开课
	BookingStatePast             = "past"               // 已开课/已结束
	BookingStateCancelledByAdmin = "cancelled_by_admin" // 实例被管理员取消（终态，历史中划线展示）
)

// BookingResponse 预约记录响应
type BookingResponse struct {
	ID          string `json:"id"`
	InstanceID  string `json:"instance_id"`
	ClassDate   string `json:"class_date"`
	StartTime   string `json:"start_time"`
	DurationMin int    `json:"duration_min"`
	ClassName   string `json:"class_name"`
	SessionType string `json:"session_type"`
	State       string `json:"state"` // upcoming | past | cancelled_by_admin
	CreatedAt   string `json:"created_at"`
}
