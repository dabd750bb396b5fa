package dto

// ── 客户端课表 DTO ──

// BookableSessionResponse 客户端可预约课程
// current_bookings / remaining / is_booked_by_user 均为读取时实时推导，不落库
type BookableSessionResponse struct {
	ID              string `json:"id"`
	ClassDate       string `json:"class_date"`
	StartTime       string `json:"start_time"`
	DurationMin     int    `json:"duration_min"`
	ClassName       string `json:"class_name"`
	SessionType     string `json:"session_type"`
	MaxParticipants int    `json:"max_participants"`
	CurrentBookings int    `json:"current_bookings"`
	Remaining       int    `json:"remaining"`
	IsBookedByUser  bool   `json:"is_booked_by_user"`
	Bookable        bool   `json:"bookable"` // 综合窗口/满员/取消标记后的最终可约标志
}
