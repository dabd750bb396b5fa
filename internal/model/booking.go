package model

import "time"

// Booking 预约记录 — 对应 bookings
// 取消即物理删除（释放名额）；(user_id, schedule_entry_id) 唯一，禁止重复预约。
// schedule_entry_id 指向课程实例（live_schedule_instances），列名沿用线上库。
type Booking struct {
	BookingID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	UserID          string    `gorm:"type:uuid;not null"                             json:"user_id"`
	ScheduleEntryID string    `gorm:"type:uuid;not null;column:schedule_entry_id"    json:"schedule_entry_id"`
	BookingDate     time.Time `gorm:"type:date;not null"                             json:"booking_date"` // 冗余自实例 class_date，便于按日查询
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User     *User                 `gorm:"foreignKey:UserID;references:UserID"                json:"user,omitempty"`
	Instance *LiveScheduleInstance `gorm:"foreignKey:ScheduleEntryID;references:InstanceID"   json:"instance,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }
