package model

import (
	"fmt"
	"time"
)

// LiveScheduleInstance 具体可预约课程实例 — 对应 live_schedule_instances
// 由生成器按（区间日期 × 模板条目）批量生成，或管理员手工补录；
// 是客户端一切可预约课程的唯一事实来源。
// (class_date, start_time, class_name) 在全馆范围内唯一，出现重复即为生成缺陷。
type LiveScheduleInstance struct {
	InstanceID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"instance_id"`
	TemplateEntryID *string   `gorm:"type:uuid"                                      json:"template_entry_id,omitempty"` // 手工补录/迁移后可为空
	PeriodID        string    `gorm:"type:uuid;not null"                             json:"period_id"`
	ClassDate       time.Time `gorm:"type:date;not null"                             json:"class_date"`
	StartTime       string    `gorm:"type:time;not null"                             json:"start_time"` // "HH:MM"
	DurationMin     int       `gorm:"type:smallint;not null"                         json:"duration_min"`
	ClassName       string    `gorm:"type:varchar(100);not null"                     json:"class_name"`
	SessionType     string    `gorm:"type:varchar(20);not null"                      json:"session_type"` // pro | amateur
	MaxParticipants int       `gorm:"type:smallint;not null"                         json:"max_participants"`
	IsCancelled     bool      `gorm:"not null;default:false"                         json:"is_cancelled"` // 管理员取消：打标记而非删除，保留预约历史
	VersionedModel

	// 关联
	Period *SchedulePeriod `gorm:"foreignKey:PeriodID;references:PeriodID" json:"period,omitempty"`
}

// TableName 指定表名
func (LiveScheduleInstance) TableName() string { return "live_schedule_instances" }

// DateOnly 抹去时分秒，仅保留日期部分
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartAt 课程开始时刻（class_date + start_time 的具体时间点）
func (i *LiveScheduleInstance) StartAt() (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(i.StartTime, "%d:%d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("非法 start_time %q: %w", i.StartTime, err)
	}
	d := i.ClassDate
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, d.Location()), nil
}

// EndAt 课程结束时刻
func (i *LiveScheduleInstance) EndAt() (time.Time, error) {
	start, err := i.StartAt()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(i.DurationMin) * time.Minute), nil
}

// SlotKey 去重键：同一天、同一开始时间、同一课程名视为同一课位
func (i *LiveScheduleInstance) SlotKey() string {
	return fmt.Sprintf("%s:%s:%s", i.ClassDate.Format("2006-01-02"), i.StartTime, i.ClassName)
}
