package model

import "time"

// ScheduleTemplate 周课表模板 — 对应 schedule_templates
// 模板与具体日期无关，仅通过 SchedulePeriod 关联到日历区间
type ScheduleTemplate struct {
	TemplateID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Entries []ScheduleTemplateEntry `gorm:"foreignKey:TemplateID" json:"entries,omitempty"`
}

// TableName 指定表名
func (ScheduleTemplate) TableName() string { return "schedule_templates" }

// ScheduleTemplateEntry 模板内的每周固定课位 — 对应 schedule_template_entries
// 修改/删除条目不会回溯影响已生成的课程实例（实例是物化快照）
type ScheduleTemplateEntry struct {
	EntryID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	TemplateID      string `gorm:"type:uuid;not null"                             json:"template_id"`
	DayOfWeek       string `gorm:"type:varchar(10);not null"                      json:"day_of_week"`  // monday..sunday
	StartTime       string `gorm:"type:time;not null"                             json:"start_time"`   // "HH:MM"
	DurationMin     int    `gorm:"type:smallint;not null"                         json:"duration_min"` // > 0
	ClassName       string `gorm:"type:varchar(100);not null"                     json:"class_name"`
	SessionType     string `gorm:"type:varchar(20);not null"                      json:"session_type"` // pro | amateur
	MaxParticipants int    `gorm:"type:smallint;not null"                         json:"max_participants"`
	VersionedModel
}

// TableName 指定表名
func (ScheduleTemplateEntry) TableName() string { return "schedule_template_entries" }

// weekdayNames 符号值 ↔ time.Weekday 映射
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday 解析 day_of_week 符号值；ok=false 表示非法取值
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[name]
	return wd, ok
}

// Weekday 条目对应的 time.Weekday
func (e *ScheduleTemplateEntry) Weekday() (time.Weekday, bool) {
	return ParseWeekday(e.DayOfWeek)
}
