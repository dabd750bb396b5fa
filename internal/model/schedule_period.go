package model

import "time"

// SchedulePeriod 模板生效区间 — 对应 schedule_periods
// 创建后同步触发课程实例生成；停用时级联删除其生成的实例
type SchedulePeriod struct {
	PeriodID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"period_id"`
	TemplateID string    `gorm:"type:uuid;not null"                             json:"template_id"`
	StartDate  time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null"                             json:"end_date"` // 闭区间，≥ start_date
	IsActive   bool      `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Template *ScheduleTemplate `gorm:"foreignKey:TemplateID;references:TemplateID" json:"template,omitempty"`
}

// TableName 指定表名
func (SchedulePeriod) TableName() string { return "schedule_periods" }

// Covers 日期是否落在区间内（按日比较，闭区间）
func (p *SchedulePeriod) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// Overlaps 与另一日期区间是否重叠（闭区间）
func (p *SchedulePeriod) Overlaps(start, end time.Time) bool {
	return !DateOnly(p.EndDate).Before(DateOnly(start)) && !DateOnly(p.StartDate).After(DateOnly(end))
}
