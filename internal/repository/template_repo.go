package repository

import (
	"context"

	"gorm.io/gorm"

	"fitpulse/backend/internal/model"
	pkgerrors "fitpulse/backend/pkg/errors"
)

// ScheduleTemplateRepository 周课表模板数据访问接口
type ScheduleTemplateRepository interface {
	Create(ctx context.Context, template *model.ScheduleTemplate) error
	GetByID(ctx context.Context, id string) (*model.ScheduleTemplate, error)
	List(ctx context.Context, onlyActive bool) ([]model.ScheduleTemplate, error)
	Update(ctx context.Context, template *model.ScheduleTemplate) error
	Deactivate(ctx context.Context, id string, deletedBy string) error
}

// TemplateEntryRepository 模板课位条目数据访问接口
type TemplateEntryRepository interface {
	Create(ctx context.Context, entry *model.ScheduleTemplateEntry) error
	GetByID(ctx context.Context, id string) (*model.ScheduleTemplateEntry, error)
	ListByTemplate(ctx context.Context, templateID string) ([]model.ScheduleTemplateEntry, error)
	Update(ctx context.Context, entry *model.ScheduleTemplateEntry) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// ── ScheduleTemplate Repository 实现 ──

type scheduleTemplateRepo struct {
	db *gorm.DB
}

func NewScheduleTemplateRepo(db *gorm.DB) ScheduleTemplateRepository {
	return &scheduleTemplateRepo{db: db}
}

func (r *scheduleTemplateRepo) Create(ctx context.Context, template *model.ScheduleTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *scheduleTemplateRepo) GetByID(ctx context.Context, id string) (*model.ScheduleTemplate, error) {
	var template model.ScheduleTemplate
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("template_id = ?", id).
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *scheduleTemplateRepo) List(ctx context.Context, onlyActive bool) ([]model.ScheduleTemplate, error) {
	var templates []model.ScheduleTemplate
	db := r.db.WithContext(ctx)
	if onlyActive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("created_at ASC").Find(&templates).Error
	return templates, err
}

func (r *scheduleTemplateRepo) Update(ctx context.Context, template *model.ScheduleTemplate) error {
	oldVersion := template.Version
	result := r.db.WithContext(ctx).
		Model(template).
		Where("template_id = ? AND version = ?", template.TemplateID, oldVersion).
		Updates(map[string]interface{}{
			"name":        template.Name,
			"description": template.Description,
			"is_active":   template.IsActive,
			"updated_by":  template.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	template.Version = oldVersion + 1
	return nil
}

// Deactivate 软删除：仅清除 active 标记并打删除戳，保留历史区间的引用完整性
func (r *scheduleTemplateRepo) Deactivate(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleTemplate{}).
		Where("template_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── TemplateEntry Repository 实现 ──

type templateEntryRepo struct {
	db *gorm.DB
}

func NewTemplateEntryRepo(db *gorm.DB) TemplateEntryRepository {
	return &templateEntryRepo{db: db}
}

func (r *templateEntryRepo) Create(ctx context.Context, entry *model.ScheduleTemplateEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *templateEntryRepo) GetByID(ctx context.Context, id string) (*model.ScheduleTemplateEntry, error) {
	var entry model.ScheduleTemplateEntry
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *templateEntryRepo) ListByTemplate(ctx context.Context, templateID string) ([]model.ScheduleTemplateEntry, error) {
	var entries []model.ScheduleTemplateEntry
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("day_of_week ASC, start_time ASC").
		Find(&entries).Error
	return entries, err
}

func (r *templateEntryRepo) Update(ctx context.Context, entry *model.ScheduleTemplateEntry) error {
	oldVersion := entry.Version
	result := r.db.WithContext(ctx).
		Model(entry).
		Where("entry_id = ? AND version = ?", entry.EntryID, oldVersion).
		Updates(map[string]interface{}{
			"day_of_week":      entry.DayOfWeek,
			"start_time":       entry.StartTime,
			"duration_min":     entry.DurationMin,
			"class_name":       entry.ClassName,
			"session_type":     entry.SessionType,
			"max_participants": entry.MaxParticipants,
			"updated_by":       entry.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version = oldVersion + 1
	return nil
}

func (r *templateEntryRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleTemplateEntry{}).
		Where("entry_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
