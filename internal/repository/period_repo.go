package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fitpulse/backend/internal/model"
	pkgerrors "fitpulse/backend/pkg/errors"
)

// SchedulePeriodRepository 模板生效区间数据访问接口
type SchedulePeriodRepository interface {
	Create(ctx context.Context, period *model.SchedulePeriod) error
	GetByID(ctx context.Context, id string) (*model.SchedulePeriod, error)
	List(ctx context.Context, onlyActive bool) ([]model.SchedulePeriod, error)
	ListActiveOverlapping(ctx context.Context, start, end time.Time) ([]model.SchedulePeriod, error)
	FindActiveCovering(ctx context.Context, date time.Time) (*model.SchedulePeriod, error)
	Update(ctx context.Context, period *model.SchedulePeriod) error
	Deactivate(ctx context.Context, id string, deletedBy string) error
}

type schedulePeriodRepo struct {
	db *gorm.DB
}

func NewSchedulePeriodRepo(db *gorm.DB) SchedulePeriodRepository {
	return &schedulePeriodRepo{db: db}
}

func (r *schedulePeriodRepo) Create(ctx context.Context, period *model.SchedulePeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *schedulePeriodRepo) GetByID(ctx context.Context, id string) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Preload("Template").
		Where("period_id = ?", id).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *schedulePeriodRepo) List(ctx context.Context, onlyActive bool) ([]model.SchedulePeriod, error) {
	var periods []model.SchedulePeriod
	db := r.db.WithContext(ctx).Preload("Template")
	if onlyActive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("start_date DESC").Find(&periods).Error
	return periods, err
}

// ListActiveOverlapping 查询与 [start, end]（闭区间）重叠的活跃区间
// 用于创建/修改时的重叠拦截：同一馆内不允许两个活跃区间覆盖同一天
func (r *schedulePeriodRepo) ListActiveOverlapping(ctx context.Context, start, end time.Time) ([]model.SchedulePeriod, error) {
	var periods []model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, end, start).
		Find(&periods).Error
	return periods, err
}

// FindActiveCovering 查询覆盖指定日期的活跃区间
// 管理员脱离生成管线手工补录单个实例时，必须存在覆盖该日期的活跃区间
func (r *schedulePeriodRepo) FindActiveCovering(ctx context.Context, date time.Time) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, date, date).
		Order("created_at DESC").
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *schedulePeriodRepo) Update(ctx context.Context, period *model.SchedulePeriod) error {
	oldVersion := period.Version
	result := r.db.WithContext(ctx).
		Model(period).
		Where("period_id = ? AND version = ?", period.PeriodID, oldVersion).
		Updates(map[string]interface{}{
			"template_id": period.TemplateID,
			"start_date":  period.StartDate,
			"end_date":    period.EndDate,
			"is_active":   period.IsActive,
			"updated_by":  period.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	period.Version = oldVersion + 1
	return nil
}

// Deactivate 软删除区间；其生成的课程实例由 Service 层级联清理
func (r *schedulePeriodRepo) Deactivate(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.SchedulePeriod{}).
		Where("period_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
