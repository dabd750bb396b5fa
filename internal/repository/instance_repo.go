package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fitpulse/backend/internal/model"
	pkgerrors "fitpulse/backend/pkg/errors"
)

// LiveInstanceRepository 课程实例数据访问接口
//
// 级联清理（DeleteByPeriod / DeleteByDateRange / DeleteOrphaned）使用物理删除：
// 实例行消失后 bookings 的外键 ON DELETE CASCADE 才会连带清理预约记录
type LiveInstanceRepository interface {
	BatchCreate(ctx context.Context, instances []model.LiveScheduleInstance, batchSize int) error
	Create(ctx context.Context, instance *model.LiveScheduleInstance) error
	GetByID(ctx context.Context, id string) (*model.LiveScheduleInstance, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.LiveScheduleInstance, error)
	ListByPeriod(ctx context.Context, periodID string) ([]model.LiveScheduleInstance, error)
	ListFromDate(ctx context.Context, from time.Time) ([]model.LiveScheduleInstance, error)
	Update(ctx context.Context, instance *model.LiveScheduleInstance) error
	DeleteByPeriod(ctx context.Context, periodID string) (int64, error)
	DeleteByDateRange(ctx context.Context, from, to time.Time) (int64, error)
	DeleteOrphaned(ctx context.Context) (int64, error)
}

type liveInstanceRepo struct {
	db *gorm.DB
}

func NewLiveInstanceRepo(db *gorm.DB) LiveInstanceRepository {
	return &liveInstanceRepo{db: db}
}

func (r *liveInstanceRepo) BatchCreate(ctx context.Context, instances []model.LiveScheduleInstance, batchSize int) error {
	if len(instances) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&instances, batchSize).Error
}

func (r *liveInstanceRepo) Create(ctx context.Context, instance *model.LiveScheduleInstance) error {
	// 课位唯一索引 (class_date, start_time, class_name) 兜底重复补录
	if err := r.db.WithContext(ctx).Create(instance).Error; err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.ErrUniqueViolation
		}
		return err
	}
	return nil
}

func (r *liveInstanceRepo) GetByID(ctx context.Context, id string) (*model.LiveScheduleInstance, error) {
	var instance model.LiveScheduleInstance
	err := r.db.WithContext(ctx).
		Where("instance_id = ?", id).
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *liveInstanceRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.LiveScheduleInstance, error) {
	var instances []model.LiveScheduleInstance
	err := r.db.WithContext(ctx).
		Where("class_date >= ? AND class_date <= ?", from, to).
		Order("class_date ASC, start_time ASC").
		Find(&instances).Error
	return instances, err
}

func (r *liveInstanceRepo) ListByPeriod(ctx context.Context, periodID string) ([]model.LiveScheduleInstance, error) {
	var instances []model.LiveScheduleInstance
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("class_date ASC, start_time ASC").
		Find(&instances).Error
	return instances, err
}

func (r *liveInstanceRepo) ListFromDate(ctx context.Context, from time.Time) ([]model.LiveScheduleInstance, error) {
	var instances []model.LiveScheduleInstance
	err := r.db.WithContext(ctx).
		Where("class_date >= ?", from).
		Order("class_date ASC, start_time ASC").
		Find(&instances).Error
	return instances, err
}

func (r *liveInstanceRepo) Update(ctx context.Context, instance *model.LiveScheduleInstance) error {
	oldVersion := instance.Version
	result := r.db.WithContext(ctx).
		Model(instance).
		Where("instance_id = ? AND version = ?", instance.InstanceID, oldVersion).
		Updates(map[string]interface{}{
			"class_date":       instance.ClassDate,
			"start_time":       instance.StartTime,
			"duration_min":     instance.DurationMin,
			"class_name":       instance.ClassName,
			"session_type":     instance.SessionType,
			"max_participants": instance.MaxParticipants,
			"is_cancelled":     instance.IsCancelled,
			"updated_by":       instance.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	instance.Version = oldVersion + 1
	return nil
}

func (r *liveInstanceRepo) DeleteByPeriod(ctx context.Context, periodID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("period_id = ?", periodID).
		Delete(&model.LiveScheduleInstance{})
	return result.RowsAffected, result.Error
}

// DeleteByDateRange 强制重建的破坏性清理：删除日期区间内的全部实例，
// 不限定所属区间 —— 用于修复多区间冲突留下的重复课位
func (r *liveInstanceRepo) DeleteByDateRange(ctx context.Context, from, to time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("class_date >= ? AND class_date <= ?", from, to).
		Delete(&model.LiveScheduleInstance{})
	return result.RowsAffected, result.Error
}

// DeleteOrphaned 清理所属区间已停用/软删除的孤儿实例
func (r *liveInstanceRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("period_id IN (?)",
			r.db.Model(&model.SchedulePeriod{}).
				Unscoped().
				Select("period_id").
				Where("is_active = ? OR deleted_at IS NOT NULL", false),
		).
		Delete(&model.LiveScheduleInstance{})
	return result.RowsAffected, result.Error
}
