package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitpulse/backend/internal/model"
	pkgerrors "fitpulse/backend/pkg/errors"
)

// ErrCapacityExceeded 存储层兜底的容量拒绝：加锁重查后实例已满
var ErrCapacityExceeded = errors.New("课程名额已满")

// BookingRepository 预约数据访问接口
type BookingRepository interface {
	// CreateGuarded 事务内加锁校验容量后插入；应用层预检是乐观检查，
	// 并发抢最后一个名额时由这里做最终仲裁
	CreateGuarded(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByUserAndInstance(ctx context.Context, userID, instanceID string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	CountByInstance(ctx context.Context, instanceID string) (int64, error)
	CountByInstances(ctx context.Context, instanceIDs []string) (map[string]int64, error)
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

type bookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) CreateGuarded(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 锁定实例行，阻塞同一实例上的并发预约
		var instance model.LiveScheduleInstance
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("instance_id = ?", booking.ScheduleEntryID).
			First(&instance).Error; err != nil {
			return err
		}

		// 2. 锁内重新计数，封死超卖窗口
		var count int64
		if err := tx.Model(&model.Booking{}).
			Where("schedule_entry_id = ?", booking.ScheduleEntryID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(instance.MaxParticipants) {
			return ErrCapacityExceeded
		}

		// 3. 插入；(user_id, schedule_entry_id) 唯一索引兜底重复预约
		if err := tx.Create(booking).Error; err != nil {
			if isUniqueViolation(err) {
				return pkgerrors.ErrUniqueViolation
			}
			return err
		}
		return nil
	})
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Preload("Instance").
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) GetByUserAndInstance(ctx context.Context, userID, instanceID string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND schedule_entry_id = ?", userID, instanceID).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("Instance").
		Where("user_id = ?", userID).
		Order("booking_date DESC, created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) CountByInstance(ctx context.Context, instanceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("schedule_entry_id = ?", instanceID).
		Count(&count).Error
	return count, err
}

// CountByInstances 批量统计各实例的预约数（客户端课表一次查询全部）
func (r *bookingRepo) CountByInstances(ctx context.Context, instanceIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(instanceIDs))
	if len(instanceIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ScheduleEntryID string
		N               int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Select("schedule_entry_id, COUNT(*) AS n").
		Where("schedule_entry_id IN ?", instanceIDs).
		Group("schedule_entry_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ScheduleEntryID] = r.N
	}
	return counts, nil
}

// CountByUserSince 统计用户自 since 起的预约数（滚动额度用）
func (r *bookingRepo) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (r *bookingRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("booking_id = ?", id).
		Delete(&model.Booking{}).Error
}

// isUniqueViolation PostgreSQL 唯一约束冲突（SQLSTATE 23505）
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
