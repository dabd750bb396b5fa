package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
	pkgerrors "fitpulse/backend/pkg/errors"
	"fitpulse/backend/pkg/redis"
)

// ── 课程实例模块业务错误 ──

var (
	ErrInstanceNotFound    = errors.New("课程实例不存在")
	ErrNoActivePeriod      = errors.New("该日期不在任何活跃区间内，无法补录实例")
	ErrCapacityBelowBooked = errors.New("容量不能低于已有预约数")
	ErrInstanceDuplicate   = errors.New("同一天同一时间已存在同名课程")
)

// InstanceService 课程实例业务接口（管理端）
type InstanceService interface {
	Create(ctx context.Context, req *dto.CreateInstanceRequest, callerID string) (*dto.InstanceResponse, error)
	GetByID(ctx context.Context, id string) (*dto.InstanceResponse, error)
	ListByDateRange(ctx context.Context, req *dto.InstanceListRequest) ([]dto.InstanceResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateInstanceRequest, callerID string) (*dto.InstanceResponse, error)
	Cancel(ctx context.Context, id string, callerID string) (*dto.InstanceResponse, error)
}

type instanceService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewInstanceService 创建 InstanceService 实例
func NewInstanceService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) InstanceService {
	return &instanceService{repo: repo, rdb: rdb, logger: logger}
}

// Create 脱离生成管线手工补录单个实例
// 要求存在覆盖 class_date 的活跃区间（补录进该区间，避免孤儿实例）
func (s *instanceService) Create(ctx context.Context, req *dto.CreateInstanceRequest, callerID string) (*dto.InstanceResponse, error) {
	date, err := parseDate(req.ClassDate)
	if err != nil {
		return nil, ErrPeriodDateInvalid
	}
	if !validClockTime(req.StartTime) {
		return nil, ErrEntryTimeInvalid
	}

	period, err := s.repo.Period.FindActiveCovering(ctx, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePeriod
		}
		s.logger.Error("查询覆盖区间失败", zap.Error(err))
		return nil, err
	}

	instance := &model.LiveScheduleInstance{
		PeriodID:        period.PeriodID,
		ClassDate:       date,
		StartTime:       req.StartTime,
		DurationMin:     req.DurationMin,
		ClassName:       req.ClassName,
		SessionType:     req.SessionType,
		MaxParticipants: req.MaxParticipants,
	}
	instance.CreatedBy = &callerID
	instance.UpdatedBy = &callerID

	if err := s.repo.Instance.Create(ctx, instance); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			return nil, ErrInstanceDuplicate
		}
		s.logger.Error("补录实例失败", zap.Error(err))
		return nil, err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "live_schedule_instances", Op: "insert", ID: instance.InstanceID})
	return s.toInstanceResponse(ctx, instance), nil
}

func (s *instanceService) GetByID(ctx context.Context, id string) (*dto.InstanceResponse, error) {
	instance, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询实例失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toInstanceResponse(ctx, instance), nil
}

func (s *instanceService) ListByDateRange(ctx context.Context, req *dto.InstanceListRequest) ([]dto.InstanceResponse, error) {
	from, err := parseDate(req.From)
	if err != nil {
		return nil, ErrPeriodDateInvalid
	}
	to, err := parseDate(req.To)
	if err != nil {
		return nil, ErrPeriodDateInvalid
	}
	if to.Before(from) {
		return nil, ErrPeriodRangeInvalid
	}

	instances, err := s.repo.Instance.ListByDateRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询实例列表失败", zap.Error(err))
		return nil, err
	}

	// 批量取预约数，避免逐实例查询
	ids := make([]string, 0, len(instances))
	for i := range instances {
		ids = append(ids, instances[i].InstanceID)
	}
	counts, err := s.repo.Booking.CountByInstances(ctx, ids)
	if err != nil {
		s.logger.Error("统计预约数失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.InstanceResponse, 0, len(instances))
	for i := range instances {
		result = append(result, toInstanceResponseWithCount(&instances[i], int(counts[instances[i].InstanceID])))
	}
	return result, nil
}

func (s *instanceService) Update(ctx context.Context, id string, req *dto.UpdateInstanceRequest, callerID string) (*dto.InstanceResponse, error) {
	instance, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询实例失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	booked, err := s.repo.Booking.CountByInstance(ctx, id)
	if err != nil {
		s.logger.Error("统计预约数失败", zap.Error(err))
		return nil, err
	}

	if req.StartTime != nil {
		if !validClockTime(*req.StartTime) {
			return nil, ErrEntryTimeInvalid
		}
		instance.StartTime = *req.StartTime
	}
	if req.DurationMin != nil {
		instance.DurationMin = *req.DurationMin
	}
	if req.ClassName != nil {
		instance.ClassName = *req.ClassName
	}
	if req.MaxParticipants != nil {
		// 缩容下限是已有预约数，已占的名额不能被抹掉
		if int64(*req.MaxParticipants) < booked {
			return nil, ErrCapacityBelowBooked
		}
		instance.MaxParticipants = *req.MaxParticipants
	}
	instance.UpdatedBy = &callerID

	if err := s.repo.Instance.Update(ctx, instance); err != nil {
		s.logger.Error("更新实例失败", zap.Error(err))
		return nil, err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "live_schedule_instances", Op: "update", ID: instance.InstanceID})
	resp := toInstanceResponseWithCount(instance, int(booked))
	return &resp, nil
}

// Cancel 管理员取消课程：打 is_cancelled 标记而非删除，已有预约保留为历史
func (s *instanceService) Cancel(ctx context.Context, id string, callerID string) (*dto.InstanceResponse, error) {
	instance, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询实例失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !instance.IsCancelled {
		instance.IsCancelled = true
		instance.UpdatedBy = &callerID
		if err := s.repo.Instance.Update(ctx, instance); err != nil {
			s.logger.Error("取消实例失败", zap.Error(err))
			return nil, err
		}
		s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "live_schedule_instances", Op: "update", ID: instance.InstanceID})
	}

	return s.toInstanceResponse(ctx, instance), nil
}

// ────────────────────── 转换辅助 ──────────────────────

func (s *instanceService) toInstanceResponse(ctx context.Context, i *model.LiveScheduleInstance) *dto.InstanceResponse {
	count, err := s.repo.Booking.CountByInstance(ctx, i.InstanceID)
	if err != nil {
		s.logger.Warn("统计预约数失败", zap.String("instance_id", i.InstanceID), zap.Error(err))
	}
	resp := toInstanceResponseWithCount(i, int(count))
	return &resp
}

func toInstanceResponseWithCount(i *model.LiveScheduleInstance, bookings int) dto.InstanceResponse {
	remaining := i.MaxParticipants - bookings
	if remaining < 0 {
		remaining = 0 // 容量曾被缩小时计数可能超额，对外不出现负数
	}
	resp := dto.InstanceResponse{
		ID:              i.InstanceID,
		PeriodID:        i.PeriodID,
		ClassDate:       i.ClassDate.Format("2006-01-02"),
		StartTime:       i.StartTime,
		DurationMin:     i.DurationMin,
		ClassName:       i.ClassName,
		SessionType:     i.SessionType,
		MaxParticipants: i.MaxParticipants,
		IsCancelled:     i.IsCancelled,
		CurrentBookings: bookings,
		Remaining:       remaining,
	}
	if i.TemplateEntryID != nil {
		resp.TemplateEntryID = *i.TemplateEntryID
	}
	return resp
}
