package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fitpulse/backend/config"
	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
)

// ScheduleService 客户端课表读模型
//
// 可预约列表只呈现用户真正约得上的课：未取消、等级匹配、
// 开课时刻未过、落在预约窗口内；每条附带实时余位与本人预约标记
type ScheduleService interface {
	ListBookable(ctx context.Context, userID, tier string) ([]dto.BookableSessionResponse, error)
}

type scheduleService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time // 测试注入时钟
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

func (s *scheduleService) ListBookable(ctx context.Context, userID, tier string) ([]dto.BookableSessionResponse, error) {
	now := s.now()
	today := model.DateOnly(now)
	windowEnd := today.AddDate(0, 0, s.cfg.Booking.WindowDays)

	instances, err := s.repo.Instance.ListByDateRange(ctx, today, windowEnd)
	if err != nil {
		s.logger.Error("查询实例失败", zap.Error(err))
		return nil, err
	}

	// 等级不匹配与已取消的课不进入客户端课表
	visible := instances[:0]
	for i := range instances {
		inst := &instances[i]
		if inst.IsCancelled || !model.TierMatchesSession(tier, inst.SessionType) {
			continue
		}
		// 当天已开课的场次不再展示
		startAt, err := inst.StartAt()
		if err != nil {
			s.logger.Warn("实例时间解析失败，跳过",
				zap.String("instance_id", inst.InstanceID), zap.Error(err))
			continue
		}
		if !startAt.After(now) {
			continue
		}
		visible = append(visible, *inst)
	}

	ids := make([]string, 0, len(visible))
	for i := range visible {
		ids = append(ids, visible[i].InstanceID)
	}
	counts, err := s.repo.Booking.CountByInstances(ctx, ids)
	if err != nil {
		s.logger.Error("统计预约数失败", zap.Error(err))
		return nil, err
	}

	mine, err := s.repo.Booking.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询本人预约失败", zap.Error(err))
		return nil, err
	}
	myInstances := make(map[string]struct{}, len(mine))
	for i := range mine {
		myInstances[mine[i].ScheduleEntryID] = struct{}{}
	}

	result := make([]dto.BookableSessionResponse, 0, len(visible))
	for i := range visible {
		inst := &visible[i]
		booked := int(counts[inst.InstanceID])
		remaining := inst.MaxParticipants - booked
		if remaining < 0 {
			remaining = 0
		}
		_, isMine := myInstances[inst.InstanceID]

		result = append(result, dto.BookableSessionResponse{
			ID:              inst.InstanceID,
			ClassDate:       inst.ClassDate.Format("2006-01-02"),
			StartTime:       inst.StartTime,
			DurationMin:     inst.DurationMin,
			ClassName:       inst.ClassName,
			SessionType:     inst.SessionType,
			MaxParticipants: inst.MaxParticipants,
			CurrentBookings: booked,
			Remaining:       remaining,
			IsBookedByUser:  isMine,
			Bookable:        remaining > 0 && !isMine,
		})
	}
	return result, nil
}
