package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fitpulse/backend/config"
	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
	pkgerrors "fitpulse/backend/pkg/errors"
	"fitpulse/backend/pkg/redis"
)

// ── 预约策略引擎业务错误（逐条对应一条预约规则）──

var (
	ErrBookingNotFound    = errors.New("预约记录不存在")
	ErrBookingNotOwned    = errors.New("无权操作他人的预约")
	ErrSessionCancelled   = errors.New("课程已被取消，无法预约")
	ErrSessionFull        = errors.New("课程名额已满")
	ErrTierMismatch       = errors.New("会员等级与课程类型不匹配")
	ErrOutsideWindow      = errors.New("超出可预约窗口")
	ErrAlreadyBooked      = errors.New("已预约过该课程")
	ErrQuotaExhausted     = errors.New("滚动周期内预约额度已用完")
	ErrSessionStarted     = errors.New("课程已开始，无法操作")
	ErrCancelCutoffPassed = errors.New("距开课不足取消截止时间，无法取消")
	ErrSessionDateInvalid = errors.New("课程时间数据异常")
)

// BookingService 预约策略引擎
//
// Book 依次执行全部预约规则（任何一条不满足即拒绝并返回对应错误）：
//  1. 课程未被取消
//  2. 有剩余名额（应用层乐观预检，存储层加锁最终仲裁）
//  3. 会员等级匹配课程类型（pro↔pro、basic↔amateur）
//  4. 开课日期落在预约窗口内（今天起 window_days 天，含当天）
//  5. 未重复预约同一课程
//  6. 滚动窗口内额度未用尽
type BookingService interface {
	Book(ctx context.Context, userID, tier string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	Cancel(ctx context.Context, userID, bookingID string) error
	ListMine(ctx context.Context, userID string) ([]dto.BookingResponse, error)
}

type bookingService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time // 测试注入时钟
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) BookingService {
	return &bookingService{cfg: cfg, repo: repo, rdb: rdb, logger: logger, now: time.Now}
}

func (s *bookingService) Book(ctx context.Context, userID, tier string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	instance, err := s.repo.Instance.GetByID(ctx, req.InstanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询实例失败", zap.String("id", req.InstanceID), zap.Error(err))
		return nil, err
	}

	if err := s.checkPolicy(ctx, userID, tier, instance); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		UserID:          userID,
		ScheduleEntryID: instance.InstanceID,
		BookingDate:     model.DateOnly(instance.ClassDate),
	}

	// 存储层最终仲裁：行锁重查容量 + 唯一索引挡重复
	if err := s.repo.Booking.CreateGuarded(ctx, booking); err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityExceeded):
			return nil, ErrSessionFull
		case errors.Is(err, pkgerrors.ErrUniqueViolation):
			return nil, ErrAlreadyBooked
		}
		s.logger.Error("创建预约失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("预约成功",
		zap.String("user_id", userID),
		zap.String("instance_id", instance.InstanceID),
		zap.String("class_date", instance.ClassDate.Format("2006-01-02")))
	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "bookings", Op: "insert", ID: booking.BookingID})

	resp := s.toBookingResponse(booking, instance)
	return &resp, nil
}

// checkPolicy 执行全部预约规则，返回第一条不满足规则对应的错误
func (s *bookingService) checkPolicy(ctx context.Context, userID, tier string, instance *model.LiveScheduleInstance) error {
	now := s.now()

	// 规则 1：课程未被取消
	if instance.IsCancelled {
		return ErrSessionCancelled
	}

	// 规则 2：剩余名额（乐观预检）
	booked, err := s.repo.Booking.CountByInstance(ctx, instance.InstanceID)
	if err != nil {
		s.logger.Error("统计预约数失败", zap.Error(err))
		return err
	}
	if booked >= int64(instance.MaxParticipants) {
		return ErrSessionFull
	}

	// 规则 3：会员等级匹配课程类型
	if !model.TierMatchesSession(tier, instance.SessionType) {
		return ErrTierMismatch
	}

	// 规则 4：预约窗口（今天 ≤ 开课日 ≤ 今天 + window_days，闭区间）
	today := model.DateOnly(now)
	classDate := model.DateOnly(instance.ClassDate)
	windowEnd := today.AddDate(0, 0, s.cfg.Booking.WindowDays)
	if classDate.Before(today) || classDate.After(windowEnd) {
		return ErrOutsideWindow
	}
	// 当天课程须开课前才可约
	startAt, err := instance.StartAt()
	if err != nil {
		s.logger.Error("实例时间解析失败", zap.String("instance_id", instance.InstanceID), zap.Error(err))
		return ErrSessionDateInvalid
	}
	if !startAt.After(now) {
		return ErrSessionStarted
	}

	// 规则 5：禁止重复预约
	if _, err := s.repo.Booking.GetByUserAndInstance(ctx, userID, instance.InstanceID); err == nil {
		return ErrAlreadyBooked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询预约失败", zap.Error(err))
		return err
	}

	// 规则 6：滚动额度
	since := now.Add(-s.cfg.Booking.QuotaWindow())
	used, err := s.repo.Booking.CountByUserSince(ctx, userID, since)
	if err != nil {
		s.logger.Error("统计滚动额度失败", zap.Error(err))
		return err
	}
	if used >= int64(s.cfg.Booking.QuotaFor(tier)) {
		return ErrQuotaExhausted
	}

	return nil
}

// Cancel 取消预约：物理删除记录，立即释放名额与额度
// 距开课不足 cancel_cutoff_mins 或课程已开始时拒绝
func (s *bookingService) Cancel(ctx context.Context, userID, bookingID string) error {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", bookingID), zap.Error(err))
		return err
	}
	if booking.UserID != userID {
		return ErrBookingNotOwned
	}
	if booking.Instance == nil {
		return ErrSessionDateInvalid
	}

	startAt, err := booking.Instance.StartAt()
	if err != nil {
		s.logger.Error("实例时间解析失败", zap.String("instance_id", booking.ScheduleEntryID), zap.Error(err))
		return ErrSessionDateInvalid
	}

	now := s.now()
	if !startAt.After(now) {
		return ErrSessionStarted
	}
	if now.After(startAt.Add(-s.cfg.Booking.CancelCutoff())) {
		return ErrCancelCutoffPassed
	}

	if err := s.repo.Booking.Delete(ctx, bookingID); err != nil {
		s.logger.Error("删除预约失败", zap.Error(err))
		return err
	}

	s.logger.Info("预约已取消",
		zap.String("user_id", userID),
		zap.String("booking_id", bookingID))
	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "bookings", Op: "delete", ID: bookingID})
	return nil
}

func (s *bookingService) ListMine(ctx context.Context, userID string) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.Booking.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, s.toBookingResponse(&bookings[i], bookings[i].Instance))
	}
	return result, nil
}

// toBookingResponse 预约模型转响应，按当前时刻推导客户端状态
func (s *bookingService) toBookingResponse(b *model.Booking, instance *model.LiveScheduleInstance) dto.BookingResponse {
	resp := dto.BookingResponse{
		ID:         b.BookingID,
		InstanceID: b.ScheduleEntryID,
		ClassDate:  b.BookingDate.Format("2006-01-02"),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		State:      dto.BookingStateUpcoming,
	}
	if instance == nil {
		return resp
	}

	resp.StartTime = instance.StartTime
	resp.DurationMin = instance.DurationMin
	resp.ClassName = instance.ClassName
	resp.SessionType = instance.SessionType
	resp.ClassDate = instance.ClassDate.Format("2006-01-02")

	switch {
	case instance.IsCancelled:
		resp.State = dto.BookingStateCancelledByAdmin
	default:
		if startAt, err := instance.StartAt(); err == nil && !startAt.After(s.now()) {
			resp.State = dto.BookingStatePast
		}
	}
	return resp
}
