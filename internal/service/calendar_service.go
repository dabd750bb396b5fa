package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
)

// ── 日历模块业务错误 ──

var ErrCalendarNoBookings = errors.New("没有可导出的预约")

// CalendarService 预约日历导出（iCalendar RFC 5545）
//
// 把用户未开课的预约序列化为 .ics，供订阅到手机日历；
// 被管理员取消的课程不进入日历
type CalendarService interface {
	ExportBookings(ctx context.Context, userID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time // 测试注入时钟
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger, now: time.Now}
}

func (s *calendarService) ExportBookings(ctx context.Context, userID string) (string, error) {
	bookings, err := s.repo.Booking.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.Error(err))
		return "", err
	}

	now := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//FitPulse//Bookings//CN")

	sessionNames := map[string]string{model.SessionPro: "专业课", model.SessionAmateur: "大众课"}

	exported := 0
	for i := range bookings {
		b := &bookings[i]
		if b.Instance == nil || b.Instance.IsCancelled {
			continue
		}
		startAt, err := b.Instance.StartAt()
		if err != nil {
			s.logger.Warn("实例时间解析失败，跳过",
				zap.String("instance_id", b.ScheduleEntryID), zap.Error(err))
			continue
		}
		if !startAt.After(now) {
			continue
		}
		endAt := startAt.Add(time.Duration(b.Instance.DurationMin) * time.Minute)

		evt := cal.AddEvent(fmt.Sprintf("%s@fitpulse", b.BookingID))
		evt.SetCreatedTime(b.CreatedAt)
		evt.SetDtStampTime(now)
		evt.SetStartAt(startAt)
		evt.SetEndAt(endAt)
		evt.SetSummary(b.Instance.ClassName)
		evt.SetDescription(fmt.Sprintf("%s · %d 分钟",
			sessionNames[b.Instance.SessionType], b.Instance.DurationMin))
		exported++
	}

	if exported == 0 {
		return "", ErrCalendarNoBookings
	}
	return cal.Serialize(), nil
}
