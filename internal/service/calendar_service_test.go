package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
)

// ── 测试辅助 ──

func setupCalendarTest() (*calendarService, *mockInstanceRepo, *mockBookingRepo) {
	entryRepo := newMockEntryRepo()
	instanceRepo := newMockInstanceRepo()
	bookingRepo := newMockBookingRepo(instanceRepo)
	repo := &repository.Repository{
		User:     newMockUserRepo(),
		Template: newMockTemplateRepo(entryRepo),
		Entry:    entryRepo,
		Period:   newMockPeriodRepo(),
		Instance: instanceRepo,
		Booking:  bookingRepo,
	}
	svc := NewCalendarService(repo, zap.NewNop()).(*calendarService)
	svc.now = func() time.Time { return testNow }
	return svc, instanceRepo, bookingRepo
}

func seedCalendarBooking(bookingRepo *mockBookingRepo, id, userID, instanceID string) {
	bookingRepo.bookings[id] = &model.Booking{
		BookingID: id, UserID: userID, ScheduleEntryID: instanceID,
		CreatedAt: testNow.Add(-24 * time.Hour),
	}
}

// ── ExportBookings ──

func TestCalendarService_ExportBookings(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupCalendarTest()
	addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionAmateur, 10)
	seedCalendarBooking(bookingRepo, "bk-1", "u1", "inst-001")

	out, err := svc.ExportBookings(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ExportBookings 应成功: %v", err)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "bk-1@fitpulse", "SUMMARY:测试课程-inst-001"} {
		if !strings.Contains(out, want) {
			t.Errorf("输出应包含 %q", want)
		}
	}
}

func TestCalendarService_ExportBookings_SkipsCancelledAndPast(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupCalendarTest()
	addTestInstance(instanceRepo, "inst-ok", 1, "10:00", model.SessionAmateur, 10)
	cancelled := addTestInstance(instanceRepo, "inst-cxl", 2, "10:00", model.SessionAmateur, 10)
	cancelled.IsCancelled = true
	addTestInstance(instanceRepo, "inst-past", -1, "10:00", model.SessionAmateur, 10)

	seedCalendarBooking(bookingRepo, "bk-ok", "u1", "inst-ok")
	seedCalendarBooking(bookingRepo, "bk-cxl", "u1", "inst-cxl")
	seedCalendarBooking(bookingRepo, "bk-past", "u1", "inst-past")

	out, err := svc.ExportBookings(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ExportBookings 应成功: %v", err)
	}
	if !strings.Contains(out, "bk-ok@fitpulse") {
		t.Error("未开课预约应进入日历")
	}
	if strings.Contains(out, "bk-cxl@fitpulse") {
		t.Error("已取消课程不应进入日历")
	}
	if strings.Contains(out, "bk-past@fitpulse") {
		t.Error("已开课预约不应进入日历")
	}
}

func TestCalendarService_ExportBookings_Empty(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupCalendarTest()
	// 仅有一条已开课预约，过滤后无可导出事件
	addTestInstance(instanceRepo, "inst-past", -1, "10:00", model.SessionAmateur, 10)
	seedCalendarBooking(bookingRepo, "bk-past", "u1", "inst-past")

	_, err := svc.ExportBookings(context.Background(), "u1")
	if !errors.Is(err, ErrCalendarNoBookings) {
		t.Errorf("期望 ErrCalendarNoBookings，实际: %v", err)
	}
}
