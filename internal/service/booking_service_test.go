package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"fitpulse/backend/config"
	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
)

// ── 测试辅助 ──

// 固定测试时钟：2026-09-01（周二）上午 8 点
var testNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Booking: config.BookingConfig{
			WindowDays:       14,
			CancelCutoffMins: 180,
			QuotaBasic:       16,
			QuotaPro:         16,
			QuotaWindowDays:  28,
			GenerateBatch:    100,
		},
	}
}

func setupBookingTest() (*bookingService, *mockInstanceRepo, *mockBookingRepo) {
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
	svc := NewBookingService(testConfig(), repo, nil, zap.NewNop()).(*bookingService)
	svc.now = func() time.Time { return testNow }
	return svc, instanceRepo, bookingRepo
}

// addTestInstance 注入一个可预约实例，日期相对测试时钟偏移 dayOffset 天
func addTestInstance(repo *mockInstanceRepo, id string, dayOffset int, startTime, sessionType string, capacity int) *model.LiveScheduleInstance {
	instance := &model.LiveScheduleInstance{
		InstanceID:      id,
		PeriodID:        "period-001",
		ClassDate:       model.DateOnly(testNow).AddDate(0, 0, dayOffset),
		StartTime:       startTime,
		DurationMin:     60,
		ClassName:       "测试课程-" + id,
		SessionType:     sessionType,
		MaxParticipants: capacity,
	}
	repo.instances[id] = instance
	return instance
}

// ── Book 成功路径 ──

func TestBookingService_Book_Success(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionAmateur, 10)

	result, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-001"})
	if err != nil {
		t.Fatalf("Book 应成功: %v", err)
	}
	if result.InstanceID != "inst-001" {
		t.Errorf("期望InstanceID=inst-001，实际=%s", result.InstanceID)
	}
	if result.State != dto.BookingStateUpcoming {
		t.Errorf("期望State=upcoming，实际=%s", result.State)
	}
}

func TestBookingService_Book_ProTierProSession(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionPro, 10)

	_, err := svc.Book(context.Background(), "u1", model.TierPro,
		&dto.CreateBookingRequest{InstanceID: "inst-001"})
	if err != nil {
		t.Fatalf("pro 会员预约专业课应成功: %v", err)
	}
}

// ── 规则：等级匹配 ──

func TestBookingService_Book_TierMismatch(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	addTestInstance(instanceRepo, "inst-pro", 1, "10:00", model.SessionPro, 10)
	addTestInstance(instanceRepo, "inst-ama", 1, "11:00", model.SessionAmateur, 10)

	// basic 会员 × 专业课
	_, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-pro"})
	if !errors.Is(err, ErrTierMismatch) {
		t.Errorf("basic×pro 期望 ErrTierMismatch，实际: %v", err)
	}

	// pro 会员 × 大众课（双向均不匹配）
	_, err = svc.Book(context.Background(), "u2", model.TierPro,
		&dto.CreateBookingRequest{InstanceID: "inst-ama"})
	if !errors.Is(err, ErrTierMismatch) {
		t.Errorf("pro×amateur 期望 ErrTierMismatch，实际: %v", err)
	}
}

// ── 规则：预约窗口 ──

func TestBookingService_Book_WindowBoundary(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	// 第 14 天：窗口内最后一天（闭区间）
	addTestInstance(instanceRepo, "inst-day14", 14, "10:00", model.SessionAmateur, 10)
	// 第 15 天：越界
	addTestInstance(instanceRepo, "inst-day15", 15, "10:00", model.SessionAmateur, 10)

	if _, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-day14"}); err != nil {
		t.Errorf("窗口第 14 天应可预约: %v", err)
	}
	if _, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-day15"}); !errors.Is(err, ErrOutsideWindow) {
		t.Errorf("窗口第 15 天期望 ErrOutsideWindow，实际: %v", err)
	}
}

func TestBookingService_Book_TodayBeforeStart(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	// 当天 10:00 开课，测试时钟 8:00 → 可约
	addTestInstance(instanceRepo, "inst-later", 0, "10:00", model.SessionAmateur, 10)
	// 当天 07:00 已开课 → 拒绝
	addTestInstance(instanceRepo, "inst-passed", 0, "07:00", model.SessionAmateur, 10)

	if _, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-later"}); err != nil {
		t.Errorf("当天未开课课程应可预约: %v", err)
	}
	if _, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-passed"}); !errors.Is(err, ErrSessionStarted) {
		t.Errorf("已开课课程期望 ErrSessionStarted，实际: %v", err)
	}
}

// ── 规则：容量 ──

func TestBookingService_Book_Full(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupBookingTest()
	addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionAmateur, 3)

	for i := 0; i < 3; i++ {
		userID := fmt.Sprintf("u%d", i)
		if _, err := svc.Book(context.Background(), userID, model.TierBasic,
			&dto.CreateBookingRequest{InstanceID: "inst-001"}); err != nil {
			t.Fatalf("第 %d 个预约应成功: %v", i+1, err)
		}
	}
	if len(bookingRepo.bookings) != 3 {
		t.Fatalf("期望 3 条预约，实际 %d", len(bookingRepo.bookings))
	}

	// 第 4 人：满员拒绝
	_, err := svc.Book(context.Background(), "u99", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-001"})
	if !errors.Is(err, ErrSessionFull) {
		t.Errorf("满员期望 ErrSessionFull，实际: %v", err)
	}
}

// ── 规则：重复预约 ──

func TestBookingService_Book_Duplicate(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionAmateur, 10)

	if _, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-001"}); err != nil {
		t.Fatalf("首次预约应成功: %v", err)
	}
	_, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-001"})
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Errorf("重复预约期望 ErrAlreadyBooked，实际: %v", err)
	}
}

// ── 规则：课程已取消 ──

func TestBookingService_Book_CancelledSession(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	instance := addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionAmateur, 10)
	instance.IsCancelled = true

	_, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-001"})
	if !errors.Is(err, ErrSessionCancelled) {
		t.Errorf("已取消课程期望 ErrSessionCancelled，实际: %v", err)
	}
}

// ── 规则：滚动额度 ──

// seedBookings 直接注入 n 条历史预约（不同实例，指定创建时间）
func seedBookings(bookingRepo *mockBookingRepo, instanceRepo *mockInstanceRepo, userID string, n int, createdAt time.Time) {
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("seed-inst-%s-%d", userID, i)
		addTestInstance(instanceRepo, id, 2, fmt.Sprintf("%02d:30", i%24), model.SessionAmateur, 100)
		bkID := fmt.Sprintf("seed-bk-%s-%d", userID, i)
		bookingRepo.bookings[bkID] = &model.Booking{
			BookingID:       bkID,
			UserID:          userID,
			ScheduleEntryID: id,
			BookingDate:     model.DateOnly(testNow).AddDate(0, 0, 2),
			CreatedAt:       createdAt,
		}
	}
}

func TestBookingService_Book_QuotaExhausted(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupBookingTest()
	seedBookings(bookingRepo, instanceRepo, "u1", 16, testNow.Add(-24*time.Hour))
	addTestInstance(instanceRepo, "inst-new", 1, "10:00", model.SessionAmateur, 10)

	// 第 17 次：额度用尽
	_, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-new"})
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("额度用尽期望 ErrQuotaExhausted，实际: %v", err)
	}

	// 取消一条后额度释放，重试成功
	for id, b := range bookingRepo.bookings {
		if b.UserID == "u1" {
			delete(bookingRepo.bookings, id)
			break
		}
	}
	if _, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-new"}); err != nil {
		t.Errorf("取消后重试应成功: %v", err)
	}
}

func TestBookingService_Book_QuotaWindowExpired(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupBookingTest()
	// 29 天前的 16 条预约已滑出 28 天窗口，不占额度
	seedBookings(bookingRepo, instanceRepo, "u1", 16, testNow.Add(-29*24*time.Hour))
	addTestInstance(instanceRepo, "inst-new", 1, "10:00", model.SessionAmateur, 10)

	if _, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-new"}); err != nil {
		t.Errorf("窗口外历史预约不应占额度: %v", err)
	}
}

// ── Cancel ──

func TestBookingService_Cancel_Success(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupBookingTest()
	// 明天 10:00 开课，距开课远超 3 小时
	addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionAmateur, 10)
	result, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-001"})
	if err != nil {
		t.Fatalf("Book 应成功: %v", err)
	}

	if err := svc.Cancel(context.Background(), "u1", result.ID); err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if len(bookingRepo.bookings) != 0 {
		t.Error("取消后预约记录应被物理删除")
	}
}

func TestBookingService_Cancel_CutoffBoundary(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	// 当天 11:01 开课：距测试时钟 8:00 为 3 小时 1 分钟，刚好可取消
	addTestInstance(instanceRepo, "inst-ok", 0, "11:01", model.SessionAmateur, 10)
	// 当天 10:59 开课：不足 3 小时
	addTestInstance(instanceRepo, "inst-late", 0, "10:59", model.SessionAmateur, 10)

	okBooking, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-ok"})
	if err != nil {
		t.Fatalf("Book 应成功: %v", err)
	}
	lateBooking, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-late"})
	if err != nil {
		t.Fatalf("Book 应成功: %v", err)
	}

	if err := svc.Cancel(context.Background(), "u1", okBooking.ID); err != nil {
		t.Errorf("距开课 3 小时以上应可取消: %v", err)
	}
	if err := svc.Cancel(context.Background(), "u1", lateBooking.ID); !errors.Is(err, ErrCancelCutoffPassed) {
		t.Errorf("距开课不足 3 小时期望 ErrCancelCutoffPassed，实际: %v", err)
	}
}

func TestBookingService_Cancel_NotOwned(t *testing.T) {
	svc, instanceRepo, _ := setupBookingTest()
	addTestInstance(instanceRepo, "inst-001", 1, "10:00", model.SessionAmateur, 10)
	result, err := svc.Book(context.Background(), "u1", model.TierBasic,
		&dto.CreateBookingRequest{InstanceID: "inst-001"})
	if err != nil {
		t.Fatalf("Book 应成功: %v", err)
	}

	if err := svc.Cancel(context.Background(), "u2", result.ID); !errors.Is(err, ErrBookingNotOwned) {
		t.Errorf("他人取消期望 ErrBookingNotOwned，实际: %v", err)
	}
}

func TestBookingService_Cancel_NotFound(t *testing.T) {
	svc, _, _ := setupBookingTest()
	if err := svc.Cancel(context.Background(), "u1", "no-such-booking"); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("期望 ErrBookingNotFound，实际: %v", err)
	}
}

// ── ListMine 状态推导 ──

func TestBookingService_ListMine_States(t *testing.T) {
	svc, instanceRepo, bookingRepo := setupBookingTest()
	addTestInstance(instanceRepo, "inst-upcoming", 1, "10:00", model.SessionAmateur, 10)
	addTestInstance(instanceRepo, "inst-past", -1, "10:00", model.SessionAmateur, 10)
	cancelled := addTestInstance(instanceRepo, "inst-cxl", 2, "10:00", model.SessionAmateur, 10)
	cancelled.IsCancelled = true

	for i, instID := range []string{"inst-upcoming", "inst-past", "inst-cxl"} {
		bkID := fmt.Sprintf("bk-%d", i)
		bookingRepo.bookings[bkID] = &model.Booking{
			BookingID:       bkID,
			UserID:          "u1",
			ScheduleEntryID: instID,
			CreatedAt:       testNow.Add(-48 * time.Hour),
		}
	}

	list, err := svc.ListMine(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("期望 3 条预约，实际 %d", len(list))
	}

	states := make(map[string]string)
	for _, b := range list {
		states[b.InstanceID] = b.State
	}
	if states["inst-upcoming"] != dto.BookingStateUpcoming {
		t.Errorf("期望 upcoming，实际=%s", states["inst-upcoming"])
	}
	if states["inst-past"] != dto.BookingStatePast {
		t.Errorf("期望 past，实际=%s", states["inst-past"])
	}
	if states["inst-cxl"] != dto.BookingStateCancelledByAdmin {
		t.Errorf("期望 cancelled_by_admin，实际=%s", states["inst-cxl"])
	}
}
