package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
)

// ── 测试辅助 ──

func setupUserTest() (UserService, *mockUserRepo) {
	userRepo := newMockUserRepo()
	entryRepo := newMockEntryRepo()
	instanceRepo := newMockInstanceRepo()
	repo := &repository.Repository{
		User:     userRepo,
		Template: newMockTemplateRepo(entryRepo),
		Entry:    entryRepo,
		Period:   newMockPeriodRepo(),
		Instance: instanceRepo,
		Booking:  newMockBookingRepo(instanceRepo),
	}
	return NewUserService(repo, zap.NewNop()), userRepo
}

// ── SetMembershipTier ──

func TestUserService_SetMembershipTier(t *testing.T) {
	svc, userRepo := setupUserTest()
	user := createTestUser(userRepo, "m@test.com", "password123")

	result, err := svc.SetMembershipTier(context.Background(), user.UserID, model.TierPro, "admin-1")
	if err != nil {
		t.Fatalf("SetMembershipTier 应成功: %v", err)
	}
	if result.MembershipTier != model.TierPro {
		t.Errorf("期望等级=pro，实际=%s", result.MembershipTier)
	}
	if userRepo.users[user.UserID].MembershipTier != model.TierPro {
		t.Error("等级变更应写入存储")
	}
}

func TestUserService_SetMembershipTier_Invalid(t *testing.T) {
	svc, userRepo := setupUserTest()
	user := createTestUser(userRepo, "m@test.com", "password123")

	_, err := svc.SetMembershipTier(context.Background(), user.UserID, "vip", "admin-1")
	if !errors.Is(err, ErrTierInvalid) {
		t.Errorf("非法等级期望 ErrTierInvalid，实际: %v", err)
	}
}

func TestUserService_SetMembershipTier_NotFound(t *testing.T) {
	svc, _ := setupUserTest()
	_, err := svc.SetMembershipTier(context.Background(), "nonexistent", model.TierPro, "admin-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── SetRole ──

func TestUserService_SetRole(t *testing.T) {
	svc, userRepo := setupUserTest()
	user := createTestUser(userRepo, "m@test.com", "password123")

	result, err := svc.SetRole(context.Background(), user.UserID, "admin", "admin-1")
	if err != nil {
		t.Fatalf("SetRole 应成功: %v", err)
	}
	if result.Role != "admin" {
		t.Errorf("期望角色=admin，实际=%s", result.Role)
	}

	if _, err := svc.SetRole(context.Background(), user.UserID, "superuser", "admin-1"); !errors.Is(err, ErrRoleInvalid) {
		t.Errorf("非法角色期望 ErrRoleInvalid，实际: %v", err)
	}
}

// ── List / Delete ──

func TestUserService_List_Pagination(t *testing.T) {
	svc, userRepo := setupUserTest()
	for _, email := range []string{"a@test.com", "b@test.com", "c@test.com"} {
		createTestUser(userRepo, email, "password123")
	}

	page1, total, err := svc.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 3 {
		t.Errorf("期望total=3，实际=%d", total)
	}
	if len(page1) != 2 {
		t.Errorf("期望第一页 2 条，实际 %d", len(page1))
	}

	page2, _, err := svc.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("期望第二页 1 条，实际 %d", len(page2))
	}
}

func TestUserService_Delete(t *testing.T) {
	svc, userRepo := setupUserTest()
	user := createTestUser(userRepo, "m@test.com", "password123")

	if err := svc.Delete(context.Background(), user.UserID, "admin-1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if err := svc.Delete(context.Background(), user.UserID, "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("重复删除期望 ErrUserNotFound，实际: %v", err)
	}
}
