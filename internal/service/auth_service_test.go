package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fitpulse/backend/config"
	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
	"fitpulse/backend/pkg/jwt"
)

// ── 测试辅助 ──

func setupAuthTest() (AuthService, *mockUserRepo) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
	}

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

	svc := NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())
	return svc, userRepo
}

func createTestUser(userRepo *mockUserRepo, email, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:         "user-" + email,
		Name:           "测试用户",
		Email:          email,
		PasswordHash:   string(hash),
		Role:           "member",
		MembershipTier: model.TierBasic,
	}
	userRepo.users[user.UserID] = user
	return user
}

// ── 注册测试 ──

func TestRegister_Success(t *testing.T) {
	svc, _ := setupAuthTest()

	result, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "新会员",
		Email:    "new@test.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if result.Name != "新会员" {
		t.Errorf("期望Name=新会员，实际=%s", result.Name)
	}
	if result.Email != "new@test.com" {
		t.Errorf("期望Email=new@test.com，实际=%s", result.Email)
	}
}

func TestRegister_DefaultTierAndRole(t *testing.T) {
	svc, userRepo := setupAuthTest()

	result, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "新会员",
		Email:    "new@test.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	user := userRepo.users[result.ID]
	if user.Role != "member" {
		t.Errorf("新注册用户角色期望 member，实际=%s", user.Role)
	}
	if user.MembershipTier != model.TierBasic {
		t.Errorf("新注册用户等级期望 basic，实际=%s", user.MembershipTier)
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, userRepo := setupAuthTest()
	createTestUser(userRepo, "dup@test.com", "password123")

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "重复用户",
		Email:    "dup@test.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, userRepo := setupAuthTest()
	createTestUser(userRepo, "m@test.com", "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "m@test.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.RefreshToken == "" {
		t.Error("RefreshToken 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.User.Email != "m@test.com" {
		t.Errorf("期望 Email=m@test.com，实际=%s", result.User.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, userRepo := setupAuthTest()
	createTestUser(userRepo, "m@test.com", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "m@test.com",
		Password: "wrong_password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _ := setupAuthTest()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "ghost@test.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── RefreshToken 测试 ──

func TestRefreshToken_Success(t *testing.T) {
	svc, userRepo := setupAuthTest()
	createTestUser(userRepo, "m@test.com", "password123")

	loginResult, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "m@test.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	result, err := svc.RefreshToken(context.Background(), &dto.RefreshRequest{
		RefreshToken: loginResult.RefreshToken,
	})
	if err != nil {
		t.Fatalf("RefreshToken 应成功: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("新 AccessToken 不应为空")
	}
}

func TestRefreshToken_InvalidToken(t *testing.T) {
	svc, _ := setupAuthTest()

	_, err := svc.RefreshToken(context.Background(), &dto.RefreshRequest{
		RefreshToken: "invalid.token.string",
	})
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("期望 ErrRefreshInvalid，实际: %v", err)
	}
}

func TestRefreshToken_AccessTokenNotAllowed(t *testing.T) {
	svc, userRepo := setupAuthTest()
	createTestUser(userRepo, "m@test.com", "password123")

	loginResult, _ := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "m@test.com",
		Password: "password123",
	})

	// access token 不能用于刷新
	_, err := svc.RefreshToken(context.Background(), &dto.RefreshRequest{
		RefreshToken: loginResult.AccessToken,
	})
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("期望 ErrRefreshInvalid，实际: %v", err)
	}
}

// ── ChangePassword 测试 ──

func TestChangePassword_Success(t *testing.T) {
	svc, userRepo := setupAuthTest()
	user := createTestUser(userRepo, "m@test.com", "password123")

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpass456",
	})
	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}

	// 新密码可登录
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "m@test.com",
		Password: "newpass456",
	}); err != nil {
		t.Fatalf("修改密码后应能用新密码登录: %v", err)
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	svc, userRepo := setupAuthTest()
	user := createTestUser(userRepo, "m@test.com", "password123")

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "wrong_old",
		NewPassword: "newpass456",
	})
	if !errors.Is(err, ErrOldPasswordWrong) {
		t.Errorf("期望 ErrOldPasswordWrong，实际: %v", err)
	}
}

// ── GetCurrentUser 测试 ──

func TestGetCurrentUser_Success(t *testing.T) {
	svc, userRepo := setupAuthTest()
	user := createTestUser(userRepo, "m@test.com", "password123")

	result, err := svc.GetCurrentUser(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("GetCurrentUser 应成功: %v", err)
	}
	if result.Email != "m@test.com" {
		t.Errorf("期望 Email=m@test.com，实际=%s", result.Email)
	}
	if result.MembershipTier != model.TierBasic {
		t.Errorf("期望 MembershipTier=basic，实际=%s", result.MembershipTier)
	}
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	svc, _ := setupAuthTest()

	_, err := svc.GetCurrentUser(context.Background(), "nonexistent")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
