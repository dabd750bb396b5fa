package service

import (
	"go.uber.org/zap"

	"fitpulse/backend/config"
	"fitpulse/backend/internal/repository"
	"fitpulse/backend/pkg/jwt"
	"fitpulse/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Template  TemplateService
	Period    PeriodService
	Generator GeneratorService
	Instance  InstanceService
	Booking   BookingService
	Schedule  ScheduleService
	Export    ExportService
	Calendar  CalendarService
}

// NewService 创建 Service 聚合
// rdb 可为 nil（Redis 降级运行），此时变更事件广播与 Token 黑名单不可用
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	generator := NewGeneratorService(cfg, repo, rdb, logger)
	return &Service{
		Auth:      NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:      NewUserService(repo, logger),
		Template:  NewTemplateService(repo, rdb, logger),
		Period:    NewPeriodService(repo, generator, rdb, logger),
		Generator: generator,
		Instance:  NewInstanceService(repo, rdb, logger),
		Booking:   NewBookingService(cfg, repo, rdb, logger),
		Schedule:  NewScheduleService(cfg, repo, logger),
		Export:    NewExportService(repo, logger),
		Calendar:  NewCalendarService(repo, logger),
	}
}
