package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fitpulse/backend/config"
	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
	"fitpulse/backend/pkg/redis"
)

// ── 生成器模块业务错误 ──

var (
	ErrPeriodNotFound   = errors.New("生效区间不存在")
	ErrPeriodInactive   = errors.New("生效区间已停用，无法生成实例")
	ErrEntryDayInvalid  = errors.New("模板课位 day_of_week 取值非法")
	ErrNoEntriesToApply = errors.New("模板没有任何课位，无实例可生成")
)

// GeneratorService 课程实例生成器
//
// 把（区间日期 × 模板课位）的笛卡尔积物化为 live_schedule_instances。
// 默认模式按课位键幂等跳过已存在实例，可安全重复执行；
// force 模式先删除日期区间内全部实例（不限所属区间）再重建，连带清除其上的预约
type GeneratorService interface {
	Generate(ctx context.Context, periodID string, force bool) (int, error)
	CleanupOrphaned(ctx context.Context) (int, error)
}

type generatorService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewGeneratorService 创建 GeneratorService 实例
func NewGeneratorService(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) GeneratorService {
	return &generatorService{cfg: cfg, repo: repo, rdb: rdb, logger: logger}
}

func (s *generatorService) Generate(ctx context.Context, periodID string, force bool) (int, error) {
	period, err := s.repo.Period.GetByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPeriodNotFound
		}
		s.logger.Error("查询区间失败", zap.String("period_id", periodID), zap.Error(err))
		return 0, err
	}
	if !period.IsActive {
		return 0, ErrPeriodInactive
	}

	entries, err := s.repo.Entry.ListByTemplate(ctx, period.TemplateID)
	if err != nil {
		s.logger.Error("查询模板课位失败", zap.String("template_id", period.TemplateID), zap.Error(err))
		return 0, err
	}
	if len(entries) == 0 {
		return 0, ErrNoEntriesToApply
	}

	// 按星期几索引课位，逐日匹配时 O(1) 查表
	byWeekday := make(map[time.Weekday][]*model.ScheduleTemplateEntry)
	for i := range entries {
		wd, ok := entries[i].Weekday()
		if !ok {
			s.logger.Error("课位 day_of_week 非法",
				zap.String("entry_id", entries[i].EntryID),
				zap.String("day_of_week", entries[i].DayOfWeek))
			return 0, ErrEntryDayInvalid
		}
		byWeekday[wd] = append(byWeekday[wd], &entries[i])
	}

	start := model.DateOnly(period.StartDate)
	end := model.DateOnly(period.EndDate)

	// 幂等去重集合；force 模式下跳过检查，先清场再全量重建
	existing := make(map[string]struct{})
	if force {
		removed, err := s.repo.Instance.DeleteByDateRange(ctx, start, end)
		if err != nil {
			s.logger.Error("强制清理实例失败", zap.Error(err))
			return 0, err
		}
		s.logger.Warn("强制重建：已删除日期区间内全部实例",
			zap.String("period_id", periodID),
			zap.Int64("removed", removed))
	} else {
		current, err := s.repo.Instance.ListByDateRange(ctx, start, end)
		if err != nil {
			s.logger.Error("查询已有实例失败", zap.Error(err))
			return 0, err
		}
		for i := range current {
			existing[current[i].SlotKey()] = struct{}{}
		}
	}

	var toCreate []model.LiveScheduleInstance
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		for _, entry := range byWeekday[date.Weekday()] {
			instance := model.LiveScheduleInstance{
				TemplateEntryID: &entry.EntryID,
				PeriodID:        period.PeriodID,
				ClassDate:       date,
				StartTime:       entry.StartTime,
				DurationMin:     entry.DurationMin,
				ClassName:       entry.ClassName,
				SessionType:     entry.SessionType,
				MaxParticipants: entry.MaxParticipants,
			}
			if _, dup := existing[instance.SlotKey()]; dup {
				continue
			}
			toCreate = append(toCreate, instance)
		}
	}

	if err := s.repo.Instance.BatchCreate(ctx, toCreate, s.cfg.Booking.GenerateBatch); err != nil {
		s.logger.Error("批量写入实例失败", zap.Int("count", len(toCreate)), zap.Error(err))
		return 0, err
	}

	s.logger.Info("课程实例生成完成",
		zap.String("period_id", periodID),
		zap.Bool("force", force),
		zap.Int("created", len(toCreate)))
	if len(toCreate) > 0 || force {
		s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "live_schedule_instances", Op: "insert", ID: periodID})
	}
	return len(toCreate), nil
}

// CleanupOrphaned 清理所属区间已停用/软删除的孤儿实例
// 由夜间定时任务触发，也可由管理员手工调用
func (s *generatorService) CleanupOrphaned(ctx context.Context) (int, error) {
	removed, err := s.repo.Instance.DeleteOrphaned(ctx)
	if err != nil {
		s.logger.Error("孤儿实例清理失败", zap.Error(err))
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("孤儿实例清理完成", zap.Int64("removed", removed))
		s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "live_schedule_instances", Op: "delete", ID: ""})
	}
	return int(removed), nil
}
