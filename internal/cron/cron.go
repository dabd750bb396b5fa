package cron

import (
	"context"
	"time"

	robfigcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fitpulse/backend/internal/service"
)

// 孤儿实例清理的调度表达式：每天 03:30（低峰期）
const orphanCleanupSchedule = "30 3 * * *"

// Scheduler 后台定时任务调度器
//
// 区间停用时 Service 层已做同步级联清理，夜间任务兜底处理
// 级联失败或历史数据遗留的孤儿实例
type Scheduler struct {
	cron   *robfigcron.Cron
	svc    *service.Service
	logger *zap.Logger
}

// NewScheduler 创建调度器并注册全部任务
func NewScheduler(svc *service.Service, logger *zap.Logger) (*Scheduler, error) {
	c := robfigcron.New(robfigcron.WithChain(robfigcron.SkipIfStillRunning(robfigcron.DefaultLogger)))
	s := &Scheduler{cron: c, svc: svc, logger: logger}

	if _, err := c.AddFunc(orphanCleanupSchedule, s.runOrphanCleanup); err != nil {
		return nil, err
	}
	return s, nil
}

// Start 启动调度器（非阻塞）
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时任务调度器已启动", zap.String("orphan_cleanup", orphanCleanupSchedule))
}

// Stop 停止调度器，等待执行中的任务完成
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时任务调度器已停止")
}

func (s *Scheduler) runOrphanCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	count, err := s.svc.Generator.CleanupOrphaned(ctx)
	if err != nil {
		s.logger.Error("夜间孤儿实例清理失败", zap.Error(err))
		return
	}
	s.logger.Info("夜间孤儿实例清理完成", zap.Int("cleaned", count))
}
