package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fitpulse/backend/internal/dto"
	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
	"fitpulse/backend/pkg/redis"
)

// ── 生效区间模块业务错误 ──

var (
	ErrPeriodDateInvalid  = errors.New("日期格式非法，应为 YYYY-MM-DD")
	ErrPeriodRangeInvalid = errors.New("end_date 不能早于 start_date")
	ErrPeriodOverlap      = errors.New("与已有活跃区间重叠")
)

// PeriodService 模板生效区间业务接口（管理端）
//
// 创建区间即同步生成课程实例；停用区间级联物理删除其实例
// （外键 ON DELETE CASCADE 连带清理预约）
type PeriodService interface {
	Create(ctx context.Context, req *dto.CreatePeriodRequest, callerID string) (*dto.PeriodResponse, int, error)
	GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error)
	List(ctx context.Context, onlyActive bool) ([]dto.PeriodResponse, error)
	Deactivate(ctx context.Context, id string, callerID string) (int, error)
}

type periodService struct {
	repo      *repository.Repository
	generator GeneratorService
	rdb       *redis.Client
	logger    *zap.Logger
}

// NewPeriodService 创建 PeriodService 实例
func NewPeriodService(repo *repository.Repository, generator GeneratorService, rdb *redis.Client, logger *zap.Logger) PeriodService {
	return &periodService{repo: repo, generator: generator, rdb: rdb, logger: logger}
}

// Create 创建生效区间并同步生成课程实例，返回区间与生成数量
func (s *periodService) Create(ctx context.Context, req *dto.CreatePeriodRequest, callerID string) (*dto.PeriodResponse, int, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, 0, ErrPeriodDateInvalid
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, 0, ErrPeriodDateInvalid
	}
	if end.Before(start) {
		return nil, 0, ErrPeriodRangeInvalid
	}

	template, err := s.repo.Template.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("template_id", req.TemplateID), zap.Error(err))
		return nil, 0, err
	}
	if !template.IsActive {
		return nil, 0, ErrTemplateNotActive
	}

	// 重叠拦截：同一天只允许被一个活跃区间覆盖，否则生成结果不可预测
	overlapping, err := s.repo.Period.ListActiveOverlapping(ctx, start, end)
	if err != nil {
		s.logger.Error("查询重叠区间失败", zap.Error(err))
		return nil, 0, err
	}
	if len(overlapping) > 0 {
		return nil, 0, ErrPeriodOverlap
	}

	period := &model.SchedulePeriod{
		TemplateID: req.TemplateID,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
	period.CreatedBy = &callerID
	period.UpdatedBy = &callerID

	if err := s.repo.Period.Create(ctx, period); err != nil {
		s.logger.Error("创建区间失败", zap.Error(err))
		return nil, 0, err
	}

	// 创建即生成：区间落库后同步物化实例，失败时保留区间供手工重新生成
	created, err := s.generator.Generate(ctx, period.PeriodID, false)
	if err != nil && !errors.Is(err, ErrNoEntriesToApply) {
		s.logger.Error("区间创建后生成实例失败",
			zap.String("period_id", period.PeriodID), zap.Error(err))
		return nil, 0, err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_periods", Op: "insert", ID: period.PeriodID})
	period.Template = template
	return toPeriodResponse(period), created, nil
}

func (s *periodService) GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error) {
	period, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("查询区间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toPeriodResponse(period), nil
}

func (s *periodService) List(ctx context.Context, onlyActive bool) ([]dto.PeriodResponse, error) {
	periods, err := s.repo.Period.List(ctx, onlyActive)
	if err != nil {
		s.logger.Error("查询区间列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PeriodResponse, 0, len(periods))
	for i := range periods {
		result = append(result, *toPeriodResponse(&periods[i]))
	}
	return result, nil
}

// Deactivate 停用区间并级联删除其生成的课程实例，返回删除数量
func (s *periodService) Deactivate(ctx context.Context, id string, callerID string) (int, error) {
	if _, err := s.repo.Period.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPeriodNotFound
		}
		s.logger.Error("查询区间失败", zap.String("id", id), zap.Error(err))
		return 0, err
	}

	if err := s.repo.Period.Deactivate(ctx, id, callerID); err != nil {
		s.logger.Error("停用区间失败", zap.Error(err))
		return 0, err
	}

	removed, err := s.repo.Instance.DeleteByPeriod(ctx, id)
	if err != nil {
		s.logger.Error("级联删除实例失败", zap.String("period_id", id), zap.Error(err))
		return 0, err
	}

	s.logger.Info("区间已停用", zap.String("period_id", id), zap.Int64("instances_removed", removed))
	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_periods", Op: "delete", ID: id})
	return int(removed), nil
}

// ────────────────────── 转换辅助 ──────────────────────

func toPeriodResponse(p *model.SchedulePeriod) *dto.PeriodResponse {
	resp := &dto.PeriodResponse{
		ID:         p.PeriodID,
		TemplateID: p.TemplateID,
		StartDate:  p.StartDate.Format("2006-01-02"),
		EndDate:    p.EndDate.Format("2006-01-02"),
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
	if p.Template != nil {
		resp.TemplateName = p.Template.Name
	}
	return resp
}

// parseDate 解析 "YYYY-MM-DD" 日期
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
