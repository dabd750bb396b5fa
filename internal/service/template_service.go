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

// ── 模板模块业务错误 ──

var (
	ErrTemplateNotFound  = errors.New("课表模板不存在")
	ErrEntryNotFound     = errors.New("模板课位不存在")
	ErrEntryTimeInvalid  = errors.New("课位开始时间格式非法，应为 HH:MM")
	ErrTemplateNotActive = errors.New("课表模板已停用")
)

// TemplateService 周课表模板业务接口（管理端）
//
// 模板/课位的增删改不会回溯影响已生成的课程实例；
// 实例是生成时刻的物化快照，调整排期须走区间重新生成
type TemplateService interface {
	Create(ctx context.Context, req *dto.CreateTemplateRequest, callerID string) (*dto.TemplateResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error)
	List(ctx context.Context, onlyActive bool) ([]dto.TemplateResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTemplateRequest, callerID string) (*dto.TemplateResponse, error)
	Deactivate(ctx context.Context, id string, callerID string) error

	AddEntry(ctx context.Context, templateID string, req *dto.CreateEntryRequest, callerID string) (*dto.EntryResponse, error)
	UpdateEntry(ctx context.Context, entryID string, req *dto.UpdateEntryRequest, callerID string) (*dto.EntryResponse, error)
	DeleteEntry(ctx context.Context, entryID string, callerID string) error
}

type templateService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewTemplateService 创建 TemplateService 实例
func NewTemplateService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, rdb: rdb, logger: logger}
}

func (s *templateService) Create(ctx context.Context, req *dto.CreateTemplateRequest, callerID string) (*dto.TemplateResponse, error) {
	template := &model.ScheduleTemplate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	template.CreatedBy = &callerID
	template.UpdatedBy = &callerID

	if err := s.repo.Template.Create(ctx, template); err != nil {
		s.logger.Error("创建模板失败", zap.Error(err))
		return nil, err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_templates", Op: "insert", ID: template.TemplateID})
	return s.toTemplateResponse(template), nil
}

func (s *templateService) GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	template, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toTemplateResponse(template), nil
}

func (s *templateService) List(ctx context.Context, onlyActive bool) ([]dto.TemplateResponse, error) {
	templates, err := s.repo.Template.List(ctx, onlyActive)
	if err != nil {
		s.logger.Error("查询模板列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TemplateResponse, 0, len(templates))
	for i := range templates {
		result = append(result, *s.toTemplateResponse(&templates[i]))
	}
	return result, nil
}

func (s *templateService) Update(ctx context.Context, id string, req *dto.UpdateTemplateRequest, callerID string) (*dto.TemplateResponse, error) {
	template, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	template.UpdatedBy = &callerID

	if err := s.repo.Template.Update(ctx, template); err != nil {
		s.logger.Error("更新模板失败", zap.Error(err))
		return nil, err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_templates", Op: "update", ID: template.TemplateID})
	return s.toTemplateResponse(template), nil
}

func (s *templateService) Deactivate(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Template.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Template.Deactivate(ctx, id, callerID); err != nil {
		s.logger.Error("停用模板失败", zap.Error(err))
		return err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_templates", Op: "delete", ID: id})
	return nil
}

// ────────────────────── 课位条目 ──────────────────────

func (s *templateService) AddEntry(ctx context.Context, templateID string, req *dto.CreateEntryRequest, callerID string) (*dto.EntryResponse, error) {
	template, err := s.repo.Template.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", templateID), zap.Error(err))
		return nil, err
	}
	if !template.IsActive {
		return nil, ErrTemplateNotActive
	}

	if !validClockTime(req.StartTime) {
		return nil, ErrEntryTimeInvalid
	}

	entry := &model.ScheduleTemplateEntry{
		TemplateID:      templateID,
		DayOfWeek:       req.DayOfWeek,
		StartTime:       req.StartTime,
		DurationMin:     req.DurationMin,
		ClassName:       req.ClassName,
		SessionType:     req.SessionType,
		MaxParticipants: req.MaxParticipants,
	}
	entry.CreatedBy = &callerID
	entry.UpdatedBy = &callerID

	if err := s.repo.Entry.Create(ctx, entry); err != nil {
		s.logger.Error("创建课位失败", zap.Error(err))
		return nil, err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_template_entries", Op: "insert", ID: entry.EntryID})
	resp := toEntryResponse(entry)
	return &resp, nil
}

func (s *templateService) UpdateEntry(ctx context.Context, entryID string, req *dto.UpdateEntryRequest, callerID string) (*dto.EntryResponse, error) {
	entry, err := s.repo.Entry.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		s.logger.Error("查询课位失败", zap.String("id", entryID), zap.Error(err))
		return nil, err
	}

	if req.DayOfWeek != nil {
		entry.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		if !validClockTime(*req.StartTime) {
			return nil, ErrEntryTimeInvalid
		}
		entry.StartTime = *req.StartTime
	}
	if req.DurationMin != nil {
		entry.DurationMin = *req.DurationMin
	}
	if req.ClassName != nil {
		entry.ClassName = *req.ClassName
	}
	if req.SessionType != nil {
		entry.SessionType = *req.SessionType
	}
	if req.MaxParticipants != nil {
		entry.MaxParticipants = *req.MaxParticipants
	}
	entry.UpdatedBy = &callerID

	if err := s.repo.Entry.Update(ctx, entry); err != nil {
		s.logger.Error("更新课位失败", zap.Error(err))
		return nil, err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_template_entries", Op: "update", ID: entry.EntryID})
	resp := toEntryResponse(entry)
	return &resp, nil
}

func (s *templateService) DeleteEntry(ctx context.Context, entryID string, callerID string) error {
	if _, err := s.repo.Entry.GetByID(ctx, entryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		s.logger.Error("查询课位失败", zap.String("id", entryID), zap.Error(err))
		return err
	}

	if err := s.repo.Entry.Delete(ctx, entryID, callerID); err != nil {
		s.logger.Error("删除课位失败", zap.Error(err))
		return err
	}

	s.rdb.PublishChange(ctx, redis.ChangeEvent{Collection: "schedule_template_entries", Op: "delete", ID: entryID})
	return nil
}

// ────────────────────── 转换辅助 ──────────────────────

func (s *templateService) toTemplateResponse(t *model.ScheduleTemplate) *dto.TemplateResponse {
	entries := make([]dto.EntryResponse, 0, len(t.Entries))
	for i := range t.Entries {
		entries = append(entries, toEntryResponse(&t.Entries[i]))
	}
	return &dto.TemplateResponse{
		ID:          t.TemplateID,
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		Entries:     entries,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func toEntryResponse(e *model.ScheduleTemplateEntry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:              e.EntryID,
		TemplateID:      e.TemplateID,
		DayOfWeek:       e.DayOfWeek,
		StartTime:       e.StartTime,
		DurationMin:     e.DurationMin,
		ClassName:       e.ClassName,
		SessionType:     e.SessionType,
		MaxParticipants: e.MaxParticipants,
	}
}

// validClockTime 校验 "HH:MM" 并确保落在一天之内
func validClockTime(s string) bool {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return false
	}
	return t.Format("15:04") == s
}
