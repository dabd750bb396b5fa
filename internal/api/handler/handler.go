package handler

import (
	"fitpulse/backend/internal/service"
	"fitpulse/backend/pkg/redis"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Template *TemplateHandler
	Period   *PeriodHandler
	Instance *InstanceHandler
	Booking  *BookingHandler
	Schedule *ScheduleHandler
	Export   *ExportHandler
	Events   *EventsHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, rdb *redis.Client) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		User:     NewUserHandler(svc.User),
		Template: NewTemplateHandler(svc.Template),
		Period:   NewPeriodHandler(svc.Period, svc.Generator),
		Instance: NewInstanceHandler(svc.Instance),
		Booking:  NewBookingHandler(svc.Booking),
		Schedule: NewScheduleHandler(svc.Schedule),
		Export:   NewExportHandler(svc.Export, svc.Calendar),
		Events:   NewEventsHandler(rdb),
	}
}
