package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User     UserRepository
	Template ScheduleTemplateRepository
	Entry    TemplateEntryRepository
	Period   SchedulePeriodRepository
	Instance LiveInstanceRepository
	Booking  BookingRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:     NewUserRepo(db),
		Template: NewScheduleTemplateRepo(db),
		Entry:    NewTemplateEntryRepo(db),
		Period:   NewSchedulePeriodRepo(db),
		Instance: NewLiveInstanceRepo(db),
		Booking:  NewBookingRepo(db),
	}
}
