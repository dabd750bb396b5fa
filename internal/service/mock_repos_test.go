package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
	pkgerrors "fitpulse/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock ScheduleTemplateRepository ──

type mockTemplateRepo struct {
	templates map[string]*model.ScheduleTemplate
	entryRepo *mockEntryRepo // GetByID 时联动预载课位
}

func newMockTemplateRepo(entryRepo *mockEntryRepo) *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*model.ScheduleTemplate), entryRepo: entryRepo}
}

func (m *mockTemplateRepo) Create(_ context.Context, template *model.ScheduleTemplate) error {
	if template.TemplateID == "" {
		template.TemplateID = "tpl-" + template.Name
	}
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()
	m.templates[template.TemplateID] = template
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*model.ScheduleTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if m.entryRepo != nil {
		entries, _ := m.entryRepo.ListByTemplate(ctx, id)
		t.Entries = entries
	}
	return t, nil
}

func (m *mockTemplateRepo) List(_ context.Context, onlyActive bool) ([]model.ScheduleTemplate, error) {
	var result []model.ScheduleTemplate
	for _, t := range m.templates {
		if onlyActive && !t.IsActive {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTemplateRepo) Update(_ context.Context, template *model.ScheduleTemplate) error {
	m.templates[template.TemplateID] = template
	return nil
}

func (m *mockTemplateRepo) Deactivate(_ context.Context, id string, _ string) error {
	if t, ok := m.templates[id]; ok {
		t.IsActive = false
	}
	return nil
}

// ── Mock TemplateEntryRepository ──

type mockEntryRepo struct {
	entries map[string]*model.ScheduleTemplateEntry
	nextID  int
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[string]*model.ScheduleTemplateEntry)}
}

func (m *mockEntryRepo) Create(_ context.Context, entry *model.ScheduleTemplateEntry) error {
	if entry.EntryID == "" {
		m.nextID++
		entry.EntryID = fmt.Sprintf("entry-%03d", m.nextID)
	}
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, id string) (*model.ScheduleTemplateEntry, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEntryRepo) ListByTemplate(_ context.Context, templateID string) ([]model.ScheduleTemplateEntry, error) {
	var result []model.ScheduleTemplateEntry
	for _, e := range m.entries {
		if e.TemplateID == templateID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryID < result[j].EntryID })
	return result, nil
}

func (m *mockEntryRepo) Update(_ context.Context, entry *model.ScheduleTemplateEntry) error {
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockEntryRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.entries, id)
	return nil
}

// ── Mock SchedulePeriodRepository ──

type mockPeriodRepo struct {
	periods map[string]*model.SchedulePeriod
	nextID  int
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]*model.SchedulePeriod)}
}

func (m *mockPeriodRepo) Create(_ context.Context, period *model.SchedulePeriod) error {
	if period.PeriodID == "" {
		m.nextID++
		period.PeriodID = fmt.Sprintf("period-%03d", m.nextID)
	}
	period.CreatedAt = time.Now()
	m.periods[period.PeriodID] = period
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.SchedulePeriod, error) {
	if p, ok := m.periods[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) List(_ context.Context, onlyActive bool) ([]model.SchedulePeriod, error) {
	var result []model.SchedulePeriod
	for _, p := range m.periods {
		if onlyActive && !p.IsActive {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPeriodRepo) ListActiveOverlapping(_ context.Context, start, end time.Time) ([]model.SchedulePeriod, error) {
	var result []model.SchedulePeriod
	for _, p := range m.periods {
		if p.IsActive && p.Overlaps(start, end) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) FindActiveCovering(_ context.Context, date time.Time) (*model.SchedulePeriod, error) {
	for _, p := range m.periods {
		if p.IsActive && p.Covers(date) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) Update(_ context.Context, period *model.SchedulePeriod) error {
	m.periods[period.PeriodID] = period
	return nil
}

func (m *mockPeriodRepo) Deactivate(_ context.Context, id string, _ string) error {
	if p, ok := m.periods[id]; ok {
		p.IsActive = false
	}
	return nil
}

// ── Mock LiveInstanceRepository ──

type mockInstanceRepo struct {
	instances     map[string]*model.LiveScheduleInstance
	orphanPeriods map[string]bool // DeleteOrphaned 视为已停用的区间
	nextID        int
}

func newMockInstanceRepo() *mockInstanceRepo {
	return &mockInstanceRepo{
		instances:     make(map[string]*model.LiveScheduleInstance),
		orphanPeriods: make(map[string]bool),
	}
}

func (m *mockInstanceRepo) BatchCreate(ctx context.Context, instances []model.LiveScheduleInstance, _ int) error {
	for i := range instances {
		if err := m.Create(ctx, &instances[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockInstanceRepo) Create(_ context.Context, instance *model.LiveScheduleInstance) error {
	for _, existing := range m.instances {
		if existing.SlotKey() == instance.SlotKey() {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if instance.InstanceID == "" {
		m.nextID++
		instance.InstanceID = fmt.Sprintf("inst-%03d", m.nextID)
	}
	m.instances[instance.InstanceID] = instance
	return nil
}

func (m *mockInstanceRepo) GetByID(_ context.Context, id string) (*model.LiveScheduleInstance, error) {
	if i, ok := m.instances[id]; ok {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstanceRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.LiveScheduleInstance, error) {
	var result []model.LiveScheduleInstance
	for _, i := range m.instances {
		d := model.DateOnly(i.ClassDate)
		if !d.Before(model.DateOnly(from)) && !d.After(model.DateOnly(to)) {
			result = append(result, *i)
		}
	}
	sortInstances(result)
	return result, nil
}

func (m *mockInstanceRepo) ListByPeriod(_ context.Context, periodID string) ([]model.LiveScheduleInstance, error) {
	var result []model.LiveScheduleInstance
	for _, i := range m.instances {
		if i.PeriodID == periodID {
			result = append(result, *i)
		}
	}
	sortInstances(result)
	return result, nil
}

func (m *mockInstanceRepo) ListFromDate(_ context.Context, from time.Time) ([]model.LiveScheduleInstance, error) {
	var result []model.LiveScheduleInstance
	for _, i := range m.instances {
		if !model.DateOnly(i.ClassDate).Before(model.DateOnly(from)) {
			result = append(result, *i)
		}
	}
	sortInstances(result)
	return result, nil
}

func (m *mockInstanceRepo) Update(_ context.Context, instance *model.LiveScheduleInstance) error {
	if _, ok := m.instances[instance.InstanceID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.instances[instance.InstanceID] = instance
	return nil
}

func (m *mockInstanceRepo) DeleteByPeriod(_ context.Context, periodID string) (int64, error) {
	var removed int64
	for id, i := range m.instances {
		if i.PeriodID == periodID {
			delete(m.instances, id)
			removed++
		}
	}
	return removed, nil
}

func (m *mockInstanceRepo) DeleteByDateRange(_ context.Context, from, to time.Time) (int64, error) {
	var removed int64
	for id, i := range m.instances {
		d := model.DateOnly(i.ClassDate)
		if !d.Before(model.DateOnly(from)) && !d.After(model.DateOnly(to)) {
			delete(m.instances, id)
			removed++
		}
	}
	return removed, nil
}

func (m *mockInstanceRepo) DeleteOrphaned(_ context.Context) (int64, error) {
	// 测试中通过 orphanPeriods 标记哪些区间视为已停用
	var removed int64
	for id, i := range m.instances {
		if m.orphanPeriods[i.PeriodID] {
			delete(m.instances, id)
			removed++
		}
	}
	return removed, nil
}

func sortInstances(list []model.LiveScheduleInstance) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ClassDate.Equal(list[j].ClassDate) {
			return list[i].ClassDate.Before(list[j].ClassDate)
		}
		return list[i].StartTime < list[j].StartTime
	})
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings     map[string]*model.Booking
	instanceRepo *mockInstanceRepo // CreateGuarded 需要读实例容量
	nextID       int
}

func newMockBookingRepo(instanceRepo *mockInstanceRepo) *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking), instanceRepo: instanceRepo}
}

func (m *mockBookingRepo) CreateGuarded(ctx context.Context, booking *model.Booking) error {
	instance, err := m.instanceRepo.GetByID(ctx, booking.ScheduleEntryID)
	if err != nil {
		return err
	}

	var count int64
	for _, b := range m.bookings {
		if b.ScheduleEntryID == booking.ScheduleEntryID {
			count++
		}
		if b.UserID == booking.UserID && b.ScheduleEntryID == booking.ScheduleEntryID {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if count >= int64(instance.MaxParticipants) {
		return repository.ErrCapacityExceeded
	}

	m.nextID++
	booking.BookingID = fmt.Sprintf("bk-%03d", m.nextID)
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if instance, err := m.instanceRepo.GetByID(ctx, b.ScheduleEntryID); err == nil {
		b.Instance = instance
	}
	return b, nil
}

func (m *mockBookingRepo) GetByUserAndInstance(_ context.Context, userID, instanceID string) (*model.Booking, error) {
	for _, b := range m.bookings {
		if b.UserID == userID && b.ScheduleEntryID == instanceID {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.UserID != userID {
			continue
		}
		cp := *b
		if instance, err := m.instanceRepo.GetByID(ctx, b.ScheduleEntryID); err == nil {
			cp.Instance = instance
		}
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockBookingRepo) CountByInstance(_ context.Context, instanceID string) (int64, error) {
	var count int64
	for _, b := range m.bookings {
		if b.ScheduleEntryID == instanceID {
			count++
		}
	}
	return count, nil
}

func (m *mockBookingRepo) CountByInstances(_ context.Context, instanceIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(instanceIDs))
	idSet := make(map[string]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		idSet[id] = true
	}
	for _, b := range m.bookings {
		if idSet[b.ScheduleEntryID] {
			counts[b.ScheduleEntryID]++
		}
	}
	return counts, nil
}

func (m *mockBookingRepo) CountByUserSince(_ context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	for _, b := range m.bookings {
		if b.UserID == userID && !b.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *mockBookingRepo) Delete(_ context.Context, id string) error {
	delete(m.bookings, id)
	return nil
}
