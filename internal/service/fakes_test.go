package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// fakeComplaintRepo is an in-memory stand-in for the Postgres repository.
// It mirrors the optimistic status check: UpdateStatusWithHistory fails
// with pgx.ErrNoRows when the stored status no longer matches.
type fakeComplaintRepo struct {
	mu         sync.Mutex
	seq        int
	complaints map[string]domain.Complaint
	history    map[string][]domain.StatusHistory
	takenCodes map[string]bool
	feed       []domain.FeedItem

	// codeCollisions makes the next N TrackingCodeExists calls report a
	// collision regardless of the probed code.
	codeCollisions int

	// afterGet, when set, runs once after the next GetByID. Used to splice
	// a competing write between a caller's read and its update.
	afterGet func()
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{
		complaints: make(map[string]domain.Complaint),
		history:    make(map[string][]domain.StatusHistory),
		takenCodes: make(map[string]bool),
	}
}

func (f *fakeComplaintRepo) CreateWithHistory(ctx context.Context, complaint *domain.Complaint, history *domain.StatusHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	now := time.Now()
	complaint.ID = fmt.Sprintf("c-%d", f.seq)
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	f.complaints[complaint.ID] = *complaint

	history.ComplaintID = complaint.ID
	history.CreatedAt = now
	f.history[complaint.ID] = append(f.history[complaint.ID], *history)
	return nil
}

func (f *fakeComplaintRepo) UpdateStatusWithHistory(ctx context.Context, complaint *domain.Complaint, from domain.ComplaintStatus, history *domain.StatusHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.complaints[complaint.ID]
	if !ok || stored.Status != from {
		return pgx.ErrNoRows
	}
	complaint.UpdatedAt = time.Now()
	f.complaints[complaint.ID] = *complaint

	history.ComplaintID = complaint.ID
	history.CreatedAt = complaint.UpdatedAt
	f.history[complaint.ID] = append(f.history[complaint.ID], *history)
	return nil
}

func (f *fakeComplaintRepo) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	f.mu.Lock()
	stored, ok := f.complaints[id]
	hook := f.afterGet
	f.afterGet = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeComplaintRepo) GetByTrackingCode(ctx context.Context, code string) (*domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.complaints {
		if stored.TrackingCode == code {
			result := stored
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeComplaintRepo) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codeCollisions > 0 {
		f.codeCollisions--
		return true, nil
	}
	if f.takenCodes[code] {
		return true, nil
	}
	for _, stored := range f.complaints {
		if stored.TrackingCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeComplaintRepo) ListWithFilter(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]domain.Complaint, 0)
	for _, stored := range f.complaints {
		if filter.CitizenID != nil && stored.CitizenID != *filter.CitizenID {
			continue
		}
		if len(filter.DepartmentIDs) > 0 {
			if stored.DepartmentID == nil || !containsString(filter.DepartmentIDs, *stored.DepartmentID) {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		result = append(result, stored)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (f *fakeComplaintRepo) GetTrackingView(ctx context.Context, code string) (*domain.TrackingView, error) {
	stored, err := f.GetByTrackingCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &domain.TrackingView{
		TrackingCode: stored.TrackingCode,
		Status:       stored.Status,
	}, nil
}

func (f *fakeComplaintRepo) ListResolvedFeed(ctx context.Context, limit, offset int) ([]domain.FeedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.feed) {
		return []domain.FeedItem{}, nil
	}
	end := offset + limit
	if end > len(f.feed) {
		end = len(f.feed)
	}
	return append([]domain.FeedItem{}, f.feed[offset:end]...), nil
}

// ListByComplaint lets the same fake double as the history repository.
func (f *fakeComplaintRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StatusHistory{}, f.history[complaintID]...), nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stored, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, stored := range f.users {
		if stored.Email == email {
			result := stored
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeCategoryRepo struct {
	categories map[string]domain.Category
}

func newFakeCategoryRepo(categories ...domain.Category) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{categories: make(map[string]domain.Category)}
	for _, category := range categories {
		repo.categories[category.ID] = category
	}
	return repo
}

func (f *fakeCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	stored, ok := f.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeCategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	result := make([]domain.Category, 0)
	for _, stored := range f.categories {
		if stored.IsActive {
			result = append(result, stored)
		}
	}
	return result, nil
}

type fakeDepartmentRepo struct {
	departments map[string]domain.Department
}

func newFakeDepartmentRepo(departments ...domain.Department) *fakeDepartmentRepo {
	repo := &fakeDepartmentRepo{departments: make(map[string]domain.Department)}
	for _, department := range departments {
		repo.departments[department.ID] = department
	}
	return repo
}

func (f *fakeDepartmentRepo) Create(ctx context.Context, dept *domain.Department) error {
	f.departments[dept.ID] = *dept
	return nil
}

func (f *fakeDepartmentRepo) Update(ctx context.Context, dept *domain.Department) error {
	if _, ok := f.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.departments[dept.ID] = *dept
	return nil
}

func (f *fakeDepartmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	stored, ok := f.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeDepartmentRepo) ListActive(ctx context.Context) ([]domain.Department, error) {
	result := make([]domain.Department, 0)
	for _, stored := range f.departments {
		if stored.IsActive {
			result = append(result, stored)
		}
	}
	return result, nil
}

type fakeMemberRepo struct {
	departments *fakeDepartmentRepo
	members     map[string]domain.DepartmentMember
	seq         int
}

func newFakeMemberRepo(departments *fakeDepartmentRepo) *fakeMemberRepo {
	return &fakeMemberRepo{
		departments: departments,
		members:     make(map[string]domain.DepartmentMember),
	}
}

func memberKey(departmentID, userID string) string {
	return departmentID + "|" + userID
}

func (f *fakeMemberRepo) Upsert(ctx context.Context, member *domain.DepartmentMember) error {
	key := memberKey(member.DepartmentID, member.UserID)
	now := time.Now()
	if existing, ok := f.members[key]; ok {
		existing.MemberRole = member.MemberRole
		existing.Active = true
		existing.UpdatedAt = now
		f.members[key] = existing
		*member = existing
		return nil
	}
	f.seq++
	member.ID = fmt.Sprintf("m-%d", f.seq)
	member.Active = true
	member.CreatedAt = now
	member.UpdatedAt = now
	f.members[key] = *member
	return nil
}

func (f *fakeMemberRepo) Deactivate(ctx context.Context, departmentID, userID string) error {
	key := memberKey(departmentID, userID)
	existing, ok := f.members[key]
	if !ok || !existing.Active {
		return pgx.ErrNoRows
	}
	existing.Active = false
	existing.UpdatedAt = time.Now()
	f.members[key] = existing
	return nil
}

func (f *fakeMemberRepo) GetActive(ctx context.Context, departmentID, userID string) (*domain.DepartmentMember, error) {
	existing, ok := f.members[memberKey(departmentID, userID)]
	if !ok || !existing.Active {
		return nil, pgx.ErrNoRows
	}
	result := existing
	return &result, nil
}

func (f *fakeMemberRepo) ListByDepartment(ctx context.Context, departmentID string) ([]domain.DepartmentMember, error) {
	result := make([]domain.DepartmentMember, 0)
	for _, stored := range f.members {
		if stored.DepartmentID == departmentID {
			result = append(result, stored)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeMemberRepo) ListActiveDepartmentIDs(ctx context.Context, userID string) ([]string, error) {
	result := make([]string, 0)
	for _, stored := range f.members {
		if stored.UserID != userID || !stored.Active {
			continue
		}
		if f.departments != nil {
			department, err := f.departments.GetByID(ctx, stored.DepartmentID)
			if err != nil || !department.IsActive {
				continue
			}
		}
		result = append(result, stored.DepartmentID)
	}
	sort.Strings(result)
	return result, nil
}

type fakeRatingRepo struct {
	ratings map[string]domain.Rating
	seq     int
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: make(map[string]domain.Rating)}
}

func (f *fakeRatingRepo) Upsert(ctx context.Context, rating *domain.Rating) error {
	key := rating.ComplaintID + "|" + rating.CitizenID
	now := time.Now()
	if existing, ok := f.ratings[key]; ok {
		existing.Stars = rating.Stars
		existing.Comment = rating.Comment
		existing.UpdatedAt = now
		f.ratings[key] = existing
		*rating = existing
		return nil
	}
	f.seq++
	rating.ID = fmt.Sprintf("r-%d", f.seq)
	rating.CreatedAt = now
	rating.UpdatedAt = now
	f.ratings[key] = *rating
	return nil
}

func (f *fakeRatingRepo) GetAggregate(ctx context.Context, complaintID string) (*domain.RatingAggregate, error) {
	total, count := 0, 0
	for _, stored := range f.ratings {
		if stored.ComplaintID == complaintID {
			total += stored.Stars
			count++
		}
	}
	aggregate := &domain.RatingAggregate{Count: count}
	if count > 0 {
		aggregate.Average = float64(total) / float64(count)
	}
	return aggregate, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
	createErr     error
	seq           int
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	notification.ID = fmt.Sprintf("n-%d", f.seq)
	notification.CreatedAt = time.Now()
	f.notifications = append(f.notifications, *notification)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]domain.Notification, 0)
	for i := len(f.notifications) - 1; i >= 0; i-- {
		if f.notifications[i].UserID == userID {
			result = append(result, f.notifications[i])
		}
	}
	if offset >= len(result) {
		return []domain.Notification{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

// capturingDispatcher records published events synchronously.
type capturingDispatcher struct {
	mu         sync.Mutex
	published  []events.Event
	publishErr error
}

func (d *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.publishErr != nil {
		return d.publishErr
	}
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *capturingDispatcher) events() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.published...)
}

func containsString(values []string, needle string) bool {
	for _, value := range values {
		if value == needle {
			return true
		}
	}
	return false
}

func containsStatus(values []domain.ComplaintStatus, needle domain.ComplaintStatus) bool {
	for _, value := range values {
		if value == needle {
			return true
		}
	}
	return false
}
