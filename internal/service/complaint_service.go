package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const trackingCodeAttempts = 5

// ComplaintService coordinates the complaint lifecycle: creation, status
// transitions, citizen/staff reads and outcome ratings.
type ComplaintService struct {
	complaints  repository.ComplaintRepository
	history     repository.StatusHistoryRepository
	users       repository.UserRepository
	categories  repository.CategoryRepository
	departments repository.DepartmentRepository
	members     repository.DepartmentMemberRepository
	ratings     repository.RatingRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// ComplaintDependencies bundles repositories for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo  repository.ComplaintRepository
	HistoryRepo    repository.StatusHistoryRepository
	UserRepo       repository.UserRepository
	CategoryRepo   repository.CategoryRepository
	DepartmentRepo repository.DepartmentRepository
	MemberRepo     repository.DepartmentMemberRepository
	RatingRepo     repository.RatingRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Latitude    *float64
	Longitude   *float64
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		complaints:  deps.ComplaintRepo,
		history:     deps.HistoryRepo,
		users:       deps.UserRepo,
		categories:  deps.CategoryRepo,
		departments: deps.DepartmentRepo,
		members:     deps.MemberRepo,
		ratings:     deps.RatingRepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// CreateComplaint files a new complaint for a citizen, routing it to the
// category's default department.
func (s *ComplaintService) CreateComplaint(ctx context.Context, citizenID string, input ComplaintCreateInput) (*domain.Complaint, error) {
	if _, err := s.users.GetByID(ctx, citizenID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("citizen", map[string]any{"user_id": citizenID})
		}
		return nil, apperrors.MapError(err)
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewConflict("CATEGORY_NOT_ACTIVE", "category is not active", map[string]any{"category_id": category.ID})
	}
	if category.DefaultDepartmentID == nil {
		return nil, apperrors.NewConflict("CATEGORY_HAS_NO_DEFAULT_DEPARTMENT", "category has no default department", map[string]any{"category_id": category.ID})
	}

	department, err := s.departments.GetByID(ctx, *category.DefaultDepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("CATEGORY_HAS_NO_DEFAULT_DEPARTMENT", "category has no default department", map[string]any{"category_id": category.ID})
		}
		return nil, apperrors.MapError(err)
	}
	if !department.IsActive {
		return nil, apperrors.NewConflict("DEFAULT_DEPARTMENT_NOT_ACTIVE", "default department is not active", map[string]any{"department_id": department.ID})
	}

	code, err := s.generateUniqueTrackingCode(ctx)
	if err != nil {
		return nil, err
	}

	complaint := &domain.Complaint{
		TrackingCode: code,
		CitizenID:    citizenID,
		CategoryID:   category.ID,
		DepartmentID: &department.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.StatusNew,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
	}
	entry := &domain.StatusHistory{
		ToStatus:  domain.StatusNew,
		ChangedBy: citizenID,
	}

	if err := s.complaints.CreateWithHistory(ctx, complaint, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		ActorID:     citizenID,
		Payload: events.ComplaintCreatedPayload{
			CitizenID:    complaint.CitizenID,
			TrackingCode: complaint.TrackingCode,
			CategoryID:   complaint.CategoryID,
			DepartmentID: complaint.DepartmentID,
			Title:        complaint.Title,
		},
	})
	return complaint, nil
}

// generateUniqueTrackingCode probes the store for an unused code. Collisions
// are astronomically unlikely, so exhausting the attempts is treated as a
// server fault rather than a client error.
func (s *ComplaintService) generateUniqueTrackingCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < trackingCodeAttempts; attempt++ {
		code := generateTrackingCode()
		exists, err := s.complaints.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", apperrors.MapError(err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.NewFatal("TRACKING_CODE_GENERATION_FAILED", "could not generate a unique tracking code", nil)
}

func generateTrackingCode() string {
	return "TRK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// GetComplaintForCitizen fetches a complaint ensuring ownership.
func (s *ComplaintService) GetComplaintForCitizen(ctx context.Context, citizenID, complaintID string) (*domain.Complaint, []domain.StatusHistory, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if complaint.CitizenID != citizenID {
		return nil, nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
	}
	history, err := s.history.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return complaint, history, nil
}

// ListComplaintsForCitizen returns the citizen's own complaints, newest first.
func (s *ComplaintService) ListComplaintsForCitizen(ctx context.Context, citizenID string, limit, offset int) ([]domain.Complaint, error) {
	filter := repository.ComplaintFilter{
		CitizenID: &citizenID,
		Limit:     limit,
		Offset:    offset,
	}
	result, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// GetComplaintForStaff fetches a complaint ensuring the actor may see it.
func (s *ComplaintService) GetComplaintForStaff(ctx context.Context, actorID, complaintID string) (*domain.Complaint, []domain.StatusHistory, error) {
	actor, err := s.loadStaffActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !actor.HasRole(domain.RoleAdmin) {
		if complaint.DepartmentID == nil {
			return nil, nil, apperrors.NewForbidden("NOT_A_MEMBER_OF_THIS_DEPARTMENT", "not a member of this department")
		}
		if _, err := s.members.GetActive(ctx, *complaint.DepartmentID, actor.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, apperrors.NewForbidden("NOT_A_MEMBER_OF_THIS_DEPARTMENT", "not a member of this department")
			}
			return nil, nil, apperrors.MapError(err)
		}
	}
	history, err := s.history.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return complaint, history, nil
}

// ListComplaintsForStaff returns complaints visible to the actor: everything
// for admins, the actor's active departments for agents.
func (s *ComplaintService) ListComplaintsForStaff(ctx context.Context, actorID string, statuses []domain.ComplaintStatus, limit, offset int) ([]domain.Complaint, error) {
	actor, err := s.loadStaffActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	filter := repository.ComplaintFilter{
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	}
	if !actor.HasRole(domain.RoleAdmin) {
		departmentIDs, err := s.members.ListActiveDepartmentIDs(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if len(departmentIDs) == 0 {
			return []domain.Complaint{}, nil
		}
		filter.DepartmentIDs = departmentIDs
	}
	result, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// RateComplaint records the owning citizen's rating for a complaint that
// has reached RESOLVED at least once. Re-rating overwrites.
func (s *ComplaintService) RateComplaint(ctx context.Context, citizenID, complaintID string, stars int, comment *string) (*domain.Rating, error) {
	if stars < 1 || stars > 5 {
		return nil, apperrors.NewValidationError("stars must be between 1 and 5", map[string]any{"stars": stars})
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.CitizenID != citizenID {
		return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
	}
	if complaint.ResolvedAt == nil {
		return nil, apperrors.NewConflict("COMPLAINT_NOT_RESOLVED_YET", "complaint has not been resolved yet", map[string]any{"status": complaint.Status})
	}
	rating := &domain.Rating{
		ComplaintID: complaint.ID,
		CitizenID:   citizenID,
		Stars:       stars,
		Comment:     comment,
	}
	if err := s.ratings.Upsert(ctx, rating); err != nil {
		return nil, apperrors.MapError(err)
	}
	return rating, nil
}

func (s *ComplaintService) loadStaffActor(ctx context.Context, actorID string) (*domain.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": actorID})
		}
		return nil, apperrors.MapError(err)
	}
	if !actor.Enabled || !actor.IsStaff() {
		return nil, apperrors.NewForbidden("ONLY_STAFF_CAN_CHANGE_STATUS", "only staff can act on complaints")
	}
	return actor, nil
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.String("complaint_id", event.ComplaintID),
			zap.Error(err))
	}
}
