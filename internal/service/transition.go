package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// StatusChangeInput describes a requested status transition.
type StatusChangeInput struct {
	ToStatus     domain.ComplaintStatus
	Note         *string
	PublicAnswer *string
}

// ChangeStatus moves a complaint through the lifecycle state machine.
// Order of checks: existence, the absorbing-CLOSED guard, authorization,
// edge legality, answer policy. The mutation, timestamp stamps and history
// entry commit in one transaction; the notification event is published only
// after the commit and never affects the outcome.
func (s *ComplaintService) ChangeStatus(ctx context.Context, actorID, complaintID string, input StatusChangeInput) error {
	if !input.ToStatus.Valid() {
		return apperrors.NewValidationError("unknown target status", map[string]any{"to_status": input.ToStatus})
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": actorID})
		}
		return apperrors.MapError(err)
	}

	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return apperrors.MapError(err)
	}

	if complaint.Status == domain.StatusClosed {
		return apperrors.NewConflict("COMPLAINT_ALREADY_CLOSED", "complaint is already closed", map[string]any{"complaint_id": complaint.ID})
	}

	if err := s.authorize(ctx, actor, complaint); err != nil {
		return err
	}

	from := complaint.Status
	if !from.CanTransition(input.ToStatus) {
		return invalidTransition(from, input.ToStatus)
	}

	answer, err := validatePublicAnswer(input.ToStatus, input.PublicAnswer)
	if err != nil {
		return err
	}

	now := time.Now()
	complaint.Status = input.ToStatus
	switch input.ToStatus {
	case domain.StatusResolved:
		complaint.ResolvedAt = &now
		complaint.PublicAnswer = answer
	case domain.StatusClosed:
		complaint.ClosedAt = &now
	}

	entry := &domain.StatusHistory{
		FromStatus: &from,
		ToStatus:   input.ToStatus,
		ChangedBy:  actor.ID,
		Note:       input.Note,
	}

	if err := s.complaints.UpdateStatusWithHistory(ctx, complaint, from, entry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.concurrentWriteConflict(ctx, complaintID, input.ToStatus)
		}
		return apperrors.MapError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(string(from), string(input.ToStatus))
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: complaint.ID,
		ActorID:     actor.ID,
		Payload: events.ComplaintStatusChangedPayload{
			CitizenID:    complaint.CitizenID,
			TrackingCode: complaint.TrackingCode,
			OldStatus:    from,
			NewStatus:    input.ToStatus,
			Note:         input.Note,
			PublicAnswer: complaint.PublicAnswer,
		},
	})
	return nil
}

// authorize gates transitions: only staff may act, admins bypass department
// scoping, agents need an active membership in the complaint's department.
func (s *ComplaintService) authorize(ctx context.Context, actor *domain.User, complaint *domain.Complaint) error {
	if !actor.Enabled || !actor.IsStaff() {
		return apperrors.NewForbidden("ONLY_STAFF_CAN_CHANGE_STATUS", "only staff can change complaint status")
	}
	if actor.HasRole(domain.RoleAdmin) {
		return nil
	}
	if complaint.DepartmentID == nil {
		return apperrors.NewConflict("COMPLAINT_HAS_NO_DEPARTMENT", "complaint has no department assigned", map[string]any{"complaint_id": complaint.ID})
	}
	if _, err := s.members.GetActive(ctx, *complaint.DepartmentID, actor.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewForbidden("NOT_A_MEMBER_OF_THIS_DEPARTMENT", "not a member of this department")
		}
		return apperrors.MapError(err)
	}
	return nil
}

// validatePublicAnswer enforces the answer policy: mandatory and non-blank
// when entering RESOLVED, rejected for every other target status. Returns
// the trimmed answer to store.
func validatePublicAnswer(toStatus domain.ComplaintStatus, publicAnswer *string) (*string, error) {
	if toStatus == domain.StatusResolved {
		if publicAnswer == nil || strings.TrimSpace(*publicAnswer) == "" {
			return nil, apperrors.NewConflict("PUBLIC_ANSWER_REQUIRED_ON_RESOLVED", "a public answer is required when resolving", nil)
		}
		trimmed := strings.TrimSpace(*publicAnswer)
		return &trimmed, nil
	}
	if publicAnswer != nil {
		return nil, apperrors.NewConflict("PUBLIC_ANSWER_ONLY_ALLOWED_ON_RESOLVED", "a public answer may only be supplied when resolving", map[string]any{"to_status": toStatus})
	}
	return nil, nil
}

// concurrentWriteConflict re-reads the row after an optimistic-check miss so
// the losing writer sees the fresh state in its error.
func (s *ComplaintService) concurrentWriteConflict(ctx context.Context, complaintID string, toStatus domain.ComplaintStatus) error {
	current, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return apperrors.MapError(err)
	}
	if current.Status == domain.StatusClosed {
		return apperrors.NewConflict("COMPLAINT_ALREADY_CLOSED", "complaint is already closed", map[string]any{"complaint_id": complaintID})
	}
	return invalidTransition(current.Status, toStatus)
}

func invalidTransition(from, to domain.ComplaintStatus) error {
	return apperrors.NewConflict("INVALID_STATUS_TRANSITION", "status transition is not allowed", map[string]any{
		"from": from,
		"to":   to,
	})
}
