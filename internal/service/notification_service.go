package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// NotificationService consumes domain events and writes notifications to
// the complaint's creator. Delivery is best-effort: failures are logged and
// never surface to the operation that emitted the event.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifications repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher:    dispatcher,
		notifications: notifications,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleStatusChanged)
}

func (n *NotificationService) handleComplaintCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintCreatedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for complaint_created", zap.String("event_id", event.ID))
		return nil
	}
	title, body := renderNotification(domain.StatusNew, payload.TrackingCode, nil, nil)
	n.store(ctx, &domain.Notification{
		UserID:      payload.CitizenID,
		ComplaintID: event.ComplaintID,
		Status:      domain.StatusNew,
		Title:       title,
		Body:        body,
	})
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintStatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for complaint_status_changed", zap.String("event_id", event.ID))
		return nil
	}
	title, body := renderNotification(payload.NewStatus, payload.TrackingCode, payload.Note, payload.PublicAnswer)
	n.store(ctx, &domain.Notification{
		UserID:      payload.CitizenID,
		ComplaintID: event.ComplaintID,
		Status:      payload.NewStatus,
		Title:       title,
		Body:        body,
	})
	return nil
}

// ListForUser returns a user's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	return n.notifications.ListByUser(ctx, userID, limit, offset)
}

func (n *NotificationService) store(ctx context.Context, notification *domain.Notification) {
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Warn("notification write failed",
			zap.String("complaint_id", notification.ComplaintID),
			zap.String("user_id", notification.UserID),
			zap.Error(err))
	}
}

// renderNotification builds the status-specific title and body shown to the
// complaint's creator.
func renderNotification(status domain.ComplaintStatus, trackingCode string, note, publicAnswer *string) (string, string) {
	switch status {
	case domain.StatusNew:
		return "Complaint received",
			fmt.Sprintf("Your complaint %s has been received and will be reviewed shortly.", trackingCode)
	case domain.StatusInReview:
		return "Complaint under review",
			fmt.Sprintf("Your complaint %s is now under review.", trackingCode)
	case domain.StatusResolved:
		body := "Your complaint has been resolved."
		if publicAnswer != nil && strings.TrimSpace(*publicAnswer) != "" {
			body = strings.TrimSpace(*publicAnswer)
		}
		return "Complaint resolved", body
	case domain.StatusClosed:
		body := "-"
		if note != nil && strings.TrimSpace(*note) != "" {
			body = strings.TrimSpace(*note)
		}
		return "Complaint closed", body
	default:
		return "Complaint updated",
			fmt.Sprintf("Your complaint %s has been updated.", trackingCode)
	}
}
