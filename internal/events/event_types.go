package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
)

// Event represents a domain event emitted by services after the
// authoritative state change has committed.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	ActorID     string      `json:"actor_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	CitizenID    string  `json:"citizen_id"`
	TrackingCode string  `json:"tracking_code"`
	CategoryID   string  `json:"category_id"`
	DepartmentID *string `json:"department_id,omitempty"`
	Title        string  `json:"title"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	CitizenID    string                 `json:"citizen_id"`
	TrackingCode string                 `json:"tracking_code"`
	OldStatus    domain.ComplaintStatus `json:"old_status"`
	NewStatus    domain.ComplaintStatus `json:"new_status"`
	Note         *string                `json:"note,omitempty"`
	PublicAnswer *string                `json:"public_answer,omitempty"`
}
