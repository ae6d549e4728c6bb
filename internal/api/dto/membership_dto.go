package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// AddMemberRequest payload.
type AddMemberRequest struct {
	UserID     string            `json:"user_id"`
	MemberRole domain.MemberRole `json:"member_role"`
}

// MemberResponse represents a department membership.
type MemberResponse struct {
	ID           string            `json:"id"`
	DepartmentID string            `json:"department_id"`
	UserID       string            `json:"user_id"`
	MemberRole   domain.MemberRole `json:"member_role"`
	Active       bool              `json:"active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NotificationResponse represents a stored notification.
type NotificationResponse struct {
	ID          string                 `json:"id"`
	ComplaintID string                 `json:"complaint_id"`
	Status      domain.ComplaintStatus `json:"status"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	CreatedAt   time.Time              `json:"created_at"`
}
