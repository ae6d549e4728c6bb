package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	CategoryID  string   `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// ChangeStatusRequest payload for staff transitions.
type ChangeStatusRequest struct {
	ToStatus     domain.ComplaintStatus `json:"to_status"`
	Note         *string                `json:"note,omitempty"`
	PublicAnswer *string                `json:"public_answer,omitempty"`
}

// RateComplaintRequest payload.
type RateComplaintRequest struct {
	Stars   int     `json:"stars"`
	Comment *string `json:"comment,omitempty"`
}

// ComplaintSummary response.
type ComplaintSummary struct {
	ID           string                 `json:"id"`
	TrackingCode string                 `json:"tracking_code"`
	CategoryID   string                 `json:"category_id"`
	DepartmentID *string                `json:"department_id"`
	Title        string                 `json:"title"`
	Status       domain.ComplaintStatus `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ID           string                  `json:"id"`
	TrackingCode string                  `json:"tracking_code"`
	CategoryID   string                  `json:"category_id"`
	DepartmentID *string                 `json:"department_id"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Status       domain.ComplaintStatus  `json:"status"`
	PublicAnswer *string                 `json:"public_answer"`
	Latitude     *float64                `json:"latitude,omitempty"`
	Longitude    *float64                `json:"longitude,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
	ResolvedAt   *time.Time              `json:"resolved_at"`
	ClosedAt     *time.Time              `json:"closed_at"`
	History      []StatusHistoryResponse `json:"history"`
}

// StatusHistoryResponse represents one audit entry.
type StatusHistoryResponse struct {
	ID         string                  `json:"id"`
	FromStatus *domain.ComplaintStatus `json:"from_status"`
	ToStatus   domain.ComplaintStatus  `json:"to_status"`
	ChangedBy  string                  `json:"changed_by"`
	Note       *string                 `json:"note"`
	CreatedAt  time.Time               `json:"created_at"`
}

// RatingResponse echoes a stored rating.
type RatingResponse struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	Stars       int       `json:"stars"`
	Comment     *string   `json:"comment"`
	UpdatedAt   time.Time `json:"updated_at"`
}
