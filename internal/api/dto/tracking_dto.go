package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// TrackingResponse is the anonymous tracking projection.
type TrackingResponse struct {
	TrackingCode   string                 `json:"tracking_code"`
	Status         domain.ComplaintStatus `json:"status"`
	DepartmentName string                 `json:"department_name"`
}

// FeedItemResponse is one public feed entry; the tracking code is masked.
type FeedItemResponse struct {
	TrackingCode   string                 `json:"tracking_code"`
	Title          string                 `json:"title"`
	CategoryName   string                 `json:"category_name"`
	DepartmentName string                 `json:"department_name"`
	Status         domain.ComplaintStatus `json:"status"`
	ResolvedAt     *time.Time             `json:"resolved_at"`
	PublicAnswer   *string                `json:"public_answer"`
	RatingAverage  float64                `json:"rating_average"`
	RatingCount    int                    `json:"rating_count"`
}
