package domain

import "time"

// TrackingView is the minimal anonymous projection returned for a tracking
// code lookup. Intentionally narrow so anonymous trackers learn nothing
// beyond progress.
type TrackingView struct {
	TrackingCode   string
	Status         ComplaintStatus
	DepartmentName string
}

// FeedItem is one entry of the public feed of resolved complaints, joined
// with its rating aggregate. TrackingCode is stored unmasked; masking
// happens in the projection service.
type FeedItem struct {
	TrackingCode   string
	Title          string
	CategoryName   string
	DepartmentName string
	Status         ComplaintStatus
	ResolvedAt     *time.Time
	PublicAnswer   *string
	RatingAverage  float64
	RatingCount    int
}
