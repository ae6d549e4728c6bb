package domain

import "time"

// Rating is a citizen's score for the outcome of their own complaint.
// One rating per citizen per complaint; re-rating overwrites.
type Rating struct {
	ID          string
	ComplaintID string
	CitizenID   string
	Stars       int
	Comment     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RatingAggregate carries the feed-level rating summary for a complaint.
type RatingAggregate struct {
	Average float64
	Count   int
}
