package domain

import "time"

// StatusHistory is an append-only audit entry per status transition.
// FromStatus is nil for the creation entry.
type StatusHistory struct {
	ID          string
	ComplaintID string
	FromStatus  *ComplaintStatus
	ToStatus    ComplaintStatus
	ChangedBy   string
	Note        *string
	CreatedAt   time.Time
}
