package domain

import "time"

// Notification is a best-effort message to the complaint's creator,
// produced as a side effect of a status transition. Writing it never
// blocks or fails the transition that caused it.
type Notification struct {
	ID          string
	UserID      string
	ComplaintID string
	Status      ComplaintStatus
	Title       string
	Body        string
	CreatedAt   time.Time
}
