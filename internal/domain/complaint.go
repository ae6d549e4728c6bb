package domain

import "time"

// Complaint is the aggregate for citizen-submitted issues. It is created
// once in status NEW and mutated only through the status transition flow;
// once CLOSED it is read-only.
type Complaint struct {
	ID           string
	TrackingCode string
	CitizenID    string
	CategoryID   string
	DepartmentID *string
	Title        string
	Description  string
	Status       ComplaintStatus
	PublicAnswer *string
	Latitude     *float64
	Longitude    *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
}
