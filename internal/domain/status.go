package domain

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusNew      ComplaintStatus = "NEW"
	StatusInReview ComplaintStatus = "IN_REVIEW"
	StatusResolved ComplaintStatus = "RESOLVED"
	StatusClosed   ComplaintStatus = "CLOSED"
)

// Valid reports whether the value is a known lifecycle state.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInReview, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Successors returns the legal target states from s. CLOSED is absorbing
// and maps to the empty set; there is no reopen edge out of RESOLVED.
func (s ComplaintStatus) Successors() []ComplaintStatus {
	switch s {
	case StatusNew:
		return []ComplaintStatus{StatusInReview}
	case StatusInReview:
		return []ComplaintStatus{StatusResolved, StatusClosed}
	case StatusResolved:
		return []ComplaintStatus{StatusClosed}
	case StatusClosed:
		return nil
	default:
		return nil
	}
}

// CanTransition reports whether the edge s -> next exists.
func (s ComplaintStatus) CanTransition(next ComplaintStatus) bool {
	for _, candidate := range s.Successors() {
		if candidate == next {
			return true
		}
	}
	return false
}
