package domain

import "time"

// Category routes new complaints to its default department. An inactive
// category, or one whose default department is missing or inactive, blocks
// complaint creation.
type Category struct {
	ID                  string
	Name                string
	DefaultDepartmentID *string
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
