package domain

import "time"

// Department represents a municipal organizational unit.
type Department struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberRole enumerates roles within a department membership.
type MemberRole string

const (
	MemberRoleMember  MemberRole = "MEMBER"
	MemberRoleManager MemberRole = "MANAGER"
)

// DepartmentMember associates a staff user with a department. Memberships
// are deactivated rather than deleted so history attribution survives.
type DepartmentMember struct {
	ID           string
	DepartmentID string
	UserID       string
	MemberRole   MemberRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
