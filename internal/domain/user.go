package domain

import "time"

// Role enumerates the closed set of user roles.
type Role string

const (
	RoleCitizen Role = "CITIZEN"
	RoleAgent   Role = "AGENT"
	RoleAdmin   Role = "ADMIN"
)

// User is the domain model for citizens and municipal staff alike; what a
// user may do is decided by the roles set, not a separate account type.
type User struct {
	ID        string
	Name      string
	Email     string
	Roles     []Role
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the user may act on complaints at all.
func (u *User) IsStaff() bool {
	return u.HasRole(RoleAgent) || u.HasRole(RoleAdmin)
}
