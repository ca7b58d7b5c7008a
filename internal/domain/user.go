package domain

import "time"

// Role represents the user's permission level in the catalog.
type Role string

const (
	// RoleLibrarian may change the catalog and manage loans.
	RoleLibrarian Role = "librarian"
	// RoleMember may browse and see their own loans.
	RoleMember Role = "member"
)

// Permission names a capability checked before an operation.
type Permission string

// PermManageLoans gates every catalog mutation and the staff loan views.
const PermManageLoans Permission = "catalog.can_manage_loans"

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleLibrarian || r == RoleMember
}

// User is a librarian or patron account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Has reports whether the user holds permission p.
func (u *User) Has(p Permission) bool {
	if u == nil {
		return false
	}
	switch p {
	case PermManageLoans:
		return u.Role == RoleLibrarian
	default:
		return false
	}
}

// CanManageLoans is shorthand for Has(PermManageLoans).
func (u *User) CanManageLoans() bool {
	return u.Has(PermManageLoans)
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
