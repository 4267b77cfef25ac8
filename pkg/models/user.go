package models

import "time"

// UserRole gates administrative operations such as company-wide mail.
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// User is an authenticated portal account. Directory lookups only see
// users that are verified and not banned.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         UserRole  `json:"role"`
	DepartmentID string    `json:"departmentId,omitempty"`
	Verified     bool      `json:"verified"`
	Banned       bool      `json:"banned"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may perform admin-only operations.
func (u *User) IsAdmin() bool { return u.Role == UserRoleAdmin }
