// Package models holds the records exchanged with the MealDesk backend.
package models

// Role is the role of a MealDesk account.
type Role string

const (
	// RoleAdmin may manage users, balances and meals.
	RoleAdmin Role = "admin"
	// RoleUser is a regular member.
	RoleUser Role = "user"
)

// User is the identity of the signed-in account as reported by the backend.
// The front end treats it as opaque apart from the fields below.
type User struct {
	// ID is the backend identifier of the account.
	ID string `json:"_id"`
	// FullName is the display name.
	FullName string `json:"fullName"`
	// Email is the login e-mail address.
	Email string `json:"email"`
	// Role decides which dashboard cards and meal actions are shown.
	Role Role `json:"role"`
	// IsVerified is true once an admin verified the account.
	IsVerified bool `json:"isVerified"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
