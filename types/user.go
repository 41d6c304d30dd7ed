package types

import "time"

// Role is the authorization level of an account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User is the profile attached to an authenticated session.
type User struct {
	// ID is the server-assigned identifier of the account.
	ID string `json:"id" db:"id"`

	// Name is the display name; it is also the user_name recorded in
	// audit log entries.
	Name string `json:"name" db:"name"`

	// Email is the login identifier.
	Email string `json:"email" db:"email"`

	// Role is either ADMIN or USER.
	Role Role `json:"role" db:"role"`

	// EmailVerified is set once the address was confirmed.
	EmailVerified *time.Time `json:"emailVerified" db:"email_verified"`

	// Image is an optional avatar URI.
	Image *string `json:"image" db:"image"`

	// PasswordHash is only populated server-side and never serialized.
	PasswordHash string `json:"-" db:"password_hash"`

	// TwoFactorEnabled makes login stop at a second verification step.
	TwoFactorEnabled bool `json:"-" db:"two_factor_enabled"`
}
