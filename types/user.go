package types

import "time"

// Role is the closed set of authorization levels in the system.
type Role string

// Supported roles.
const (
	// RoleUser is a citizen who lodges complaints and sees only their own.
	RoleUser Role = "user"

	// RoleOfficer handles complaints assigned to them.
	RoleOfficer Role = "officer"

	// RoleAdmin has full visibility plus department and assignment
	// management rights.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's unique email address, used as the login name.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// ContactNo is the user's phone number.
	ContactNo string `json:"contact_no" db:"contact_no"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserRef is the denormalized view of a user embedded in complaint
// responses. It never carries credentials.
type UserRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}
