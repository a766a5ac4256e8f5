package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the application role assigned to a user at first login. It is
// immutable afterwards.
type Role string

const (
	RoleProvider Role = "provider"
	RolePatient  Role = "patient"
)

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleProvider || r == RolePatient
}

// User maps to the users table. The primary key is the subject identifier
// issued by the identity provider.
type User struct {
	ID              string     `db:"id" json:"id"`
	Email           *string    `db:"email" json:"email,omitempty"`
	FirstName       *string    `db:"first_name" json:"first_name,omitempty"`
	LastName        *string    `db:"last_name" json:"last_name,omitempty"`
	ProfileImageURL *string    `db:"profile_image_url" json:"profile_image_url,omitempty"`
	Role            Role       `db:"role" json:"role"`
	PatientID       *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile carries the mutable identity attributes asserted by the provider
// on each login.
type Profile struct {
	Subject         string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}
