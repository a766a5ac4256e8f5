package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists user records. GetByID returns (nil, nil) when no user
// exists for the subject identifier.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	// Update touches the mutable profile fields only. Role is never written.
	Update(ctx context.Context, u *User) error
	// SetPatientID establishes the one-time link from a user to a patient
	// record.
	SetPatientID(ctx context.Context, id string, patientID uuid.UUID) error
}
