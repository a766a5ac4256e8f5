package patient

import (
	"time"

	"github.com/google/uuid"
)

// PlaceholderBirthDate is used when a patient record is provisioned from a
// signup before any demographics are collected. It marks the record as
// needing intake, not as a real date of birth.
var PlaceholderBirthDate = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// Patient maps to the patients table.
type Patient struct {
	ID               uuid.UUID `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	BirthDate        time.Time `db:"birth_date" json:"birth_date"`
	Gender           *string   `db:"gender" json:"gender,omitempty"`
	Email            *string   `db:"email" json:"email,omitempty"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	AddressLine1     *string   `db:"address_line1" json:"address_line1,omitempty"`
	AddressLine2     *string   `db:"address_line2" json:"address_line2,omitempty"`
	City             *string   `db:"city" json:"city,omitempty"`
	State            *string   `db:"state" json:"state,omitempty"`
	PostalCode       *string   `db:"postal_code" json:"postal_code,omitempty"`
	EmergencyContact *string   `db:"emergency_contact" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
