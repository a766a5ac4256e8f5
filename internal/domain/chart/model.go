// Package chart holds the clinical chart resources attached to a patient:
// medical records, lab results, medications, preventive-care reminders and
// diet plans.
package chart

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord maps to the medical_records table.
type MedicalRecord struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	RecordType string     `db:"record_type" json:"record_type"`
	Title      string     `db:"title" json:"title"`
	Body       *string    `db:"body" json:"body,omitempty"`
	RecordedAt time.Time  `db:"recorded_at" json:"recorded_at"`
	AuthorID   *string    `db:"author_id" json:"author_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// LabResult maps to the lab_results table.
type LabResult struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	TestName      string     `db:"test_name" json:"test_name"`
	Category      *string    `db:"category" json:"category,omitempty"`
	ResultValue   *string    `db:"result_value" json:"result_value,omitempty"`
	Unit          *string    `db:"unit" json:"unit,omitempty"`
	ReferenceLow  *string    `db:"reference_low" json:"reference_low,omitempty"`
	ReferenceHigh *string    `db:"reference_high" json:"reference_high,omitempty"`
	AbnormalFlag  *string    `db:"abnormal_flag" json:"abnormal_flag,omitempty"`
	CollectedAt   *time.Time `db:"collected_at" json:"collected_at,omitempty"`
	ReportedAt    *time.Time `db:"reported_at" json:"reported_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Medication maps to the medications table.
type Medication struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	Name       string     `db:"name" json:"name"`
	Dosage     *string    `db:"dosage" json:"dosage,omitempty"`
	Frequency  *string    `db:"frequency" json:"frequency,omitempty"`
	Route      *string    `db:"route" json:"route,omitempty"`
	Status     string     `db:"status" json:"status"`
	StartDate  *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate    *time.Time `db:"end_date" json:"end_date,omitempty"`
	Prescriber *string    `db:"prescriber" json:"prescriber,omitempty"`
	Note       *string    `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// CareReminder maps to the care_reminders table.
type CareReminder struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DietPlan maps to the diet_plans table.
type DietPlan struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	Title          string     `db:"title" json:"title"`
	Instructions   *string    `db:"instructions" json:"instructions,omitempty"`
	CaloriesPerDay *int       `db:"calories_per_day" json:"calories_per_day,omitempty"`
	Status         string     `db:"status" json:"status"`
	StartsOn       *time.Time `db:"starts_on" json:"starts_on,omitempty"`
	EndsOn         *time.Time `db:"ends_on" json:"ends_on,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
