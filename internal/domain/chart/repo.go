package chart

import (
	"context"

	"github.com/google/uuid"
)

// RecordRepository persists medical records. GetRecord returns (nil, nil)
// when no row exists; the other Get methods below behave the same way.
type RecordRepository interface {
	CreateRecord(ctx context.Context, r *MedicalRecord) error
	GetRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	ListRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
	UpdateRecord(ctx context.Context, r *MedicalRecord) error
	DeleteRecord(ctx context.Context, id uuid.UUID) error
}

type LabRepository interface {
	CreateLab(ctx context.Context, l *LabResult) error
	GetLab(ctx context.Context, id uuid.UUID) (*LabResult, error)
	ListLabs(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabResult, int, error)
	UpdateLab(ctx context.Context, l *LabResult) error
	DeleteLab(ctx context.Context, id uuid.UUID) error
}

type MedicationRepository interface {
	CreateMedication(ctx context.Context, m *Medication) error
	GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error)
	ListMedications(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Medication, int, error)
	UpdateMedication(ctx context.Context, m *Medication) error
	DeleteMedication(ctx context.Context, id uuid.UUID) error
}

type ReminderRepository interface {
	CreateReminder(ctx context.Context, r *CareReminder) error
	GetReminder(ctx context.Context, id uuid.UUID) (*CareReminder, error)
	ListReminders(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CareReminder, int, error)
	UpdateReminder(ctx context.Context, r *CareReminder) error
	DeleteReminder(ctx context.Context, id uuid.UUID) error
}

type DietPlanRepository interface {
	CreateDietPlan(ctx context.Context, d *DietPlan) error
	GetDietPlan(ctx context.Context, id uuid.UUID) (*DietPlan, error)
	ListDietPlans(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*DietPlan, int, error)
	UpdateDietPlan(ctx context.Context, d *DietPlan) error
	DeleteDietPlan(ctx context.Context, id uuid.UUID) error
}

// Repository bundles every chart resource repository.
type Repository interface {
	RecordRepository
	LabRepository
	MedicationRepository
	ReminderRepository
	DietPlanRepository
}
