package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned for lookups of chart entries that do not exist.
var ErrNotFound = errors.New("chart entry not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func requirePatient(patientID uuid.UUID) error {
	if patientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	return nil
}

// -- Medical records --

func (s *Service) CreateRecord(ctx context.Context, r *MedicalRecord) error {
	if err := requirePatient(r.PatientID); err != nil {
		return err
	}
	if r.RecordType == "" || r.Title == "" {
		return fmt.Errorf("record_type and title are required")
	}
	return s.repo.CreateRecord(ctx, r)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	r, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *Service) ListRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.repo.ListRecords(ctx, patientID, limit, offset)
}

func (s *Service) UpdateRecord(ctx context.Context, r *MedicalRecord) error {
	existing, err := s.GetRecord(ctx, r.ID)
	if err != nil {
		return err
	}
	// The owning patient never changes on update.
	r.PatientID = existing.PatientID
	if r.RecordType == "" || r.Title == "" {
		return fmt.Errorf("record_type and title are required")
	}
	return s.repo.UpdateRecord(ctx, r)
}

func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRecord(ctx, id)
}

// -- Lab results --

func (s *Service) CreateLab(ctx context.Context, l *LabResult) error {
	if err := requirePatient(l.PatientID); err != nil {
		return err
	}
	if l.TestName == "" {
		return fmt.Errorf("test_name is required")
	}
	return s.repo.CreateLab(ctx, l)
}

func (s *Service) GetLab(ctx context.Context, id uuid.UUID) (*LabResult, error) {
	l, err := s.repo.GetLab(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *Service) ListLabs(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabResult, int, error) {
	return s.repo.ListLabs(ctx, patientID, limit, offset)
}

func (s *Service) UpdateLab(ctx context.Context, l *LabResult) error {
	existing, err := s.GetLab(ctx, l.ID)
	if err != nil {
		return err
	}
	l.PatientID = existing.PatientID
	if l.TestName == "" {
		return fmt.Errorf("test_name is required")
	}
	return s.repo.UpdateLab(ctx, l)
}

func (s *Service) DeleteLab(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteLab(ctx, id)
}

// -- Medications --

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if err := requirePatient(m.PatientID); err != nil {
		return err
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.CreateMedication(ctx, m)
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := s.repo.GetMedication(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) ListMedications(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	return s.repo.ListMedications(ctx, patientID, limit, offset)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	existing, err := s.GetMedication(ctx, m.ID)
	if err != nil {
		return err
	}
	m.PatientID = existing.PatientID
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.UpdateMedication(ctx, m)
}

func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteMedication(ctx, id)
}

// -- Care reminders --

func (s *Service) CreateReminder(ctx context.Context, r *CareReminder) error {
	if err := requirePatient(r.PatientID); err != nil {
		return err
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	return s.repo.CreateReminder(ctx, r)
}

func (s *Service) GetReminder(ctx context.Context, id uuid.UUID) (*CareReminder, error) {
	r, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *Service) ListReminders(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CareReminder, int, error) {
	return s.repo.ListReminders(ctx, patientID, limit, offset)
}

func (s *Service) UpdateReminder(ctx context.Context, r *CareReminder) error {
	existing, err := s.GetReminder(ctx, r.ID)
	if err != nil {
		return err
	}
	r.PatientID = existing.PatientID
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	return s.repo.UpdateReminder(ctx, r)
}

func (s *Service) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteReminder(ctx, id)
}

// -- Diet plans --

func (s *Service) CreateDietPlan(ctx context.Context, d *DietPlan) error {
	if err := requirePatient(d.PatientID); err != nil {
		return err
	}
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	return s.repo.CreateDietPlan(ctx, d)
}

func (s *Service) GetDietPlan(ctx context.Context, id uuid.UUID) (*DietPlan, error) {
	d, err := s.repo.GetDietPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *Service) ListDietPlans(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*DietPlan, int, error) {
	return s.repo.ListDietPlans(ctx, patientID, limit, offset)
}

func (s *Service) UpdateDietPlan(ctx context.Context, d *DietPlan) error {
	existing, err := s.GetDietPlan(ctx, d.ID)
	if err != nil {
		return err
	}
	d.PatientID = existing.PatientID
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	return s.repo.UpdateDietPlan(ctx, d)
}

func (s *Service) DeleteDietPlan(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDietPlan(ctx, id)
}
