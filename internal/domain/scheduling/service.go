package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned for lookups of appointments that do not exist.
var ErrNotFound = errors.New("appointment not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create schedules an appointment on behalf of a provider.
func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if a.Status == "" {
		a.Status = StatusConfirmed
	}
	if !validStatus(a.Status) {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	return s.repo.Create(ctx, a)
}

// Request creates an appointment on behalf of a patient. The status is
// always requested; a provider confirms it later.
func (s *Service) Request(ctx context.Context, patientID uuid.UUID, a *Appointment) error {
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	a.PatientID = patientID
	a.ProviderID = nil
	a.Status = StatusRequested
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	existing, err := s.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	// The owning patient never changes on update.
	a.PatientID = existing.PatientID
	if a.ScheduledAt.IsZero() {
		a.ScheduledAt = existing.ScheduledAt
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if !validStatus(a.Status) {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Cancel marks the patient's own appointment cancelled. The ownership check
// is against the guard-supplied patient id, never the request body.
func (s *Service) Cancel(ctx context.Context, patientID, id uuid.UUID) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.PatientID != patientID {
		return ErrNotFound
	}
	a.Status = StatusCancelled
	return s.repo.Update(ctx, a)
}
