package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/user"
)

// ErrNotFound is returned for lookups of patients that do not exist.
var ErrNotFound = errors.New("patient not found")

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	if p.BirthDate.IsZero() {
		return fmt.Errorf("birth date is required")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, q, limit, offset)
}

// ProvisionPlaceholder creates a minimal patient record for a first-time
// patient signup. Demographics come from the identity claims where present;
// the birth date is the placeholder value until intake fills it in.
func (s *Service) ProvisionPlaceholder(ctx context.Context, profile user.Profile) (uuid.UUID, error) {
	p := &Patient{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		BirthDate: PlaceholderBirthDate,
	}
	if p.FirstName == "" {
		p.FirstName = "Patient"
	}
	if p.LastName == "" {
		p.LastName = profile.Subject
	}
	if profile.Email != "" {
		email := profile.Email
		p.Email = &email
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return uuid.Nil, fmt.Errorf("provision patient record: %w", err)
	}
	s.logger.Info().Str("patient_id", p.ID.String()).Msg("provisioned placeholder patient record")
	return p.ID, nil
}
