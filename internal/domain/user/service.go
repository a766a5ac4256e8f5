package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrRoleMismatch is returned when an identity attempts to authenticate
	// through a flow that provisions a different role than the one stored.
	ErrRoleMismatch = errors.New("user role does not match login flow")

	// ErrRoleRequired is returned when a brand-new identity arrives without
	// a role from the calling flow. Roles are never defaulted.
	ErrRoleRequired = errors.New("role is required for new users")
)

// PatientProvisioner creates a placeholder patient record for a first-time
// patient signup and returns its id.
type PatientProvisioner interface {
	ProvisionPlaceholder(ctx context.Context, p Profile) (uuid.UUID, error)
}

type Service struct {
	repo     Repository
	patients PatientProvisioner
	logger   zerolog.Logger
}

func NewService(repo Repository, patients PatientProvisioner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, logger: logger}
}

// Get returns the user for the given subject identifier, or (nil, nil) when
// none exists.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Upsert reconciles identity-provider claims with the local user record.
// expectedRole is the role the calling login flow provisions.
//
// Existing users keep their stored role and patient link; only the profile
// fields are refreshed. A cross-role login attempt fails with
// ErrRoleMismatch and changes nothing. New users are created with
// expectedRole; a missing role is ErrRoleRequired, never a default. A new
// patient-role user additionally gets a placeholder patient record; if that
// provisioning fails the login still succeeds and the anomaly is logged.
func (s *Service) Upsert(ctx context.Context, p Profile, expectedRole Role) (*User, error) {
	if p.Subject == "" {
		return nil, fmt.Errorf("profile missing subject identifier")
	}

	existing, err := s.repo.GetByID(ctx, p.Subject)
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", p.Subject, err)
	}

	if existing != nil {
		if expectedRole != "" && expectedRole != existing.Role {
			return nil, fmt.Errorf("%w: stored role %q, flow role %q",
				ErrRoleMismatch, existing.Role, expectedRole)
		}
		applyProfile(existing, p)
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update user %s: %w", p.Subject, err)
		}
		return existing, nil
	}

	if expectedRole == "" {
		return nil, ErrRoleRequired
	}
	if !expectedRole.Valid() {
		return nil, fmt.Errorf("unknown role %q", expectedRole)
	}

	u := &User{ID: p.Subject, Role: expectedRole}
	applyProfile(u, p)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", p.Subject, err)
	}

	if expectedRole == RolePatient {
		patientID, err := s.patients.ProvisionPlaceholder(ctx, p)
		if err != nil {
			// The user exists without a usable patient link; the patient
			// guard will reject until this is remediated.
			s.logger.Error().Err(err).
				Str("user_id", u.ID).
				Msg("patient record provisioning failed; user has no patient link")
			return u, nil
		}
		if err := s.repo.SetPatientID(ctx, u.ID, patientID); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", u.ID).
				Str("patient_id", patientID.String()).
				Msg("linking provisioned patient record failed")
			return u, nil
		}
		u.PatientID = &patientID
	}

	return u, nil
}

func applyProfile(u *User, p Profile) {
	u.Email = optional(p.Email)
	u.FirstName = optional(p.FirstName)
	u.LastName = optional(p.LastName)
	u.ProfileImageURL = optional(p.ProfileImageURL)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
