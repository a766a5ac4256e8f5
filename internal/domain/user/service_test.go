package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ── Mocks ──

type mockRepo struct {
	data      map[string]*User
	createErr error
	linkErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: map[string]*User{}}
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*User, error) {
	if u, ok := m.data[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *u
	m.data[u.ID] = &copied
	return nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	stored, ok := m.data[u.ID]
	if !ok {
		return fmt.Errorf("not found")
	}
	stored.Email = u.Email
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.ProfileImageURL = u.ProfileImageURL
	return nil
}

func (m *mockRepo) SetPatientID(_ context.Context, id string, patientID uuid.UUID) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	stored, ok := m.data[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	if stored.PatientID == nil {
		stored.PatientID = &patientID
	}
	return nil
}

type mockProvisioner struct {
	calls int
	err   error
	last  uuid.UUID
}

func (m *mockProvisioner) ProvisionPlaceholder(_ context.Context, _ Profile) (uuid.UUID, error) {
	m.calls++
	if m.err != nil {
		return uuid.Nil, m.err
	}
	m.last = uuid.New()
	return m.last, nil
}

func newTestService() (*Service, *mockRepo, *mockProvisioner) {
	repo := newMockRepo()
	prov := &mockProvisioner{}
	return NewService(repo, prov, zerolog.Nop()), repo, prov
}

// ── Upsert ──

func TestUpsert_NewProvider(t *testing.T) {
	svc, repo, prov := newTestService()

	u, err := svc.Upsert(context.Background(), Profile{Subject: "u1", Email: "dr@x.com"}, RoleProvider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != RoleProvider {
		t.Errorf("role = %q, want provider", u.Role)
	}
	if u.PatientID != nil {
		t.Error("provider must not get a patient link")
	}
	if prov.calls != 0 {
		t.Errorf("expected no provisioning calls, got %d", prov.calls)
	}
	if repo.data["u1"] == nil {
		t.Fatal("user not persisted")
	}
}

func TestUpsert_NewPatientProvisionsRecord(t *testing.T) {
	svc, repo, prov := newTestService()

	u, err := svc.Upsert(context.Background(), Profile{Subject: "p1"}, RolePatient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != RolePatient {
		t.Errorf("role = %q, want patient", u.Role)
	}
	if prov.calls != 1 {
		t.Fatalf("expected 1 provisioning call, got %d", prov.calls)
	}
	if u.PatientID == nil || *u.PatientID != prov.last {
		t.Errorf("patient link = %v, want %v", u.PatientID, prov.last)
	}
	if stored := repo.data["p1"]; stored.PatientID == nil {
		t.Error("patient link not persisted")
	}
}

func TestUpsert_ProvisioningFailureDoesNotAbortLogin(t *testing.T) {
	svc, repo, prov := newTestService()
	prov.err = errors.New("db down")

	u, err := svc.Upsert(context.Background(), Profile{Subject: "p2"}, RolePatient)
	if err != nil {
		t.Fatalf("login must succeed despite provisioning failure, got %v", err)
	}
	if u.Role != RolePatient {
		t.Errorf("role = %q, want patient", u.Role)
	}
	if u.PatientID != nil {
		t.Error("expected null patient link after provisioning failure")
	}
	if repo.data["p2"] == nil {
		t.Error("user must still exist")
	}
}

func TestUpsert_LinkFailureDoesNotAbortLogin(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.linkErr = errors.New("db down")

	u, err := svc.Upsert(context.Background(), Profile{Subject: "p3"}, RolePatient)
	if err != nil {
		t.Fatalf("login must succeed despite link failure, got %v", err)
	}
	if u.PatientID != nil {
		t.Error("expected null patient link after link failure")
	}
}

func TestUpsert_CrossRoleLoginRejected(t *testing.T) {
	svc, repo, _ := newTestService()

	if _, err := svc.Upsert(context.Background(), Profile{Subject: "u1"}, RoleProvider); err != nil {
		t.Fatalf("provider login: %v", err)
	}

	_, err := svc.Upsert(context.Background(), Profile{Subject: "u1"}, RolePatient)
	if !errors.Is(err, ErrRoleMismatch) {
		t.Fatalf("expected ErrRoleMismatch, got %v", err)
	}
	if repo.data["u1"].Role != RoleProvider {
		t.Errorf("stored role changed to %q, must remain provider", repo.data["u1"].Role)
	}
}

func TestUpsert_ExistingUserProfileRefreshed(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	svc.Upsert(ctx, Profile{Subject: "p1", Email: "old@x.com"}, RolePatient)
	link := repo.data["p1"].PatientID

	u, err := svc.Upsert(ctx, Profile{Subject: "p1", Email: "new@x.com", FirstName: "Ana"}, RolePatient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email == nil || *u.Email != "new@x.com" {
		t.Errorf("email not refreshed: %v", u.Email)
	}
	if u.Role != RolePatient {
		t.Errorf("role = %q", u.Role)
	}
	if u.PatientID == nil || link == nil || *u.PatientID != *link {
		t.Error("patient link must be preserved across logins")
	}
}

func TestUpsert_NewUserWithoutRoleFails(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Upsert(context.Background(), Profile{Subject: "nobody"}, "")
	if !errors.Is(err, ErrRoleRequired) {
		t.Fatalf("expected ErrRoleRequired, got %v", err)
	}
	if repo.data["nobody"] != nil {
		t.Error("no user may be created without a role")
	}
}

func TestUpsert_UnknownRoleFails(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Upsert(context.Background(), Profile{Subject: "x"}, Role("admin")); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestUpsert_MissingSubjectFails(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Upsert(context.Background(), Profile{}, RoleProvider); err == nil {
		t.Fatal("expected error for missing subject")
	}
}
