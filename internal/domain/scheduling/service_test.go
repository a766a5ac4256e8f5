package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	data map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: map[uuid.UUID]*Appointment{}}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	copied := *a
	m.data[a.ID] = &copied
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	if a, ok := m.data[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.data {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	copied := *a
	m.data[a.ID] = &copied
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, &Appointment{ScheduledAt: time.Now()}); err == nil {
		t.Error("expected error for missing patient_id")
	}
	if err := svc.Create(ctx, &Appointment{PatientID: uuid.New()}); err == nil {
		t.Error("expected error for missing scheduled_at")
	}
	if err := svc.Create(ctx, &Appointment{
		PatientID:   uuid.New(),
		ScheduledAt: time.Now(),
		Status:      "maybe",
	}); err == nil {
		t.Error("expected error for invalid status")
	}

	a := &Appointment{PatientID: uuid.New(), ScheduledAt: time.Now()}
	if err := svc.Create(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusConfirmed {
		t.Errorf("default status = %q, want confirmed", a.Status)
	}
}

func TestRequest_ForcesRequestedStatus(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	pid := uuid.New()
	provider := "u1"
	a := &Appointment{
		PatientID:   uuid.New(), // body-supplied id is overridden
		ProviderID:  &provider,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Status:      StatusConfirmed, // patients cannot self-confirm
	}
	if err := svc.Request(context.Background(), pid, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.data[a.ID]
	if stored.PatientID != pid {
		t.Errorf("patient id = %v, want guard id %v", stored.PatientID, pid)
	}
	if stored.Status != StatusRequested {
		t.Errorf("status = %q, want requested", stored.Status)
	}
	if stored.ProviderID != nil {
		t.Error("patient requests must not assign a provider")
	}
}

func TestUpdate_OwnerImmutable(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	owner := uuid.New()
	a := &Appointment{PatientID: owner, ScheduledAt: time.Now()}
	if err := svc.Create(ctx, a); err != nil {
		t.Fatal(err)
	}

	update := &Appointment{ID: a.ID, PatientID: uuid.New(), Status: StatusCompleted}
	if err := svc.Update(ctx, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.data[a.ID].PatientID != owner {
		t.Error("appointment owner must not change on update")
	}
	if repo.data[a.ID].Status != StatusCompleted {
		t.Error("status not updated")
	}
}

func TestCancel_OnlyOwn(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	owner := uuid.New()
	a := &Appointment{PatientID: owner, ScheduledAt: time.Now(), Status: StatusConfirmed}
	svc.Create(ctx, a)

	// Another patient cannot cancel it, and the attempt looks like a 404.
	if err := svc.Cancel(ctx, uuid.New(), a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign appointment, got %v", err)
	}
	if repo.data[a.ID].Status != StatusConfirmed {
		t.Error("foreign cancel must not change the appointment")
	}

	if err := svc.Cancel(ctx, owner, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.data[a.ID].Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", repo.data[a.ID].Status)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
