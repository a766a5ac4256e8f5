package chart

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	records   map[uuid.UUID]*MedicalRecord
	labs      map[uuid.UUID]*LabResult
	meds      map[uuid.UUID]*Medication
	reminders map[uuid.UUID]*CareReminder
	diets     map[uuid.UUID]*DietPlan
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		records:   map[uuid.UUID]*MedicalRecord{},
		labs:      map[uuid.UUID]*LabResult{},
		meds:      map[uuid.UUID]*Medication{},
		reminders: map[uuid.UUID]*CareReminder{},
		diets:     map[uuid.UUID]*DietPlan{},
	}
}

func (m *mockRepo) CreateRecord(_ context.Context, r *MedicalRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	copied := *r
	m.records[r.ID] = &copied
	return nil
}

func (m *mockRepo) GetRecord(_ context.Context, id uuid.UUID) (*MedicalRecord, error) {
	if r, ok := m.records[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) ListRecords(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var out []*MedicalRecord
	for _, r := range m.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateRecord(_ context.Context, r *MedicalRecord) error {
	copied := *r
	m.records[r.ID] = &copied
	return nil
}

func (m *mockRepo) DeleteRecord(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func (m *mockRepo) CreateLab(_ context.Context, l *LabResult) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	copied := *l
	m.labs[l.ID] = &copied
	return nil
}

func (m *mockRepo) GetLab(_ context.Context, id uuid.UUID) (*LabResult, error) {
	if l, ok := m.labs[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) ListLabs(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*LabResult, int, error) {
	var out []*LabResult
	for _, l := range m.labs {
		if l.PatientID == patientID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateLab(_ context.Context, l *LabResult) error {
	copied := *l
	m.labs[l.ID] = &copied
	return nil
}

func (m *mockRepo) DeleteLab(_ context.Context, id uuid.UUID) error {
	delete(m.labs, id)
	return nil
}

func (m *mockRepo) CreateMedication(_ context.Context, md *Medication) error {
	if md.ID == uuid.Nil {
		md.ID = uuid.New()
	}
	copied := *md
	m.meds[md.ID] = &copied
	return nil
}

func (m *mockRepo) GetMedication(_ context.Context, id uuid.UUID) (*Medication, error) {
	if md, ok := m.meds[id]; ok {
		copied := *md
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) ListMedications(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	var out []*Medication
	for _, md := range m.meds {
		if md.PatientID == patientID {
			out = append(out, md)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateMedication(_ context.Context, md *Medication) error {
	copied := *md
	m.meds[md.ID] = &copied
	return nil
}

func (m *mockRepo) DeleteMedication(_ context.Context, id uuid.UUID) error {
	delete(m.meds, id)
	return nil
}

func (m *mockRepo) CreateReminder(_ context.Context, r *CareReminder) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	copied := *r
	m.reminders[r.ID] = &copied
	return nil
}

func (m *mockRepo) GetReminder(_ context.Context, id uuid.UUID) (*CareReminder, error) {
	if r, ok := m.reminders[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) ListReminders(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*CareReminder, int, error) {
	var out []*CareReminder
	for _, r := range m.reminders {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateReminder(_ context.Context, r *CareReminder) error {
	copied := *r
	m.reminders[r.ID] = &copied
	return nil
}

func (m *mockRepo) DeleteReminder(_ context.Context, id uuid.UUID) error {
	delete(m.reminders, id)
	return nil
}

func (m *mockRepo) CreateDietPlan(_ context.Context, d *DietPlan) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	copied := *d
	m.diets[d.ID] = &copied
	return nil
}

func (m *mockRepo) GetDietPlan(_ context.Context, id uuid.UUID) (*DietPlan, error) {
	if d, ok := m.diets[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) ListDietPlans(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*DietPlan, int, error) {
	var out []*DietPlan
	for _, d := range m.diets {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateDietPlan(_ context.Context, d *DietPlan) error {
	copied := *d
	m.diets[d.ID] = &copied
	return nil
}

func (m *mockRepo) DeleteDietPlan(_ context.Context, id uuid.UUID) error {
	delete(m.diets, id)
	return nil
}

func TestCreateRecord_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.CreateRecord(ctx, &MedicalRecord{Title: "Visit note"}); err == nil {
		t.Error("expected error for missing patient_id")
	}
	if err := svc.CreateRecord(ctx, &MedicalRecord{PatientID: uuid.New()}); err == nil {
		t.Error("expected error for missing title and record_type")
	}
	err := svc.CreateRecord(ctx, &MedicalRecord{
		PatientID:  uuid.New(),
		RecordType: "visit",
		Title:      "Visit note",
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUpdateRecord_OwnerImmutable(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	owner := uuid.New()
	r := &MedicalRecord{PatientID: owner, RecordType: "visit", Title: "Original"}
	if err := svc.CreateRecord(ctx, r); err != nil {
		t.Fatal(err)
	}

	update := &MedicalRecord{
		ID:         r.ID,
		PatientID:  uuid.New(), // attempt to move the record to another patient
		RecordType: "visit",
		Title:      "Edited",
	}
	if err := svc.UpdateRecord(ctx, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.records[r.ID].PatientID != owner {
		t.Error("record owner must not change on update")
	}
	if repo.records[r.ID].Title != "Edited" {
		t.Error("title not updated")
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.GetRecord(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateLab_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.CreateLab(ctx, &LabResult{PatientID: uuid.New()}); err == nil {
		t.Error("expected error for missing test_name")
	}
	if err := svc.CreateLab(ctx, &LabResult{PatientID: uuid.New(), TestName: "HbA1c"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCreateMedication_DefaultStatus(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	m := &Medication{PatientID: uuid.New(), Name: "Metformin"}
	if err := svc.CreateMedication(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.meds[m.ID]; !ok {
		t.Fatal("medication not stored")
	}
}

func TestListRecords_ScopedToPatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p1, p2 := uuid.New(), uuid.New()
	svc.CreateRecord(ctx, &MedicalRecord{PatientID: p1, RecordType: "visit", Title: "p1 note"})
	svc.CreateRecord(ctx, &MedicalRecord{PatientID: p2, RecordType: "visit", Title: "p2 note"})

	items, total, err := svc.ListRecords(ctx, p1, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].PatientID != p1 {
		t.Errorf("list leaked records: total=%d items=%+v", total, items)
	}
}
