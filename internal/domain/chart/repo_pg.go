package chart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) countByPatient(ctx context.Context, table string, patientID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE patient_id = $1`, patientID).Scan(&total)
	return total, err
}

// -- Medical records --

const recordCols = `id, patient_id, record_type, title, body, recorded_at, author_id, created_at, updated_at`

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.PatientID, &m.RecordType, &m.Title, &m.Body,
		&m.RecordedAt, &m.AuthorID, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) CreateRecord(ctx context.Context, m *MedicalRecord) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_records (id, patient_id, record_type, title, body, recorded_at, author_id)
		VALUES ($1,$2,$3,$4,$5,COALESCE($6, NOW()),$7)`,
		m.ID, m.PatientID, m.RecordType, m.Title, m.Body, nullTime(m.RecordedAt), m.AuthorID)
	return err
}

func (r *repoPG) GetRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
}

func (r *repoPG) ListRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	total, err := r.countByPatient(ctx, "medical_records", patientID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM medical_records
		WHERE patient_id = $1 ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repoPG) UpdateRecord(ctx context.Context, m *MedicalRecord) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE medical_records SET record_type=$2, title=$3, body=$4, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.RecordType, m.Title, m.Body)
	return err
}

func (r *repoPG) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	return err
}

// -- Lab results --

const labCols = `id, patient_id, test_name, category, result_value, unit,
	reference_low, reference_high, abnormal_flag, collected_at, reported_at, created_at, updated_at`

func scanLab(row pgx.Row) (*LabResult, error) {
	var l LabResult
	err := row.Scan(&l.ID, &l.PatientID, &l.TestName, &l.Category, &l.ResultValue, &l.Unit,
		&l.ReferenceLow, &l.ReferenceHigh, &l.AbnormalFlag, &l.CollectedAt, &l.ReportedAt,
		&l.CreatedAt, &l.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) CreateLab(ctx context.Context, l *LabResult) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lab_results (id, patient_id, test_name, category, result_value, unit,
			reference_low, reference_high, abnormal_flag, collected_at, reported_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		l.ID, l.PatientID, l.TestName, l.Category, l.ResultValue, l.Unit,
		l.ReferenceLow, l.ReferenceHigh, l.AbnormalFlag, l.CollectedAt, l.ReportedAt)
	return err
}

func (r *repoPG) GetLab(ctx context.Context, id uuid.UUID) (*LabResult, error) {
	return scanLab(r.pool.QueryRow(ctx, `SELECT `+labCols+` FROM lab_results WHERE id = $1`, id))
}

func (r *repoPG) ListLabs(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabResult, int, error) {
	total, err := r.countByPatient(ctx, "lab_results", patientID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+labCols+` FROM lab_results
		WHERE patient_id = $1 ORDER BY reported_at DESC NULLS LAST LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*LabResult
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *repoPG) UpdateLab(ctx context.Context, l *LabResult) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE lab_results SET test_name=$2, category=$3, result_value=$4, unit=$5,
			reference_low=$6, reference_high=$7, abnormal_flag=$8,
			collected_at=$9, reported_at=$10, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.TestName, l.Category, l.ResultValue, l.Unit,
		l.ReferenceLow, l.ReferenceHigh, l.AbnormalFlag, l.CollectedAt, l.ReportedAt)
	return err
}

func (r *repoPG) DeleteLab(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lab_results WHERE id = $1`, id)
	return err
}

// -- Medications --

const medicationCols = `id, patient_id, name, dosage, frequency, route, status,
	start_date, end_date, prescriber, note, created_at, updated_at`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Frequency, &m.Route, &m.Status,
		&m.StartDate, &m.EndDate, &m.Prescriber, &m.Note, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) CreateMedication(ctx context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = "active"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medications (id, patient_id, name, dosage, frequency, route, status,
			start_date, end_date, prescriber, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.PatientID, m.Name, m.Dosage, m.Frequency, m.Route, m.Status,
		m.StartDate, m.EndDate, m.Prescriber, m.Note)
	return err
}

func (r *repoPG) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return scanMedication(r.pool.QueryRow(ctx, `SELECT `+medicationCols+` FROM medications WHERE id = $1`, id))
}

func (r *repoPG) ListMedications(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	total, err := r.countByPatient(ctx, "medications", patientID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+medicationCols+` FROM medications
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repoPG) UpdateMedication(ctx context.Context, m *Medication) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE medications SET name=$2, dosage=$3, frequency=$4, route=$5, status=$6,
			start_date=$7, end_date=$8, prescriber=$9, note=$10, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Dosage, m.Frequency, m.Route, m.Status,
		m.StartDate, m.EndDate, m.Prescriber, m.Note)
	return err
}

func (r *repoPG) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	return err
}

// -- Care reminders --

const reminderCols = `id, patient_id, title, description, due_date, status, created_at, updated_at`

func scanReminder(row pgx.Row) (*CareReminder, error) {
	var cr CareReminder
	err := row.Scan(&cr.ID, &cr.PatientID, &cr.Title, &cr.Description,
		&cr.DueDate, &cr.Status, &cr.CreatedAt, &cr.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *repoPG) CreateReminder(ctx context.Context, cr *CareReminder) error {
	if cr.ID == uuid.Nil {
		cr.ID = uuid.New()
	}
	if cr.Status == "" {
		cr.Status = "due"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO care_reminders (id, patient_id, title, description, due_date, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		cr.ID, cr.PatientID, cr.Title, cr.Description, cr.DueDate, cr.Status)
	return err
}

func (r *repoPG) GetReminder(ctx context.Context, id uuid.UUID) (*CareReminder, error) {
	return scanReminder(r.pool.QueryRow(ctx, `SELECT `+reminderCols+` FROM care_reminders WHERE id = $1`, id))
}

func (r *repoPG) ListReminders(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CareReminder, int, error) {
	total, err := r.countByPatient(ctx, "care_reminders", patientID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderCols+` FROM care_reminders
		WHERE patient_id = $1 ORDER BY due_date NULLS LAST LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*CareReminder
	for rows.Next() {
		cr, err := scanReminder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, cr)
	}
	return out, total, rows.Err()
}

func (r *repoPG) UpdateReminder(ctx context.Context, cr *CareReminder) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE care_reminders SET title=$2, description=$3, due_date=$4, status=$5, updated_at=NOW()
		WHERE id = $1`,
		cr.ID, cr.Title, cr.Description, cr.DueDate, cr.Status)
	return err
}

func (r *repoPG) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM care_reminders WHERE id = $1`, id)
	return err
}

// -- Diet plans --

const dietPlanCols = `id, patient_id, title, instructions, calories_per_day, status,
	starts_on, ends_on, created_at, updated_at`

func scanDietPlan(row pgx.Row) (*DietPlan, error) {
	var d DietPlan
	err := row.Scan(&d.ID, &d.PatientID, &d.Title, &d.Instructions, &d.CaloriesPerDay,
		&d.Status, &d.StartsOn, &d.EndsOn, &d.CreatedAt, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) CreateDietPlan(ctx context.Context, d *DietPlan) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = "active"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO diet_plans (id, patient_id, title, instructions, calories_per_day, status, starts_on, ends_on)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.PatientID, d.Title, d.Instructions, d.CaloriesPerDay, d.Status, d.StartsOn, d.EndsOn)
	return err
}

func (r *repoPG) GetDietPlan(ctx context.Context, id uuid.UUID) (*DietPlan, error) {
	return scanDietPlan(r.pool.QueryRow(ctx, `SELECT `+dietPlanCols+` FROM diet_plans WHERE id = $1`, id))
}

func (r *repoPG) ListDietPlans(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*DietPlan, int, error) {
	total, err := r.countByPatient(ctx, "diet_plans", patientID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+dietPlanCols+` FROM diet_plans
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*DietPlan
	for rows.Next() {
		d, err := scanDietPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *repoPG) UpdateDietPlan(ctx context.Context, d *DietPlan) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE diet_plans SET title=$2, instructions=$3, calories_per_day=$4, status=$5,
			starts_on=$6, ends_on=$7, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Title, d.Instructions, d.CaloriesPerDay, d.Status, d.StartsOn, d.EndsOn)
	return err
}

func (r *repoPG) DeleteDietPlan(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM diet_plans WHERE id = $1`, id)
	return err
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
