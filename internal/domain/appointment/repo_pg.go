package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, patient_id, therapist_id, appointment_date::text, to_char(appointment_hour, 'HH24:MI'),
	ailments, diagnosis, surgeries, reflexology_diagnostics, medications, observation,
	initial_date::text, final_date::text, appointment_type, room, social_benefit, payment_detail,
	payment, ticket_number, appointment_status_id, payment_type_id,
	is_active, deleted_at, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.TherapistID, &a.AppointmentDate, &a.AppointmentHour,
		&a.Ailments, &a.Diagnosis, &a.Surgeries, &a.ReflexologyDiagnostics, &a.Medications, &a.Observation,
		&a.InitialDate, &a.FinalDate, &a.AppointmentType, &a.Room, &a.SocialBenefit, &a.PaymentDetail,
		&a.Payment, &a.TicketNumber, &a.StatusID, &a.PaymentTypeID,
		&a.IsActive, &a.DeletedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, therapist_id, appointment_date, appointment_hour,
			ailments, diagnosis, surgeries, reflexology_diagnostics, medications, observation,
			initial_date, final_date, appointment_type, room, social_benefit, payment_detail,
			payment, appointment_status_id, payment_type_id)
		VALUES ($1,$2,$3::date,$4::time,$5,$6,$7,$8,$9,$10,$11::date,$12::date,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id, is_active, created_at, updated_at`,
		a.PatientID, a.TherapistID, a.AppointmentDate, a.AppointmentHour,
		a.Ailments, a.Diagnosis, a.Surgeries, a.ReflexologyDiagnostics, a.Medications, a.Observation,
		a.InitialDate, a.FinalDate, a.AppointmentType, a.Room, a.SocialBenefit, a.PaymentDetail,
		a.Payment, a.StatusID, a.PaymentTypeID,
	).Scan(&a.ID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET patient_id=$2, therapist_id=$3, appointment_date=$4::date,
			appointment_hour=$5::time, ailments=$6, diagnosis=$7, surgeries=$8,
			reflexology_diagnostics=$9, medications=$10, observation=$11,
			initial_date=$12::date, final_date=$13::date, appointment_type=$14, room=$15,
			social_benefit=$16, payment_detail=$17, payment=$18, appointment_status_id=$19,
			payment_type_id=$20, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ticket_number, is_active, created_at, updated_at`,
		a.ID, a.PatientID, a.TherapistID, a.AppointmentDate, a.AppointmentHour,
		a.Ailments, a.Diagnosis, a.Surgeries, a.ReflexologyDiagnostics, a.Medications, a.Observation,
		a.InitialDate, a.FinalDate, a.AppointmentType, a.Room, a.SocialBenefit, a.PaymentDetail,
		a.Payment, a.StatusID, a.PaymentTypeID,
	).Scan(&a.TicketNumber, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", a.ID, err)
	}
	return nil
}

func (r *appointmentRepoPG) SetTicketNumber(ctx context.Context, id int64, number string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET ticket_number = $2 WHERE id = $1`, id, number)
	if err != nil {
		return fmt.Errorf("set ticket number on appointment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) SetStatus(ctx context.Context, id, statusID int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET appointment_status_id = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, statusID)
	if err != nil {
		return fmt.Errorf("set status on appointment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete appointment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE deleted_at IS NULL`
	var args []interface{}
	idx := 1

	eq := map[string]string{
		"appointment_date":      "appointment_date = $%d::date",
		"appointment_status_id": "appointment_status_id = $%d::bigint",
		"patient_id":            "patient_id = $%d::bigint",
		"therapist_id":          "therapist_id = $%d::bigint",
		"appointment_type":      "appointment_type = $%d",
		"room":                  "room = $%d",
		"start_date":            "appointment_date >= $%d::date",
		"end_date":              "appointment_date <= $%d::date",
	}
	for _, key := range searchKeys {
		p, ok := params[key]
		if !ok {
			continue
		}
		where += ` AND ` + fmt.Sprintf(eq[key], idx)
		args = append(args, p)
		idx++
	}
	switch params["when"] {
	case "completed":
		where += ` AND appointment_date < CURRENT_DATE`
	case "pending":
		where += ` AND appointment_date >= CURRENT_DATE`
	}
	if p, ok := params["search"]; ok {
		where += fmt.Sprintf(` AND (ailments ILIKE $%d OR diagnosis ILIKE $%d OR observation ILIKE $%d OR ticket_number ILIKE $%d)`,
			idx, idx, idx, idx)
		args = append(args, "%"+p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := `SELECT ` + apptCols + ` FROM appointments` + where +
		fmt.Sprintf(` ORDER BY appointment_date DESC, appointment_hour DESC, id DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	items, err := r.collect(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// searchKeys fixes the order equality filters are applied in.
var searchKeys = []string{
	"appointment_date", "appointment_status_id", "patient_id", "therapist_id",
	"appointment_type", "room", "start_date", "end_date",
}

func (r *appointmentRepoPG) ListOnDate(ctx context.Context, date string, therapistID *int64) ([]*Appointment, error) {
	return r.collect(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE deleted_at IS NULL AND appointment_date = $1::date
			AND ($2::bigint IS NULL OR therapist_id = $2)
		ORDER BY appointment_hour`, date, therapistID)
}

func (r *appointmentRepoPG) ListWithoutTicket(ctx context.Context, limit int) ([]*Appointment, error) {
	return r.collect(ctx, `
		SELECT `+apptCols+` FROM appointments a
		WHERE a.deleted_at IS NULL AND a.is_active
			AND NOT EXISTS (SELECT 1 FROM tickets t WHERE t.appointment_id = a.id AND t.deleted_at IS NULL)
		ORDER BY a.id
		LIMIT $1`, limit)
}

func (r *appointmentRepoPG) collect(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// =========== Appointment Status Repository ===========

type statusRepoPG struct{ pool *pgxpool.Pool }

func NewStatusRepoPG(pool *pgxpool.Pool) StatusRepository { return &statusRepoPG{pool: pool} }

func (r *statusRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const statusCols = `id, name, description, is_active, created_at, updated_at`

func scanStatus(row pgx.Row) (*AppointmentStatus, error) {
	var s AppointmentStatus
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *statusRepoPG) Create(ctx context.Context, s *AppointmentStatus) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment_statuses (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		s.Name, s.Description, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert appointment status: %w", err)
	}
	return nil
}

func (r *statusRepoPG) GetByID(ctx context.Context, id int64) (*AppointmentStatus, error) {
	return scanStatus(r.conn(ctx).QueryRow(ctx, `SELECT `+statusCols+` FROM appointment_statuses WHERE id = $1`, id))
}

func (r *statusRepoPG) GetByName(ctx context.Context, name string) (*AppointmentStatus, error) {
	return scanStatus(r.conn(ctx).QueryRow(ctx,
		`SELECT `+statusCols+` FROM appointment_statuses WHERE lower(name) = lower($1)`, name))
}

func (r *statusRepoPG) Update(ctx context.Context, s *AppointmentStatus) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment_statuses SET name = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Description, s.IsActive,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStatusNotFound
	}
	if db.IsUniqueViolation(err, "") {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("update appointment status %d: %w", s.ID, err)
	}
	return nil
}

func (r *statusRepoPG) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment_statuses SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set appointment status %d active: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusNotFound
	}
	return nil
}

func (r *statusRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*AppointmentStatus, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["is_active"]; ok {
		where += fmt.Sprintf(` AND is_active = $%d::boolean`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["search"]; ok {
		where += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, idx, idx)
		args = append(args, "%"+p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment_statuses`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointment statuses: %w", err)
	}

	query := `SELECT ` + statusCols + ` FROM appointment_statuses` + where +
		fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointment statuses: %w", err)
	}
	defer rows.Close()
	var items []*AppointmentStatus
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
