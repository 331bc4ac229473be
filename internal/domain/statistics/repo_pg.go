package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const inRange = `a.deleted_at IS NULL AND a.appointment_date BETWEEN $1::date AND $2::date`

func (r *repoPG) Metrics(ctx context.Context, rg Range) (*Metrics, error) {
	var m Metrics
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(DISTINCT a.patient_id), COUNT(*), COALESCE(SUM(a.payment), 0)
		FROM appointments a WHERE `+inRange, rg.Start, rg.End,
	).Scan(&m.Patients, &m.Sessions, &m.Revenue)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return &m, nil
}

func (r *repoPG) PaymentTypeUsage(ctx context.Context, rg Range) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT COALESCE(pt.name, $3), COUNT(*)
		FROM appointments a
		LEFT JOIN payment_types pt ON pt.id = a.payment_type_id
		WHERE `+inRange+`
		GROUP BY 1`, rg.Start, rg.End, UnassignedPaymentType)
	if err != nil {
		return nil, fmt.Errorf("payment type usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]int)
	for rows.Next() {
		var name string
		var uses int
		if err := rows.Scan(&name, &uses); err != nil {
			return nil, err
		}
		usage[name] = uses
	}
	return usage, rows.Err()
}

func (r *repoPG) TherapistTotals(ctx context.Context, rg Range) ([]TherapistTotals, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT t.id,
			concat_ws(', ', NULLIF(concat_ws(' ', t.last_name_paternal, t.last_name_maternal), ''), t.first_name),
			COUNT(*), COALESCE(SUM(a.payment), 0)
		FROM appointments a
		JOIN therapists t ON t.id = a.therapist_id
		WHERE `+inRange+`
		GROUP BY t.id
		ORDER BY t.id`, rg.Start, rg.End)
	if err != nil {
		return nil, fmt.Errorf("therapist totals: %w", err)
	}
	defer rows.Close()

	var out []TherapistTotals
	for rows.Next() {
		var t TherapistTotals
		if err := rows.Scan(&t.ID, &t.Name, &t.Sessions, &t.Revenue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repoPG) WeekdayTotals(ctx context.Context, rg Range) ([]WeekdayTotals, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT EXTRACT(DOW FROM a.appointment_date)::int, COUNT(*), COALESCE(SUM(a.payment), 0)
		FROM appointments a
		WHERE `+inRange+`
		GROUP BY 1
		ORDER BY 1`, rg.Start, rg.End)
	if err != nil {
		return nil, fmt.Errorf("weekday totals: %w", err)
	}
	defer rows.Close()

	var out []WeekdayTotals
	for rows.Next() {
		var day int
		var w WeekdayTotals
		if err := rows.Scan(&day, &w.Sessions, &w.Revenue); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(day)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *repoPG) PatientTypes(ctx context.Context, rg Range) (*PatientTypes, error) {
	var pt PatientTypes
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE upper(a.appointment_type) = 'C'),
			COUNT(*) FILTER (WHERE upper(a.appointment_type) = 'CC')
		FROM appointments a WHERE `+inRange, rg.Start, rg.End,
	).Scan(&pt.C, &pt.CC)
	if err != nil {
		return nil, fmt.Errorf("patient types: %w", err)
	}
	return &pt, nil
}
