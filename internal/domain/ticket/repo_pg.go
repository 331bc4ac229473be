package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/db"
)

const activeAppointmentConstraint = "tickets_active_appointment_key"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const ticketCols = `id, appointment_id, ticket_number, payment_date, amount, payment_method,
	description, status, is_active, deleted_at, created_at, updated_at`

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.AppointmentID, &t.TicketNumber, &t.PaymentDate, &t.Amount, &t.PaymentMethod,
		&t.Description, &t.Status, &t.IsActive, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Ticket) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO tickets (appointment_id, ticket_number, amount, payment_method, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, payment_date, is_active, created_at, updated_at`,
		t.AppointmentID, t.TicketNumber, t.Amount, t.PaymentMethod, t.Description, t.Status,
	).Scan(&t.ID, &t.PaymentDate, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if db.IsUniqueViolation(err, activeAppointmentConstraint) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.TicketNumber, err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Ticket, error) {
	return scanTicket(r.conn(ctx).QueryRow(ctx, `SELECT `+ticketCols+` FROM tickets WHERE id = $1`, id))
}

func (r *repoPG) GetByNumber(ctx context.Context, number string) (*Ticket, error) {
	return scanTicket(r.conn(ctx).QueryRow(ctx, `SELECT `+ticketCols+` FROM tickets WHERE ticket_number = $1`, number))
}

func (r *repoPG) LockActiveByAppointment(ctx context.Context, appointmentID int64) (*Ticket, error) {
	return scanTicket(r.conn(ctx).QueryRow(ctx, `
		SELECT `+ticketCols+` FROM tickets
		WHERE appointment_id = $1 AND deleted_at IS NULL
		FOR UPDATE`, appointmentID))
}

func (r *repoPG) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE tickets SET amount = $2, updated_at = NOW() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("update ticket %d amount: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) TransitionStatus(ctx context.Context, id int64, from, to string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE tickets SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL`, id, from, to)
	if err != nil {
		return fmt.Errorf("update ticket %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE tickets SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Restore(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE tickets SET is_active = TRUE, deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if db.IsUniqueViolation(err, activeAppointmentConstraint) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("restore ticket %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Ticket, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if params["include_deleted"] != "true" {
		where += ` AND deleted_at IS NULL`
	}
	if p, ok := params["status"]; ok {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["payment_method"]; ok {
		where += fmt.Sprintf(` AND payment_method = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["payment_date"]; ok {
		where += fmt.Sprintf(` AND payment_date::date = $%d::date`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["appointment_id"]; ok {
		where += fmt.Sprintf(` AND appointment_id = $%d::bigint`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["is_active"]; ok {
		where += fmt.Sprintf(` AND is_active = $%d::boolean`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["search"]; ok {
		where += fmt.Sprintf(` AND (ticket_number ILIKE $%d OR description ILIKE $%d)`, idx, idx)
		args = append(args, "%"+p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	query := `SELECT ` + ticketCols + ` FROM tickets` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search tickets: %w", err)
	}
	defer rows.Close()
	var items []*Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'refunded'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)
		FROM tickets WHERE deleted_at IS NULL`,
	).Scan(&s.TotalTickets, &s.PaidTickets, &s.PendingTickets, &s.CancelledTickets, &s.RefundedTickets,
		&s.PaidAmount, &s.PendingAmount)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	return &s, nil
}
