package ticket

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id int64) (*Ticket, error)
	GetByNumber(ctx context.Context, number string) (*Ticket, error)
	// LockActiveByAppointment returns the live ticket of an appointment and
	// holds a row lock on it until the surrounding transaction ends.
	LockActiveByAppointment(ctx context.Context, appointmentID int64) (*Ticket, error)
	UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal) error
	// TransitionStatus moves a ticket from one status to another and fails
	// with ErrInvalidTransition when the stored status is no longer from.
	TransitionStatus(ctx context.Context, id int64, from, to string) error
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Ticket, int, error)
	Stats(ctx context.Context) (*Stats, error)
}
