package ticket

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

var (
	ErrNotFound          = errors.New("ticket not found")
	ErrInvalidTransition = errors.New("invalid ticket status transition")
	ErrConflict          = errors.New("appointment already has an active ticket")
	ErrInvalidStatus     = errors.New("invalid ticket status")
)

// Ticket maps to the tickets table. Amount mirrors the payment of the
// owning appointment; Status changes only through staff actions.
type Ticket struct {
	ID            int64           `db:"id" json:"id"`
	AppointmentID int64           `db:"appointment_id" json:"appointment_id"`
	TicketNumber  string          `db:"ticket_number" json:"ticket_number"`
	PaymentDate   time.Time       `db:"payment_date" json:"payment_date"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Description   *string         `db:"description" json:"description,omitempty"`
	Status        string          `db:"status" json:"status"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	DeletedAt     *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// transitions lists the statuses reachable from each status.
var transitions = map[string]map[string]bool{
	StatusPending: {StatusPaid: true, StatusCancelled: true},
	StatusPaid:    {StatusRefunded: true},
}

// CanTransition reports whether a ticket in status from may move to to.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

var validStatuses = map[string]bool{
	StatusPending: true, StatusPaid: true, StatusCancelled: true, StatusRefunded: true,
}

// Stats summarises live tickets.
type Stats struct {
	TotalTickets     int             `json:"total_tickets"`
	PaidTickets      int             `json:"paid_tickets"`
	PendingTickets   int             `json:"pending_tickets"`
	CancelledTickets int             `json:"cancelled_tickets"`
	RefundedTickets  int             `json:"refunded_tickets"`
	PaidPercentage   float64         `json:"paid_percentage"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
}
