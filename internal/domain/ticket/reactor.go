package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/domain/appointment"
)

// DefaultPaymentMethod is used when no method is configured.
const DefaultPaymentMethod = "cash"

// TicketNumberWriter patches the ticket number onto an appointment without
// running any appointment hooks.
type TicketNumberWriter interface {
	SetTicketNumber(ctx context.Context, id int64, number string) error
}

// NumberSource issues ticket numbers.
type NumberSource interface {
	Next() string
}

// Reactor creates and synchronises the ticket of an appointment. It
// implements appointment.TicketReactor and appointment.TicketLifecycle and
// expects to run inside the caller's transaction.
type Reactor struct {
	tickets       Repository
	appointments  TicketNumberWriter
	numbers       NumberSource
	paymentMethod string
}

func NewReactor(tickets Repository, appointments TicketNumberWriter, numbers NumberSource, paymentMethod string) *Reactor {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	return &Reactor{
		tickets:       tickets,
		appointments:  appointments,
		numbers:       numbers,
		paymentMethod: paymentMethod,
	}
}

var (
	_ appointment.TicketReactor   = (*Reactor)(nil)
	_ appointment.TicketLifecycle = (*Reactor)(nil)
)

// OnAppointmentCreated issues the ticket of a newly inserted appointment and
// writes its number back onto the appointment.
func (r *Reactor) OnAppointmentCreated(ctx context.Context, a *appointment.Appointment) error {
	t, err := r.issue(ctx, a, fmt.Sprintf("Ticket generated automatically for appointment #%d", a.ID))
	if err != nil {
		return err
	}
	if err := r.appointments.SetTicketNumber(ctx, a.ID, t.TicketNumber); err != nil {
		return fmt.Errorf("link ticket %s to appointment %d: %w", t.TicketNumber, a.ID, err)
	}
	a.TicketNumber = &t.TicketNumber

	zerolog.Ctx(ctx).Debug().
		Int64("appointment_id", a.ID).
		Str("ticket_number", t.TicketNumber).
		Msg("ticket issued")
	return nil
}

// OnAppointmentUpdated brings the ticket amount in line with the appointment
// payment. A missing ticket is recreated without touching the appointment's
// ticket number.
func (r *Reactor) OnAppointmentUpdated(ctx context.Context, a *appointment.Appointment) error {
	t, err := r.tickets.LockActiveByAppointment(ctx, a.ID)
	if errors.Is(err, ErrNotFound) {
		zerolog.Ctx(ctx).Warn().
			Int64("appointment_id", a.ID).
			Msg("appointment has no ticket, issuing a replacement")
		_, err = r.issue(ctx, a, fmt.Sprintf("Ticket generated automatically for appointment #%d", a.ID))
		return err
	}
	if err != nil {
		return fmt.Errorf("load ticket for appointment %d: %w", a.ID, err)
	}

	if !a.Payment.Valid || a.Payment.Decimal.Equal(t.Amount) {
		return nil
	}
	if err := r.tickets.UpdateAmount(ctx, t.ID, a.Payment.Decimal); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().
		Int64("appointment_id", a.ID).
		Str("ticket_number", t.TicketNumber).
		Str("from", t.Amount.String()).
		Str("to", a.Payment.Decimal.String()).
		Msg("ticket amount synchronised")
	return nil
}

// Backfill issues a ticket for an appointment created before tickets
// existed and links it like a fresh creation.
func (r *Reactor) Backfill(ctx context.Context, a *appointment.Appointment) (*Ticket, error) {
	t, err := r.issue(ctx, a, fmt.Sprintf("Ticket generated automatically for appointment #%d (backfill)", a.ID))
	if err != nil {
		return nil, err
	}
	if err := r.appointments.SetTicketNumber(ctx, a.ID, t.TicketNumber); err != nil {
		return nil, fmt.Errorf("link ticket %s to appointment %d: %w", t.TicketNumber, a.ID, err)
	}
	a.TicketNumber = &t.TicketNumber
	return t, nil
}

// CancelForAppointment cancels a pending ticket. Tickets in any other
// status are left alone.
func (r *Reactor) CancelForAppointment(ctx context.Context, appointmentID int64) error {
	t, err := r.tickets.LockActiveByAppointment(ctx, appointmentID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load ticket for appointment %d: %w", appointmentID, err)
	}
	if t.Status != StatusPending {
		zerolog.Ctx(ctx).Info().
			Int64("appointment_id", appointmentID).
			Str("ticket_status", t.Status).
			Msg("ticket not pending, left unchanged on cancel")
		return nil
	}
	return r.tickets.TransitionStatus(ctx, t.ID, StatusPending, StatusCancelled)
}

// DeleteForAppointment soft-deletes the live ticket of an appointment.
func (r *Reactor) DeleteForAppointment(ctx context.Context, appointmentID int64) error {
	t, err := r.tickets.LockActiveByAppointment(ctx, appointmentID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load ticket for appointment %d: %w", appointmentID, err)
	}
	return r.tickets.SoftDelete(ctx, t.ID)
}

func (r *Reactor) issue(ctx context.Context, a *appointment.Appointment, description string) (*Ticket, error) {
	amount := decimal.Zero
	if a.Payment.Valid {
		amount = a.Payment.Decimal
	}
	t := &Ticket{
		AppointmentID: a.ID,
		TicketNumber:  r.numbers.Next(),
		Amount:        amount,
		PaymentMethod: r.paymentMethod,
		Description:   &description,
		Status:        StatusPending,
		IsActive:      true,
	}
	if err := r.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket for appointment %d: %w", a.ID, err)
	}
	return t, nil
}
