package ticket

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/appointment"
	"github.com/clinic/clinic/internal/platform/db"
)

// AppointmentLister finds appointments that still need a ticket.
type AppointmentLister interface {
	ListWithoutTicket(ctx context.Context, limit int) ([]*appointment.Appointment, error)
}

type Service struct {
	tickets Repository
	reactor *Reactor
	tx      db.Transactor
	pending AppointmentLister
}

func NewService(tickets Repository, reactor *Reactor, tx db.Transactor, pending AppointmentLister) *Service {
	return &Service{tickets: tickets, reactor: reactor, tx: tx, pending: pending}
}

func (s *Service) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

func (s *Service) GetTicketByNumber(ctx context.Context, number string) (*Ticket, error) {
	return s.tickets.GetByNumber(ctx, number)
}

func (s *Service) SearchTickets(ctx context.Context, params map[string]string, limit, offset int) ([]*Ticket, int, error) {
	if st, ok := params["status"]; ok && !validStatuses[st] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, st)
	}
	return s.tickets.Search(ctx, params, limit, offset)
}

func (s *Service) MarkPaid(ctx context.Context, id int64) (*Ticket, error) {
	return s.transition(ctx, id, StatusPaid)
}

func (s *Service) MarkCancelled(ctx context.Context, id int64) (*Ticket, error) {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *Service) Refund(ctx context.Context, id int64) (*Ticket, error) {
	return s.transition(ctx, id, StatusRefunded)
}

func (s *Service) transition(ctx context.Context, id int64, to string) (*Ticket, error) {
	var out *Ticket
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.tickets.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t.DeletedAt != nil {
			return ErrNotFound
		}
		if !CanTransition(t.Status, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, to)
		}
		if err := s.tickets.TransitionStatus(ctx, id, t.Status, to); err != nil {
			return err
		}
		out, err = s.tickets.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Int64("ticket_id", id).
		Str("ticket_number", out.TicketNumber).
		Str("status", to).
		Msg("ticket status changed")
	return out, nil
}

func (s *Service) DeleteTicket(ctx context.Context, id int64) error {
	return s.tickets.SoftDelete(ctx, id)
}

func (s *Service) RestoreTicket(ctx context.Context, id int64) (*Ticket, error) {
	if err := s.tickets.Restore(ctx, id); err != nil {
		return nil, err
	}
	return s.tickets.GetByID(ctx, id)
}

// Statistics returns live ticket counts and sums. PaidPercentage is
// rounded to two decimals and is zero when there are no tickets.
func (s *Service) Statistics(ctx context.Context) (*Stats, error) {
	st, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st.PaidPercentage = paidPercentage(st.PaidTickets, st.TotalTickets)
	return st, nil
}

func paidPercentage(paid, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(paid)/float64(total)*10000) / 100
}

// Backfill issues tickets for live appointments that have none, one
// transaction per appointment, and returns how many were issued.
func (s *Service) Backfill(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	log := zerolog.Ctx(ctx)
	issued := 0
	for {
		batch, err := s.pending.ListWithoutTicket(ctx, batchSize)
		if err != nil {
			return issued, fmt.Errorf("list appointments without ticket: %w", err)
		}
		if len(batch) == 0 {
			return issued, nil
		}
		for _, a := range batch {
			var t *Ticket
			err := s.tx.WithTx(ctx, func(ctx context.Context) error {
				var err error
				t, err = s.reactor.Backfill(ctx, a)
				return err
			})
			if err != nil {
				return issued, err
			}
			issued++
			log.Info().
				Int64("appointment_id", a.ID).
				Str("ticket_number", t.TicketNumber).
				Msg("ticket backfilled")
		}
	}
}
