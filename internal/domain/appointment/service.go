package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/db"
)

// DefaultSlotMinutes is the session length assumed by CheckAvailability.
const DefaultSlotMinutes = 60

type Service struct {
	appointments AppointmentRepository
	statuses     StatusRepository
	tx           db.Transactor
	reactor      TicketReactor
	tickets      TicketLifecycle
}

func NewService(appt AppointmentRepository, statuses StatusRepository, tx db.Transactor, reactor TicketReactor, tickets TicketLifecycle) *Service {
	return &Service{
		appointments: appt,
		statuses:     statuses,
		tx:           tx,
		reactor:      reactor,
		tickets:      tickets,
	}
}

// -- Appointment --

func validateAppointment(a *Appointment) error {
	if a.PatientID <= 0 {
		return invalidf("patient_id is required")
	}
	if a.TherapistID <= 0 {
		return invalidf("therapist_id is required")
	}
	if a.AppointmentDate == "" {
		return invalidf("appointment_date is required")
	}
	if _, err := time.Parse(DateLayout, a.AppointmentDate); err != nil {
		return invalidf("appointment_date must be YYYY-MM-DD")
	}
	if a.AppointmentHour == "" {
		return invalidf("appointment_hour is required")
	}
	hour, err := parseHour(a.AppointmentHour)
	if err != nil {
		return err
	}
	a.AppointmentHour = hour
	if a.InitialDate != nil {
		if _, err := time.Parse(DateLayout, *a.InitialDate); err != nil {
			return invalidf("initial_date must be YYYY-MM-DD")
		}
	}
	if a.FinalDate != nil {
		if _, err := time.Parse(DateLayout, *a.FinalDate); err != nil {
			return invalidf("final_date must be YYYY-MM-DD")
		}
	}
	if a.InitialDate != nil && a.FinalDate != nil && *a.FinalDate < *a.InitialDate {
		return invalidf("final_date must not be before initial_date")
	}
	if a.Payment.Valid && a.Payment.Decimal.IsNegative() {
		return invalidf("payment must not be negative")
	}
	return nil
}

// parseHour accepts HH:MM or HH:MM:SS and normalises to HH:MM.
func parseHour(s string) (string, error) {
	for _, layout := range []string{HourLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(HourLayout), nil
		}
	}
	return "", invalidf("appointment_hour must be HH:MM")
}

// CreateAppointment inserts the appointment and issues its ticket in one
// transaction. If the ticket cannot be issued nothing is stored.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if err := validateAppointment(a); err != nil {
		return err
	}
	a.TicketNumber = nil
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		return s.reactor.OnAppointmentCreated(ctx, a)
	})
	if err != nil {
		a.ID = 0
		a.TicketNumber = nil
		return err
	}
	zerolog.Ctx(ctx).Info().
		Int64("appointment_id", a.ID).
		Str("ticket_number", deref(a.TicketNumber)).
		Msg("appointment created")
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateAppointment saves the appointment and synchronises its ticket in
// one transaction. The stored ticket number is never overwritten.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if err := validateAppointment(a); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		return s.reactor.OnAppointmentUpdated(ctx, a)
	})
}

// DeleteAppointment soft-deletes the appointment together with its ticket.
func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.tickets.DeleteForAppointment(ctx, id)
	})
}

// CancelAppointment moves the appointment to the Cancelled status and
// cancels its ticket if it is still pending.
func (s *Service) CancelAppointment(ctx context.Context, id int64) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		st, err := s.statuses.GetByName(ctx, CancelledStatusName)
		if err != nil {
			return fmt.Errorf("resolve %q status: %w", CancelledStatusName, err)
		}
		if err := s.appointments.SetStatus(ctx, id, st.ID); err != nil {
			return err
		}
		if err := s.tickets.CancelForAppointment(ctx, id); err != nil {
			return err
		}
		out, err = s.appointments.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) SearchAppointments(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.Search(ctx, params, limit, offset)
}

func (s *Service) ListCompleted(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.Search(ctx, withParam(params, "when", "completed"), limit, offset)
}

func (s *Service) ListPending(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.Search(ctx, withParam(params, "when", "pending"), limit, offset)
}

func (s *Service) ListByDateRange(ctx context.Context, start, end string, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	if start == "" || end == "" {
		return nil, 0, invalidf("start_date and end_date are required")
	}
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, 0, invalidf("start_date must be YYYY-MM-DD")
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, 0, invalidf("end_date must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, 0, invalidf("end_date must not be before start_date")
	}
	params = withParam(params, "start_date", start)
	params["end_date"] = end
	return s.appointments.Search(ctx, params, limit, offset)
}

// CheckAvailability reports whether a session of duration minutes starting
// at hour on date overlaps any live appointment, assuming booked sessions
// last the same duration. A nil therapistID checks every therapist.
func (s *Service) CheckAvailability(ctx context.Context, date, hour string, duration int, therapistID *int64) (*Availability, error) {
	if date == "" || hour == "" {
		return nil, invalidf("date and hour are required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, invalidf("date must be YYYY-MM-DD")
	}
	start, err := time.Parse(HourLayout, hour)
	if err != nil {
		return nil, invalidf("hour must be HH:MM")
	}
	if duration == 0 {
		duration = DefaultSlotMinutes
	}
	if duration < 0 || duration > 24*60 {
		return nil, invalidf("duration must be between 1 and 1440 minutes")
	}

	booked, err := s.appointments.ListOnDate(ctx, date, therapistID)
	if err != nil {
		return nil, err
	}

	window := time.Duration(duration) * time.Minute
	conflicts := []*Appointment{}
	for _, a := range booked {
		at, err := time.Parse(HourLayout, a.AppointmentHour)
		if err != nil {
			continue
		}
		gap := at.Sub(start)
		if gap < 0 {
			gap = -gap
		}
		if gap < window {
			conflicts = append(conflicts, a)
		}
	}

	return &Availability{
		Date:      date,
		Hour:      start.Format(HourLayout),
		Duration:  duration,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func withParam(params map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out[key] = value
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// -- Appointment Status --

func (s *Service) CreateStatus(ctx context.Context, st *AppointmentStatus) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return invalidf("name is required")
	}
	if len(st.Name) > 50 {
		return invalidf("name must be at most 50 characters")
	}
	st.IsActive = true
	return s.statuses.Create(ctx, st)
}

func (s *Service) GetStatus(ctx context.Context, id int64) (*AppointmentStatus, error) {
	return s.statuses.GetByID(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, st *AppointmentStatus) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return invalidf("name is required")
	}
	if len(st.Name) > 50 {
		return invalidf("name must be at most 50 characters")
	}
	return s.statuses.Update(ctx, st)
}

func (s *Service) ActivateStatus(ctx context.Context, id int64) (*AppointmentStatus, error) {
	return s.setStatusActive(ctx, id, true)
}

func (s *Service) DeactivateStatus(ctx context.Context, id int64) (*AppointmentStatus, error) {
	return s.setStatusActive(ctx, id, false)
}

func (s *Service) setStatusActive(ctx context.Context, id int64, active bool) (*AppointmentStatus, error) {
	if err := s.statuses.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.statuses.GetByID(ctx, id)
}

func (s *Service) ListStatuses(ctx context.Context, params map[string]string, limit, offset int) ([]*AppointmentStatus, int, error) {
	return s.statuses.List(ctx, params, limit, offset)
}

// IsNotFound reports whether err means the appointment or status is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrStatusNotFound)
}
