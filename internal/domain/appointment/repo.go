package appointment

import "context"

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// Update writes every editable column except ticket_number.
	Update(ctx context.Context, a *Appointment) error
	// SetTicketNumber writes only ticket_number. It is the one write path
	// that never goes through the ticket hooks.
	SetTicketNumber(ctx context.Context, id int64, number string) error
	SetStatus(ctx context.Context, id, statusID int64) error
	SoftDelete(ctx context.Context, id int64) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
	// ListOnDate returns live appointments on date, optionally for one
	// therapist, ordered by hour.
	ListOnDate(ctx context.Context, date string, therapistID *int64) ([]*Appointment, error)
	// ListWithoutTicket returns live appointments that have no live ticket.
	ListWithoutTicket(ctx context.Context, limit int) ([]*Appointment, error)
}

type StatusRepository interface {
	Create(ctx context.Context, s *AppointmentStatus) error
	GetByID(ctx context.Context, id int64) (*AppointmentStatus, error)
	GetByName(ctx context.Context, name string) (*AppointmentStatus, error)
	Update(ctx context.Context, s *AppointmentStatus) error
	SetActive(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*AppointmentStatus, int, error)
}
