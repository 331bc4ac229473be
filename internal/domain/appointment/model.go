package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout = "2006-01-02"
	HourLayout = "15:04"

	// CancelledStatusName is the appointment status applied by Cancel.
	CancelledStatusName = "Cancelled"
)

var (
	ErrNotFound       = errors.New("appointment not found")
	ErrStatusNotFound = errors.New("appointment status not found")
	ErrDuplicateName  = errors.New("appointment status name already exists")
)

// ValidationError reports unusable input.
type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Appointment maps to the appointments table. Dates travel as YYYY-MM-DD
// and the hour as HH:MM. TicketNumber is written only by the ticket
// reactor.
type Appointment struct {
	ID                     int64               `db:"id" json:"id"`
	PatientID              int64               `db:"patient_id" json:"patient_id"`
	TherapistID            int64               `db:"therapist_id" json:"therapist_id"`
	AppointmentDate        string              `db:"appointment_date" json:"appointment_date"`
	AppointmentHour        string              `db:"appointment_hour" json:"appointment_hour"`
	Ailments               *string             `db:"ailments" json:"ailments,omitempty"`
	Diagnosis              *string             `db:"diagnosis" json:"diagnosis,omitempty"`
	Surgeries              *string             `db:"surgeries" json:"surgeries,omitempty"`
	ReflexologyDiagnostics *string             `db:"reflexology_diagnostics" json:"reflexology_diagnostics,omitempty"`
	Medications            *string             `db:"medications" json:"medications,omitempty"`
	Observation            *string             `db:"observation" json:"observation,omitempty"`
	InitialDate            *string             `db:"initial_date" json:"initial_date,omitempty"`
	FinalDate              *string             `db:"final_date" json:"final_date,omitempty"`
	AppointmentType        *string             `db:"appointment_type" json:"appointment_type,omitempty"`
	Room                   *string             `db:"room" json:"room,omitempty"`
	SocialBenefit          *string             `db:"social_benefit" json:"social_benefit,omitempty"`
	PaymentDetail          *string             `db:"payment_detail" json:"payment_detail,omitempty"`
	Payment                decimal.NullDecimal `db:"payment" json:"payment"`
	TicketNumber           *string             `db:"ticket_number" json:"ticket_number"`
	StatusID               *int64              `db:"appointment_status_id" json:"appointment_status_id,omitempty"`
	PaymentTypeID          *int64              `db:"payment_type_id" json:"payment_type_id,omitempty"`
	IsActive               bool                `db:"is_active" json:"is_active"`
	DeletedAt              *time.Time          `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updated_at"`
}

// AppointmentStatus maps to the appointment_statuses table.
type AppointmentStatus struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Availability is the answer to a slot check.
type Availability struct {
	Date      string         `json:"date"`
	Hour      string         `json:"hour"`
	Duration  int            `json:"duration"`
	Available bool           `json:"available"`
	Conflicts []*Appointment `json:"conflicts"`
}

// TicketReactor keeps the payment ticket of an appointment in step with
// it. Both hooks run inside the transaction that wrote the appointment.
type TicketReactor interface {
	OnAppointmentCreated(ctx context.Context, a *Appointment) error
	OnAppointmentUpdated(ctx context.Context, a *Appointment) error
}

// TicketLifecycle applies staff actions on an appointment to its ticket.
type TicketLifecycle interface {
	CancelForAppointment(ctx context.Context, appointmentID int64) error
	DeleteForAppointment(ctx context.Context, appointmentID int64) error
}
