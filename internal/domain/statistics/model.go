package statistics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// UnassignedPaymentType labels appointments without a payment type.
const UnassignedPaymentType = "Unassigned"

var ErrInvalidRange = errors.New("invalid date range")

// Range is an inclusive span of appointment dates.
type Range struct {
	Start string
	End   string
}

type Metrics struct {
	Patients int             `json:"patients"`
	Sessions int             `json:"sessions"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// TherapistTotals is the raw per-therapist aggregate.
type TherapistTotals struct {
	ID       int64
	Name     string
	Sessions int
	Revenue  decimal.Decimal
}

type TherapistPerformance struct {
	ID       int64           `json:"id"`
	Name     string          `json:"therapist"`
	Sessions int             `json:"sessions"`
	Revenue  decimal.Decimal `json:"revenue"`
	Rating   float64         `json:"rating"`
}

// WeekdayTotals holds sessions and revenue for one day of the week.
type WeekdayTotals struct {
	Weekday  time.Weekday
	Sessions int
	Revenue  decimal.Decimal
}

type WeekdaySummary struct {
	Day      string          `json:"day"`
	Sessions int             `json:"sessions"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type PatientTypes struct {
	C  int `json:"c"`
	CC int `json:"cc"`
}

// Report is the dashboard payload for a date range.
type Report struct {
	Start        string                 `json:"start"`
	End          string                 `json:"end"`
	Metrics      Metrics                `json:"metrics"`
	PaymentTypes map[string]int         `json:"payment_types"`
	Therapists   []TherapistPerformance `json:"therapists"`
	Weekdays     []WeekdaySummary       `json:"weekdays"`
	PatientTypes PatientTypes           `json:"patient_types"`
}
