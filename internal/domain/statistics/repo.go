package statistics

import "context"

// Repository aggregates live appointments whose date falls in a range.
type Repository interface {
	Metrics(ctx context.Context, r Range) (*Metrics, error)
	PaymentTypeUsage(ctx context.Context, r Range) (map[string]int, error)
	TherapistTotals(ctx context.Context, r Range) ([]TherapistTotals, error)
	WeekdayTotals(ctx context.Context, r Range) ([]WeekdayTotals, error)
	PatientTypes(ctx context.Context, r Range) (*PatientTypes, error)
}
