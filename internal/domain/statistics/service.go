package statistics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Rating weights and scale.
const (
	sessionWeight = 0.7
	revenueWeight = 0.3
	maxRating     = 5.0
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ParseRange validates start and end as YYYY-MM-DD with start <= end.
func ParseRange(start, end string) (Range, error) {
	if start == "" || end == "" {
		return Range{}, fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start must be YYYY-MM-DD", ErrInvalidRange)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end must be YYYY-MM-DD", ErrInvalidRange)
	}
	if from.After(to) {
		return Range{}, fmt.Errorf("%w: start must not be after end", ErrInvalidRange)
	}
	return Range{Start: start, End: end}, nil
}

// Report runs the aggregates for r concurrently and assembles them.
func (s *Service) Report(ctx context.Context, r Range) (*Report, error) {
	var (
		metrics   *Metrics
		usage     map[string]int
		totals    []TherapistTotals
		weekdays  []WeekdayTotals
		patientTy *PatientTypes
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		metrics, err = s.repo.Metrics(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		usage, err = s.repo.PaymentTypeUsage(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.repo.TherapistTotals(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		weekdays, err = s.repo.WeekdayTotals(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		patientTy, err = s.repo.PatientTypes(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if usage == nil {
		usage = map[string]int{}
	}
	return &Report{
		Start:        r.Start,
		End:          r.End,
		Metrics:      *metrics,
		PaymentTypes: usage,
		Therapists:   RateTherapists(totals),
		Weekdays:     SummariseWeekdays(weekdays),
		PatientTypes: *patientTy,
	}, nil
}

// RateTherapists scores each therapist as 0.7 of sessions over the mean
// plus 0.3 of revenue over the mean, scaled so the best scores 5. A zero
// mean contributes nothing.
func RateTherapists(totals []TherapistTotals) []TherapistPerformance {
	out := make([]TherapistPerformance, 0, len(totals))
	if len(totals) == 0 {
		return out
	}

	var sessions float64
	revenue := decimal.Zero
	for _, t := range totals {
		sessions += float64(t.Sessions)
		revenue = revenue.Add(t.Revenue)
	}
	n := float64(len(totals))
	avgSessions := sessions / n
	avgRevenue := revenue.InexactFloat64() / n

	raw := make([]float64, len(totals))
	best := 0.0
	for i, t := range totals {
		var score float64
		if avgSessions > 0 {
			score += sessionWeight * float64(t.Sessions) / avgSessions
		}
		if avgRevenue > 0 {
			score += revenueWeight * t.Revenue.InexactFloat64() / avgRevenue
		}
		raw[i] = score
		if score > best {
			best = score
		}
	}

	for i, t := range totals {
		rating := 0.0
		if best > 0 {
			rating = math.Round(raw[i]/best*maxRating*100) / 100
		}
		name := t.Name
		if name == "" {
			name = "Unnamed"
		}
		out = append(out, TherapistPerformance{
			ID:       t.ID,
			Name:     name,
			Sessions: t.Sessions,
			Revenue:  t.Revenue,
			Rating:   rating,
		})
	}
	return out
}

// SummariseWeekdays returns all seven days from Sunday to Saturday, with
// zeros for days without appointments.
func SummariseWeekdays(totals []WeekdayTotals) []WeekdaySummary {
	out := make([]WeekdaySummary, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out[d] = WeekdaySummary{Day: d.String(), Revenue: decimal.Zero}
	}
	for _, w := range totals {
		if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
			continue
		}
		out[w.Weekday].Sessions += w.Sessions
		out[w.Weekday].Revenue = out[w.Weekday].Revenue.Add(w.Revenue)
	}
	return out
}
