package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type mockRepo struct {
	metrics   *Metrics
	usage     map[string]int
	totals    []TherapistTotals
	weekdays  []WeekdayTotals
	types     *PatientTypes
	err       error
	lastRange Range
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		metrics: &Metrics{Patients: 3, Sessions: 8, Revenue: decimal.RequireFromString("400")},
		usage:   map[string]int{"Cash": 5, UnassignedPaymentType: 3},
		totals: []TherapistTotals{
			{ID: 1, Name: "Quispe Rojas, Ana", Sessions: 6, Revenue: decimal.RequireFromString("300")},
			{ID: 2, Name: "Flores, Luis", Sessions: 2, Revenue: decimal.RequireFromString("100")},
		},
		weekdays: []WeekdayTotals{
			{Weekday: time.Monday, Sessions: 5, Revenue: decimal.RequireFromString("250")},
			{Weekday: time.Friday, Sessions: 3, Revenue: decimal.RequireFromString("150")},
		},
		types: &PatientTypes{C: 6, CC: 2},
	}
}

func (m *mockRepo) Metrics(_ context.Context, r Range) (*Metrics, error) {
	m.lastRange = r
	return m.metrics, m.err
}

func (m *mockRepo) PaymentTypeUsage(context.Context, Range) (map[string]int, error) {
	return m.usage, nil
}

func (m *mockRepo) TherapistTotals(context.Context, Range) ([]TherapistTotals, error) {
	return m.totals, nil
}

func (m *mockRepo) WeekdayTotals(context.Context, Range) ([]WeekdayTotals, error) {
	return m.weekdays, nil
}

func (m *mockRepo) PatientTypes(context.Context, Range) (*PatientTypes, error) {
	return m.types, nil
}

func TestParseRange(t *testing.T) {
	if _, err := ParseRange("2025-01-01", "2025-01-31"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseRange("2025-01-01", "2025-01-01"); err != nil {
		t.Errorf("single-day range: unexpected error: %v", err)
	}
	bad := [][2]string{
		{"", "2025-01-31"},
		{"2025-01-01", ""},
		{"01/01/2025", "2025-01-31"},
		{"2025-01-01", "2025-02-30"},
		{"2025-02-01", "2025-01-01"},
	}
	for _, b := range bad {
		if _, err := ParseRange(b[0], b[1]); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("ParseRange(%q, %q): expected ErrInvalidRange, got %v", b[0], b[1], err)
		}
	}
}

func TestRateTherapists(t *testing.T) {
	got := RateTherapists([]TherapistTotals{
		{ID: 1, Name: "A", Sessions: 6, Revenue: decimal.RequireFromString("300")},
		{ID: 2, Name: "B", Sessions: 2, Revenue: decimal.RequireFromString("100")},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 therapists, got %d", len(got))
	}
	if got[0].Rating != 5 {
		t.Errorf("expected top rating 5, got %v", got[0].Rating)
	}
	if got[1].Rating != 1.67 {
		t.Errorf("expected 1.67, got %v", got[1].Rating)
	}
}

func TestRateTherapists_ZeroRevenue(t *testing.T) {
	got := RateTherapists([]TherapistTotals{
		{ID: 1, Sessions: 3, Revenue: decimal.Zero},
		{ID: 2, Sessions: 1, Revenue: decimal.Zero},
	})
	if got[0].Rating != 5 || got[1].Rating != 1.67 {
		t.Errorf("unexpected ratings: %v, %v", got[0].Rating, got[1].Rating)
	}
	if got[0].Name != "Unnamed" {
		t.Errorf("expected placeholder name, got %q", got[0].Name)
	}
}

func TestRateTherapists_RevenueWeight(t *testing.T) {
	got := RateTherapists([]TherapistTotals{
		{ID: 1, Sessions: 2, Revenue: decimal.RequireFromString("300")},
		{ID: 2, Sessions: 2, Revenue: decimal.RequireFromString("100")},
	})
	// avg sessions 2, avg revenue 200: raw 1.15 and 0.85
	if got[0].Rating != 5 {
		t.Errorf("expected 5, got %v", got[0].Rating)
	}
	if got[1].Rating != 3.7 {
		t.Errorf("expected 3.7, got %v", got[1].Rating)
	}
}

func TestRateTherapists_Empty(t *testing.T) {
	got := RateTherapists(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestSummariseWeekdays(t *testing.T) {
	got := SummariseWeekdays([]WeekdayTotals{
		{Weekday: time.Sunday, Sessions: 1, Revenue: decimal.RequireFromString("20")},
		{Weekday: time.Wednesday, Sessions: 4, Revenue: decimal.RequireFromString("80.50")},
	})
	if len(got) != 7 {
		t.Fatalf("expected 7 days, got %d", len(got))
	}
	if got[0].Day != "Sunday" || got[6].Day != "Saturday" {
		t.Errorf("unexpected day order: %s..%s", got[0].Day, got[6].Day)
	}
	if got[3].Sessions != 4 || !got[3].Revenue.Equal(decimal.RequireFromString("80.50")) {
		t.Errorf("unexpected Wednesday: %+v", got[3])
	}
	if got[1].Sessions != 0 || !got[1].Revenue.IsZero() {
		t.Errorf("expected empty Monday, got %+v", got[1])
	}
}

func TestService_Report(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	r := Range{Start: "2025-01-01", End: "2025-01-31"}

	report, err := svc.Report(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastRange != r {
		t.Errorf("expected range %v passed to repo, got %v", r, repo.lastRange)
	}
	if report.Metrics.Sessions != 8 || report.Metrics.Patients != 3 {
		t.Errorf("unexpected metrics: %+v", report.Metrics)
	}
	if report.PaymentTypes[UnassignedPaymentType] != 3 {
		t.Errorf("expected unassigned payment type count, got %v", report.PaymentTypes)
	}
	if len(report.Therapists) != 2 || report.Therapists[0].Rating != 5 {
		t.Errorf("unexpected therapists: %+v", report.Therapists)
	}
	if report.Weekdays[time.Monday].Sessions != 5 {
		t.Errorf("unexpected weekdays: %+v", report.Weekdays)
	}
	if report.PatientTypes.C != 6 || report.PatientTypes.CC != 2 {
		t.Errorf("unexpected patient types: %+v", report.PatientTypes)
	}
}

func TestService_Report_Error(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("connection refused")

	if _, err := NewService(repo).Report(context.Background(), Range{Start: "2025-01-01", End: "2025-01-31"}); err == nil {
		t.Fatal("expected error")
	}
}
