package statistics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHandler_GetReport(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics?start=2025-01-01&end=2025-01-31", nil)
	rec := httptest.NewRecorder()

	if err := h.GetReport(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"metrics", "payment_types", "therapists", "weekdays", "patient_types"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected %q in response", key)
		}
	}
}

func TestHandler_GetReport_BadRange(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	e := echo.New()
	for _, q := range []string{"", "start=2025-01-01", "start=2025-02-01&end=2025-01-01", "start=x&end=y"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics?"+q, nil)
		err := h.GetReport(e.NewContext(req, httptest.NewRecorder()))
		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Fatalf("%q: expected echo.HTTPError, got %T", q, err)
		}
		if httpErr.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", q, httpErr.Code)
		}
	}
}
