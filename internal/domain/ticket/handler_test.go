package ticket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	return NewHandler(env.svc), env, echo.New()
}

func newIDContext(e *echo.Echo, method string, id int64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(id, 10))
	return c, rec
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestHandler_GetTicket(t *testing.T) {
	h, env, e := newTestHandler()
	tk := env.issue(t, paidAppointment(1, "40.00"))

	c, rec := newIDContext(e, http.MethodGet, tk.ID)
	if err := h.GetTicket(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got Ticket
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TicketNumber != tk.TicketNumber {
		t.Errorf("expected %s, got %s", tk.TicketNumber, got.TicketNumber)
	}
}

func TestHandler_GetTicket_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := newIDContext(e, http.MethodGet, 404)
	expectHTTPError(t, h.GetTicket(c), http.StatusNotFound)
}

func TestHandler_GetTicket_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	expectHTTPError(t, h.GetTicket(c), http.StatusBadRequest)
}

func TestHandler_GetTicketByNumber(t *testing.T) {
	h, env, e := newTestHandler()
	tk := env.issue(t, paidAppointment(1, "40.00"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("number")
	c.SetParamValues(tk.TicketNumber)

	if err := h.GetTicketByNumber(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_ListTickets(t *testing.T) {
	h, env, e := newTestHandler()
	for i := int64(1); i <= 3; i++ {
		env.issue(t, paidAppointment(i, "10"))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListTickets(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []Ticket `json:"data"`
		Total int      `json:"total"`
		Next  *string  `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 3 || len(body.Data) != 2 {
		t.Errorf("expected 2 of 3 tickets, got %d of %d", len(body.Data), body.Total)
	}
	if body.Next == nil {
		t.Error("expected next link")
	}
}

func TestHandler_ListTickets_InvalidFilter(t *testing.T) {
	h, _, e := newTestHandler()
	for _, q := range []string{"payment_date=07-03-2025", "appointment_id=x", "is_active=maybe", "status=lost"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets?"+q, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		expectHTTPError(t, h.ListTickets(c), http.StatusBadRequest)
	}
}

func TestHandler_ListPaid(t *testing.T) {
	h, env, e := newTestHandler()
	tk := env.issue(t, paidAppointment(1, "10"))
	env.issue(t, paidAppointment(2, "10"))
	if _, err := env.svc.MarkPaid(context.Background(), tk.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/paid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.listByStatus(StatusPaid)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Total != 1 {
		t.Errorf("expected 1 paid ticket, got %d", body.Total)
	}
}

func TestHandler_ListByPaymentMethod_Required(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/by-payment-method", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	expectHTTPError(t, h.ListByPaymentMethod(c), http.StatusBadRequest)
}

func TestHandler_MarkPaid(t *testing.T) {
	h, env, e := newTestHandler()
	tk := env.issue(t, paidAppointment(1, "40.00"))

	c, rec := newIDContext(e, http.MethodPost, tk.ID)
	if err := h.MarkPaid(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = newIDContext(e, http.MethodPost, tk.ID)
	expectHTTPError(t, h.MarkPaid(c), http.StatusConflict)
}

func TestHandler_Refund_Pending(t *testing.T) {
	h, env, e := newTestHandler()
	tk := env.issue(t, paidAppointment(1, "40.00"))

	c, _ := newIDContext(e, http.MethodPost, tk.ID)
	expectHTTPError(t, h.Refund(c), http.StatusConflict)
}

func TestHandler_DeleteAndRestore(t *testing.T) {
	h, env, e := newTestHandler()
	tk := env.issue(t, paidAppointment(1, "40.00"))

	c, rec := newIDContext(e, http.MethodDelete, tk.ID)
	if err := h.DeleteTicket(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c, rec = newIDContext(e, http.MethodPost, tk.ID)
	if err := h.RestoreTicket(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Statistics(t *testing.T) {
	h, env, e := newTestHandler()
	env.issue(t, paidAppointment(1, "40.00"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/statistics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Statistics(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var st Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.TotalTickets != 1 || st.PendingTickets != 1 {
		t.Errorf("unexpected statistics: %+v", st)
	}
}
