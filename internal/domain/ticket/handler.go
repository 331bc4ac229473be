package ticket

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("/tickets", auth.RequireRole(auth.RoleReceptionist, auth.RoleTherapist))
	readGroup.GET("", h.ListTickets)
	readGroup.GET("/paid", h.listByStatus(StatusPaid))
	readGroup.GET("/pending", h.listByStatus(StatusPending))
	readGroup.GET("/cancelled", h.listByStatus(StatusCancelled))
	readGroup.GET("/by-payment-method", h.ListByPaymentMethod)
	readGroup.GET("/statistics", h.Statistics)
	readGroup.GET("/number/:number", h.GetTicketByNumber)
	readGroup.GET("/:id", h.GetTicket)

	writeGroup := api.Group("/tickets", auth.RequireRole(auth.RoleReceptionist))
	writeGroup.POST("/:id/mark-paid", h.MarkPaid)
	writeGroup.POST("/:id/mark-cancelled", h.MarkCancelled)
	writeGroup.POST("/:id/refund", h.Refund)
	writeGroup.POST("/:id/restore", h.RestoreTicket)
	writeGroup.DELETE("/:id", h.DeleteTicket)
}

var listFilters = []string{"status", "payment_method", "payment_date", "appointment_id", "is_active", "search", "include_deleted"}

func searchParams(c echo.Context) (map[string]string, error) {
	params := make(map[string]string)
	for _, key := range listFilters {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	if v, ok := params["payment_date"]; ok {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "payment_date must be YYYY-MM-DD")
		}
	}
	if v, ok := params["appointment_id"]; ok {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid appointment_id")
		}
	}
	if v, ok := params["is_active"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid is_active")
		}
		params["is_active"] = strconv.FormatBool(b)
	}
	return params, nil
}

func (h *Handler) ListTickets(c echo.Context) error {
	params, err := searchParams(c)
	if err != nil {
		return err
	}
	return h.list(c, params)
}

func (h *Handler) listByStatus(status string) echo.HandlerFunc {
	return func(c echo.Context) error {
		params, err := searchParams(c)
		if err != nil {
			return err
		}
		params["status"] = status
		return h.list(c, params)
	}
}

func (h *Handler) ListByPaymentMethod(c echo.Context) error {
	if c.QueryParam("payment_method") == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment_method is required")
	}
	params, err := searchParams(c)
	if err != nil {
		return err
	}
	return h.list(c, params)
}

func (h *Handler) list(c echo.Context, params map[string]string) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.SearchTickets(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Ticket{}
	}
	return pagination.Respond(c, pg, items, total)
}

func (h *Handler) GetTicket(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTicket(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetTicketByNumber(c echo.Context) error {
	t, err := h.svc.GetTicketByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	return h.action(c, h.svc.MarkPaid)
}

func (h *Handler) MarkCancelled(c echo.Context) error {
	return h.action(c, h.svc.MarkCancelled)
}

func (h *Handler) Refund(c echo.Context) error {
	return h.action(c, h.svc.Refund)
}

func (h *Handler) RestoreTicket(c echo.Context) error {
	return h.action(c, h.svc.RestoreTicket)
}

func (h *Handler) action(c echo.Context, fn func(ctx context.Context, id int64) (*Ticket, error)) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := fn(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTicket(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTicket(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Statistics(c echo.Context) error {
	st, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
