package appointment

import (
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
	readGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleTherapist))
	readGroup.GET("/appointments", h.ListAppointments)
	readGroup.GET("/appointments/completed", h.ListCompleted)
	readGroup.GET("/appointments/pending", h.ListPending)
	readGroup.GET("/appointments/by-date-range", h.ListByDateRange)
	readGroup.GET("/appointments/check-availability", h.CheckAvailability)
	readGroup.GET("/appointments/:id", h.GetAppointment)
	readGroup.GET("/appointment-statuses", h.ListStatuses)
	readGroup.GET("/appointment-statuses/:id", h.GetStatus)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	writeGroup.POST("/appointments", h.CreateAppointment)
	writeGroup.PUT("/appointments/:id", h.UpdateAppointment)
	writeGroup.DELETE("/appointments/:id", h.DeleteAppointment)
	writeGroup.POST("/appointments/:id/cancel", h.CancelAppointment)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/appointment-statuses", h.CreateStatus)
	adminGroup.PUT("/appointment-statuses/:id", h.UpdateStatus)
	adminGroup.POST("/appointment-statuses/:id/activate", h.ActivateStatus)
	adminGroup.POST("/appointment-statuses/:id/deactivate", h.DeactivateStatus)
}

// -- Appointment Handlers --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.UpdateAppointment(c.Request().Context(), &a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

var listFilters = []string{
	"appointment_date", "appointment_status_id", "patient_id", "therapist_id",
	"appointment_type", "room", "search",
}

func searchParams(c echo.Context) (map[string]string, error) {
	params := make(map[string]string)
	for _, key := range listFilters {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	for _, key := range []string{"appointment_status_id", "patient_id", "therapist_id"} {
		if v, ok := params[key]; ok {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+key)
			}
		}
	}
	if v, ok := params["appointment_date"]; ok {
		if _, err := time.Parse(DateLayout, v); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
		}
	}
	return params, nil
}

type listFunc func(c echo.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)

func (h *Handler) list(c echo.Context, fn listFunc) error {
	params, err := searchParams(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := fn(c, params, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return pagination.Respond(c, pg, items, total)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	return h.list(c, func(c echo.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
		return h.svc.SearchAppointments(c.Request().Context(), params, limit, offset)
	})
}

func (h *Handler) ListCompleted(c echo.Context) error {
	return h.list(c, func(c echo.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
		return h.svc.ListCompleted(c.Request().Context(), params, limit, offset)
	})
}

func (h *Handler) ListPending(c echo.Context) error {
	return h.list(c, func(c echo.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
		return h.svc.ListPending(c.Request().Context(), params, limit, offset)
	})
}

func (h *Handler) ListByDateRange(c echo.Context) error {
	return h.list(c, func(c echo.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
		return h.svc.ListByDateRange(c.Request().Context(), c.QueryParam("start_date"), c.QueryParam("end_date"), params, limit, offset)
	})
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	duration := 0
	if v := c.QueryParam("duration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid duration")
		}
		duration = d
	}
	var therapistID *int64
	if v := c.QueryParam("therapist_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid therapist_id")
		}
		therapistID = &id
	}
	av, err := h.svc.CheckAvailability(c.Request().Context(), c.QueryParam("date"), c.QueryParam("hour"), duration, therapistID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, av)
}

// -- Appointment Status Handlers --

func (h *Handler) CreateStatus(c echo.Context) error {
	var st AppointmentStatus
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateStatus(c.Request().Context(), &st); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	st, err := h.svc.GetStatus(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var st AppointmentStatus
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st.ID = id
	if err := h.svc.UpdateStatus(c.Request().Context(), &st); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ActivateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	st, err := h.svc.ActivateStatus(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) DeactivateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	st, err := h.svc.DeactivateStatus(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListStatuses(c echo.Context) error {
	params := make(map[string]string)
	if v := c.QueryParam("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid is_active")
		}
		params["is_active"] = strconv.FormatBool(b)
	}
	if v := c.QueryParam("search"); v != "" {
		params["search"] = v
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListStatuses(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*AppointmentStatus{}
	}
	return pagination.Respond(c, pg, items, total)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateName):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
