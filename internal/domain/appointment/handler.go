package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/osteopraxis/praxis/internal/platform/auth"
	"github.com/osteopraxis/praxis/internal/platform/store"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "osteopath", "assistant"))
	g.GET("/appointments", h.List)
	g.GET("/appointments/:id", h.Get)
	g.GET("/patients/:id/appointments", h.ListByPatient)
	g.POST("/appointments", h.Create)
	g.PUT("/appointments/:id", h.Update)
	g.DELETE("/appointments/:id", h.Delete)
	g.DELETE("/appointments", h.BulkDelete)
}

func (h *Handler) Create(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.OsteopathID = auth.OsteopathIDFromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), &a); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	a, err := h.svc.Get(c.Request().Context(), osteopathID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	items, err := h.svc.ListByOsteopath(c.Request().Context(), osteopathID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	items, err := h.svc.ListByPatient(c.Request().Context(), osteopathID, patientID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	a.OsteopathID = auth.OsteopathIDFromContext(c.Request().Context())
	if err := h.svc.Update(c.Request().Context(), &a); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	if err := h.svc.Delete(c.Request().Context(), osteopathID, id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) BulkDelete(c echo.Context) error {
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	result, err := h.svc.BulkDelete(c.Request().Context(), osteopathID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func domainError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, store.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, "appointment belongs to another osteopath")
	case errors.Is(err, store.ErrReferenceNotFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
