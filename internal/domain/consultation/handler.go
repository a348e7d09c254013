package consultation

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
	g := api.Group("", auth.RequireRole("admin", "osteopath"))
	g.GET("/consultations/:id", h.Get)
	g.GET("/patients/:id/consultations", h.ListByPatient)
	g.POST("/consultations", h.Create)
	g.PUT("/consultations/:id", h.Update)
	g.DELETE("/consultations/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var cons Consultation
	if err := c.Bind(&cons); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons.OsteopathID = auth.OsteopathIDFromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), &cons); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	cons, err := h.svc.Get(c.Request().Context(), osteopathID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, cons)
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
	var cons Consultation
	if err := c.Bind(&cons); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons.ID = id
	cons.OsteopathID = auth.OsteopathIDFromContext(c.Request().Context())
	if err := h.svc.Update(c.Request().Context(), &cons); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, cons)
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

func domainError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	case errors.Is(err, store.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, "consultation belongs to another osteopath")
	case errors.Is(err, store.ErrReferenceNotFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
