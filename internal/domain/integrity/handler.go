package integrity

import (
	"errors"
	"net/http"

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

func (h *Handler) RegisterRoutes(admin *echo.Group) {
	g := admin.Group("", auth.RequireRole("admin", "osteopath"))
	g.POST("/integrity/verify", h.Verify)
	g.POST("/integrity/repair", h.Repair)
}

func (h *Handler) Verify(c echo.Context) error {
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	report, err := h.svc.Verify(c.Request().Context(), osteopathID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

// Repair deletes every record tagged by a prior verify pass. There is no
// undo; the route is POST-only and role-gated for that reason.
func (h *Handler) Repair(c echo.Context) error {
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	report, err := h.svc.Repair(c.Request().Context(), osteopathID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}
