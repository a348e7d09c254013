package syncer

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
	g.POST("/sync/appointments", h.SyncAll)
}

// SyncAll re-derives every patient's next-appointment pointer for the
// calling osteopath. Operator-triggered; the response always carries the
// error count so the UI can report partial success.
func (h *Handler) SyncAll(c echo.Context) error {
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	result, err := h.svc.SyncAll(c.Request().Context(), osteopathID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
