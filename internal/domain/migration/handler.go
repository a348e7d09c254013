package migration

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
	g.POST("/test-data/migrate", h.Migrate)
	g.GET("/test-data/report", h.Report)
}

func (h *Handler) Migrate(c echo.Context) error {
	ctx := c.Request().Context()
	osteopathID := auth.OsteopathIDFromContext(ctx)
	actor := auth.UserIDFromContext(ctx)
	report, err := h.svc.Migrate(ctx, osteopathID, actor)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Report(c echo.Context) error {
	osteopathID := auth.OsteopathIDFromContext(c.Request().Context())
	report, err := h.svc.Report(c.Request().Context(), osteopathID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}
