package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// poolSnapshot is the connection-pool section of the health response.
type poolSnapshot struct {
	Open        int32  `json:"open"`
	Idle        int32  `json:"idle"`
	InUse       int32  `json:"in_use"`
	Limit       int32  `json:"limit"`
	AcquireWait string `json:"acquire_wait"`
}

func snapshot(pool *pgxpool.Pool) poolSnapshot {
	s := pool.Stat()
	return poolSnapshot{
		Open:        s.TotalConns(),
		Idle:        s.IdleConns(),
		InUse:       s.AcquiredConns(),
		Limit:       s.MaxConns(),
		AcquireWait: s.AcquireDuration().String(),
	}
}

// HealthHandler answers the database health probe. The ping carries its own
// timeout so a wedged database turns into a 503, not a hung probe.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"database": "down",
				"error":    err.Error(),
				"pool":     snapshot(pool),
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"database": "up",
			"pool":     snapshot(pool),
		})
	}
}
