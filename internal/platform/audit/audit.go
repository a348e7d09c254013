// Package audit provides the fire-and-forget audit sink consumed by every
// mutating service operation. Emitting an event must never fail the
// operation that produced it; sink errors are logged and swallowed.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Event is one structured audit record for a mutating operation.
type Event struct {
	EventKind    string    `json:"event_kind"`
	ResourcePath string    `json:"resource_path"`
	Action       string    `json:"action"` // create, update, delete, migrate, repair
	Sensitivity  string    `json:"sensitivity"`
	Outcome      string    `json:"outcome"` // success, failure, partial
	Detail       string    `json:"detail"`
	Actor        string    `json:"actor"`
	OsteopathID  uuid.UUID `json:"osteopath_id"`
	Recorded     time.Time `json:"recorded"`
}

// Sink receives audit events. Implementations must be non-blocking from the
// caller's point of view and must never propagate failures.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// LogSink writes audit events to the structured log.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, e Event) {
	if e.Recorded.IsZero() {
		e.Recorded = time.Now().UTC()
	}
	s.logger.Info().
		Str("type", "audit").
		Str("event_kind", e.EventKind).
		Str("resource_path", e.ResourcePath).
		Str("action", e.Action).
		Str("sensitivity", e.Sensitivity).
		Str("outcome", e.Outcome).
		Str("detail", e.Detail).
		Str("actor", e.Actor).
		Str("osteopath_id", e.OsteopathID.String()).
		Time("recorded", e.Recorded).
		Msg("audit_event")
}

// PGSink persists audit events to the audit_events table. Insert failures
// are logged, never returned.
type PGSink struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPGSink(pool *pgxpool.Pool, logger zerolog.Logger) *PGSink {
	return &PGSink{pool: pool, logger: logger}
}

func (s *PGSink) Emit(ctx context.Context, e Event) {
	if e.Recorded.IsZero() {
		e.Recorded = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (id, osteopath_id, event_kind, resource_path,
			action, sensitivity, outcome, detail, actor, recorded)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		uuid.New(), e.OsteopathID, e.EventKind, e.ResourcePath,
		e.Action, e.Sensitivity, e.Outcome, e.Detail, e.Actor, e.Recorded)
	if err != nil {
		s.logger.Error().Err(err).
			Str("event_kind", e.EventKind).
			Str("resource_path", e.ResourcePath).
			Msg("failed to persist audit event")
	}
}
