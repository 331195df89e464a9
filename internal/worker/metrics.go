package worker

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/avelkov/focusd/pkg/models"
)

// Metrics holds the daemon's OpenTelemetry counters. Without a metrics SDK
// installed these are no-ops, so recording is always safe.
type Metrics struct {
	sessionsCompleted metric.Int64Counter
	todosCompleted    metric.Int64Counter
	statsDeltas       metric.Int64Counter
	droppedWrites     metric.Int64Counter
	httpRequests      metric.Int64Counter
}

// NewMetrics registers the focusd counters on the global meter provider.
func NewMetrics() *Metrics {
	meter := otel.Meter("github.com/avelkov/focusd")
	m := &Metrics{}

	var err error
	if m.sessionsCompleted, err = meter.Int64Counter("focusd.sessions.completed",
		metric.WithDescription("Completed pomodoro sessions by type")); err != nil {
		log.Warn().Err(err).Msg("Failed to register sessions counter")
	}
	if m.todosCompleted, err = meter.Int64Counter("focusd.todos.completed",
		metric.WithDescription("Todos marked completed")); err != nil {
		log.Warn().Err(err).Msg("Failed to register todos counter")
	}
	if m.statsDeltas, err = meter.Int64Counter("focusd.stats.deltas",
		metric.WithDescription("Daily-stats deltas applied")); err != nil {
		log.Warn().Err(err).Msg("Failed to register stats counter")
	}
	if m.droppedWrites, err = meter.Int64Counter("focusd.persistence.dropped",
		metric.WithDescription("Persistence intents lost to backend errors")); err != nil {
		log.Warn().Err(err).Msg("Failed to register dropped-writes counter")
	}
	if m.httpRequests, err = meter.Int64Counter("focusd.http.requests",
		metric.WithDescription("HTTP requests served")); err != nil {
		log.Warn().Err(err).Msg("Failed to register http counter")
	}

	return m
}

// SessionCompleted records one finished session.
func (m *Metrics) SessionCompleted(typ models.SessionType) {
	if m.sessionsCompleted != nil {
		m.sessionsCompleted.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("type", string(typ))))
	}
}

// TodoCompleted records one todo marked done.
func (m *Metrics) TodoCompleted() {
	if m.todosCompleted != nil {
		m.todosCompleted.Add(context.Background(), 1)
	}
}

// StatsDeltaApplied records one daily-stats merge.
func (m *Metrics) StatsDeltaApplied() {
	if m.statsDeltas != nil {
		m.statsDeltas.Add(context.Background(), 1)
	}
}

// WriteDropped records a persistence intent lost to a backend error.
func (m *Metrics) WriteDropped(op string) {
	if m.droppedWrites != nil {
		m.droppedWrites.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("op", op)))
	}
}

// RequestServed records one HTTP request.
func (m *Metrics) RequestServed(method, path string) {
	if m.httpRequests != nil {
		m.httpRequests.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
			))
	}
}
