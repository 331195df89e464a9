package worker

import (
	"context"
	"time"

	"github.com/avelkov/focusd/internal/db/sqlite"
	"github.com/avelkov/focusd/pkg/models"
)

// storeRecorder lands the timer's persistence intents in SQLite. Each method
// maps one intent onto its store and counts errors as dropped writes; the
// timer itself already logs failures and never retries.
type storeRecorder struct {
	sessions *sqlite.SessionStore
	todos    *sqlite.TodoStore
	stats    *sqlite.StatsStore
	metrics  *Metrics
}

func newStoreRecorder(sessions *sqlite.SessionStore, todos *sqlite.TodoStore, stats *sqlite.StatsStore, metrics *Metrics) *storeRecorder {
	return &storeRecorder{
		sessions: sessions,
		todos:    todos,
		stats:    stats,
		metrics:  metrics,
	}
}

// CreateSession records a session start.
func (r *storeRecorder) CreateSession(ctx context.Context, id string, typ models.SessionType, durationSeconds int, todoID string, startedAt time.Time) error {
	if err := r.sessions.Create(ctx, id, typ, durationSeconds, todoID, startedAt); err != nil {
		r.metrics.WriteDropped("session_create")
		return err
	}
	return nil
}

// CompleteSession records a session completion.
func (r *storeRecorder) CompleteSession(ctx context.Context, id string, completedAt time.Time) error {
	if err := r.sessions.Complete(ctx, id, completedAt); err != nil {
		r.metrics.WriteDropped("session_complete")
		return err
	}
	return nil
}

// ApplyStatsDelta merges completion counters into the day's aggregate.
func (r *storeRecorder) ApplyStatsDelta(ctx context.Context, date string, delta models.StatsDelta) error {
	if err := r.stats.ApplyDelta(ctx, date, delta); err != nil {
		r.metrics.WriteDropped("stats_delta")
		return err
	}
	r.metrics.StatsDeltaApplied()
	return nil
}

// IncrementTodoPomodoros credits a completed work session to its linked todo.
func (r *storeRecorder) IncrementTodoPomodoros(ctx context.Context, todoID string, by int) error {
	if err := r.todos.IncrementPomodoroCount(ctx, todoID, by); err != nil {
		r.metrics.WriteDropped("todo_increment")
		return err
	}
	return nil
}
