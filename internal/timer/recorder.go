package timer

import (
	"context"
	"time"

	"github.com/avelkov/focusd/pkg/models"
)

// Recorder receives the engine's persistence intents. Calls are issued
// best-effort from outside the countdown path: a slow or failing backend
// never delays a tick, and a lost write is logged and dropped, not retried.
type Recorder interface {
	CreateSession(ctx context.Context, id string, typ models.SessionType, durationSeconds int, todoID string, startedAt time.Time) error
	CompleteSession(ctx context.Context, id string, completedAt time.Time) error
	ApplyStatsDelta(ctx context.Context, date string, delta models.StatsDelta) error
	IncrementTodoPomodoros(ctx context.Context, todoID string, by int) error
}

// Notifier fires the user-facing completion side effects (notification,
// sound). Implementations must be best-effort and non-blocking.
type Notifier interface {
	SessionCompleted(typ models.SessionType, settings models.Settings)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// SessionCompleted implements Notifier.
func (NopNotifier) SessionCompleted(models.SessionType, models.Settings) {}
