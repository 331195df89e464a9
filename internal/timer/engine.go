// Package timer implements the pomodoro session state machine: a
// single countdown that moves between idle, running, and paused, accrues
// daily statistics on completion, and optionally chains straight into the
// next session.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avelkov/focusd/pkg/models"
)

// DefaultEffectTimeout bounds each fire-and-forget persistence call.
const DefaultEffectTimeout = 10 * time.Second

// Snapshot is the read-only state the engine exposes to the presentation
// layer.
type Snapshot struct {
	Status                models.TimerStatus `json:"status"`
	SessionType           models.SessionType `json:"session_type"`
	RemainingSeconds      int                `json:"remaining_seconds"`
	DurationSeconds       int                `json:"duration_seconds"`
	CompletedWorkSessions int                `json:"completed_work_sessions"`
	ProgressPercent       float64            `json:"progress_percent"`
	Display               string             `json:"display"`
	SessionID             string             `json:"session_id,omitempty"`
	TodoID                string             `json:"todo_id,omitempty"`
	StartedAt             string             `json:"started_at,omitempty"`
}

// Config wires the engine's collaborators.
type Config struct {
	// Settings returns the current configuration. It is read when a
	// session starts; the engine keeps that snapshot for the whole
	// session, so later changes never touch a session in progress.
	Settings func() models.Settings
	Recorder Recorder
	Notifier Notifier
	// OnChange is invoked with a fresh snapshot after every observable
	// transition and every tick. Called outside the engine lock.
	OnChange func(Snapshot)
	// Now is the wall clock for timestamps and date keys. Defaults to
	// time.Now; tests pin it.
	Now func() time.Time
	// EffectTimeout bounds each persistence call.
	EffectTimeout time.Duration
}

// Engine is the timer state machine. All commands are safe for concurrent
// use; persistence side effects run asynchronously and never block a
// transition or a tick.
type Engine struct {
	mu sync.Mutex

	settingsFn    func() models.Settings
	recorder      Recorder
	notifier      Notifier
	onChange      func(Snapshot)
	now           func() time.Time
	effectTimeout time.Duration

	status      models.TimerStatus
	sessionType models.SessionType
	// settings is the snapshot taken when the current session started.
	settings      models.Settings
	remaining     int
	duration      int
	completedWork int
	sessionID     string
	todoID        string
	startedAt     time.Time

	effects sync.WaitGroup
}

// NewEngine creates an idle engine showing a full work session.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("timer: Settings provider is required")
	}
	if cfg.Recorder == nil {
		return nil, fmt.Errorf("timer: Recorder is required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.EffectTimeout <= 0 {
		cfg.EffectTimeout = DefaultEffectTimeout
	}

	settings := cfg.Settings()
	settings.Sanitize()

	e := &Engine{
		settingsFn:    cfg.Settings,
		recorder:      cfg.Recorder,
		notifier:      cfg.Notifier,
		onChange:      cfg.OnChange,
		now:           cfg.Now,
		effectTimeout: cfg.EffectTimeout,
		status:        models.TimerIdle,
		sessionType:   models.SessionWork,
		settings:      settings,
		duration:      settings.DurationSeconds(models.SessionWork),
		remaining:     settings.DurationSeconds(models.SessionWork),
	}
	return e, nil
}

// Run consumes ticks from src until ctx is cancelled. A single persistent
// source drives the engine for its whole lifetime; ticks arriving while the
// timer is not running are ignored, so a stale tick can never
// double-decrement state.
func (e *Engine) Run(ctx context.Context, src TickSource) {
	ch := src.Start(time.Second)
	defer src.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			e.Tick()
		}
	}
}

// SetTodo links the given todo to subsequently started work sessions.
// An empty id clears the link.
func (e *Engine) SetTodo(id string) {
	e.mu.Lock()
	e.todoID = id
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
}

// Start begins a session from idle, or resumes a paused one. Starting while
// already running is a no-op.
func (e *Engine) Start() Snapshot {
	e.mu.Lock()
	switch e.status {
	case models.TimerPaused:
		e.status = models.TimerRunning
	case models.TimerIdle:
		e.startSessionLocked(e.sessionType)
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return snap
}

// Pause stops the countdown, preserving the remaining time exactly. Any
// already-issued persistence call is left alone.
func (e *Engine) Pause() Snapshot {
	e.mu.Lock()
	if e.status == models.TimerRunning {
		e.status = models.TimerPaused
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return snap
}

// Reset discards the in-progress session and returns to a full idle
// countdown for the current session type. Statistics are never touched; an
// abandoned session row simply stays incomplete. Idempotent.
func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	e.status = models.TimerIdle
	e.sessionID = ""
	e.settings = e.settingsFn()
	e.settings.Sanitize()
	e.duration = e.settings.DurationSeconds(e.sessionType)
	e.remaining = e.duration
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return snap
}

// Skip abandons the current session and immediately starts the next session
// type. The skipped session is discarded: no completion is recorded and no
// statistics accrue for it.
func (e *Engine) Skip() Snapshot {
	e.mu.Lock()
	next := e.nextTypeLocked()
	e.startSessionLocked(next)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return snap
}

// Tick advances the countdown by one second. Ticks outside the running
// state are ignored. Reaching zero triggers completion exactly once.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.status != models.TimerRunning {
		e.mu.Unlock()
		return
	}

	e.remaining--
	if e.remaining > 0 {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.emit(snap)
		return
	}

	e.remaining = 0
	e.completeLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// Snapshot returns the current observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Flush waits for all in-flight persistence effects to settle. Used on
// shutdown and by tests; the running engine never waits on it.
func (e *Engine) Flush() {
	e.effects.Wait()
}

// startSessionLocked creates and immediately runs a new session of the
// given type. Caller holds the lock.
func (e *Engine) startSessionLocked(typ models.SessionType) {
	e.settings = e.settingsFn()
	e.settings.Sanitize()

	e.sessionType = typ
	e.duration = e.settings.DurationSeconds(typ)
	e.remaining = e.duration
	e.status = models.TimerRunning
	e.startedAt = e.now()
	e.sessionID = uuid.NewString()

	sessionID := e.sessionID
	todoID := ""
	if typ == models.SessionWork {
		todoID = e.todoID
	}
	duration := e.duration
	startedAt := e.startedAt

	e.dispatch(func(ctx context.Context) {
		if err := e.recorder.CreateSession(ctx, sessionID, typ, duration, todoID, startedAt); err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Str("type", string(typ)).
				Msg("Failed to persist session start")
		}
	})
}

// completeLocked runs the completion algorithm: persist the completion,
// accrue statistics, credit the linked todo, notify, then either auto-chain
// into the next session or drop to idle. Caller holds the lock.
func (e *Engine) completeLocked() {
	endedType := e.sessionType
	endedID := e.sessionID
	endedSettings := e.settings
	completedAt := e.now()
	date := models.DateKey(completedAt)

	// The next-type rule sees the count before this completion lands.
	next := e.nextTypeLocked()

	isWork := endedType == models.SessionWork
	var delta models.StatsDelta
	todoID := ""
	if isWork {
		e.completedWork++
		delta = models.StatsDelta{
			CompletedPomodoros: 1,
			TotalFocusMinutes:  e.duration / 60,
			WorkSessions:       1,
		}
		todoID = e.todoID
	} else {
		delta = models.StatsDelta{BreakSessions: 1}
	}

	e.dispatch(func(ctx context.Context) {
		if endedID != "" {
			if err := e.recorder.CompleteSession(ctx, endedID, completedAt); err != nil {
				log.Error().Err(err).Str("sessionId", endedID).Msg("Failed to persist session completion")
			}
		}
		if err := e.recorder.ApplyStatsDelta(ctx, date, delta); err != nil {
			log.Error().Err(err).Str("date", date).Msg("Failed to apply stats delta")
		}
		if todoID != "" {
			if err := e.recorder.IncrementTodoPomodoros(ctx, todoID, 1); err != nil {
				log.Error().Err(err).Str("todoId", todoID).Msg("Failed to credit linked todo")
			}
		}
		e.notifier.SessionCompleted(endedType, endedSettings)
	})

	autoChain := (isWork && endedSettings.AutoStartBreaks) ||
		(!isWork && endedSettings.AutoStartPomodoros)
	if autoChain {
		e.startSessionLocked(next)
		return
	}

	e.status = models.TimerIdle
	e.sessionID = ""
}

// nextTypeLocked applies the next-session-type rule. Caller holds the lock.
func (e *Engine) nextTypeLocked() models.SessionType {
	if e.sessionType != models.SessionWork {
		return models.SessionWork
	}
	interval := e.settings.LongBreakInterval
	if interval > 0 && (e.completedWork+1)%interval == 0 {
		return models.SessionLongBreak
	}
	return models.SessionShortBreak
}

// snapshotLocked builds the observable state. Caller holds the lock.
func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:                e.status,
		SessionType:           e.sessionType,
		RemainingSeconds:      e.remaining,
		DurationSeconds:       e.duration,
		CompletedWorkSessions: e.completedWork,
		Display:               FormatTime(e.remaining),
		SessionID:             e.sessionID,
		TodoID:                e.todoID,
	}
	if e.duration > 0 {
		snap.ProgressPercent = float64(e.duration-e.remaining) / float64(e.duration) * 100
	}
	if !e.startedAt.IsZero() && e.status != models.TimerIdle {
		snap.StartedAt = e.startedAt.Format(time.RFC3339)
	}
	return snap
}

// emit publishes a snapshot to the change listener, outside the lock.
func (e *Engine) emit(snap Snapshot) {
	if e.onChange != nil {
		e.onChange(snap)
	}
}

// dispatch runs fn on its own goroutine with a bounded context.
func (e *Engine) dispatch(fn func(ctx context.Context)) {
	e.effects.Add(1)
	go func() {
		defer e.effects.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.effectTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// FormatTime renders seconds as "MM:SS". Minutes are not rolled into hours:
// FormatTime(5400) is "90:00".
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
