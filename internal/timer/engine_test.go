package timer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/avelkov/focusd/pkg/models"
)

// fakeRecorder captures persistence intents and can simulate a failing
// backend.
type fakeRecorder struct {
	mu         sync.Mutex
	fail       bool
	created    []models.SessionType
	completed  []string
	deltas     []models.StatsDelta
	deltaDates []string
	increments map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{increments: make(map[string]int)}
}

func (r *fakeRecorder) CreateSession(_ context.Context, _ string, typ models.SessionType, _ int, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("backend unavailable")
	}
	r.created = append(r.created, typ)
	return nil
}

func (r *fakeRecorder) CompleteSession(_ context.Context, id string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("backend unavailable")
	}
	r.completed = append(r.completed, id)
	return nil
}

func (r *fakeRecorder) ApplyStatsDelta(_ context.Context, date string, delta models.StatsDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("backend unavailable")
	}
	r.deltas = append(r.deltas, delta)
	r.deltaDates = append(r.deltaDates, date)
	return nil
}

func (r *fakeRecorder) IncrementTodoPomodoros(_ context.Context, todoID string, by int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("backend unavailable")
	}
	r.increments[todoID] += by
	return nil
}

func (r *fakeRecorder) totalDelta() models.StatsDelta {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total models.StatsDelta
	for _, d := range r.deltas {
		total = total.Add(d)
	}
	return total
}

func (r *fakeRecorder) deltaCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deltas)
}

// EngineSuite is a test suite for the timer state machine.
type EngineSuite struct {
	suite.Suite
	engine   *Engine
	recorder *fakeRecorder

	settingsMu sync.Mutex
	settings   models.Settings

	statusMu sync.Mutex
	statuses []models.TimerStatus
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.recorder = newFakeRecorder()
	s.settings = models.DefaultSettings()
	// One-minute sessions keep tick counts small.
	s.settings.WorkDuration = 1
	s.settings.ShortBreakDuration = 1
	s.settings.LongBreakDuration = 2
	s.statuses = nil

	engine, err := NewEngine(Config{
		Settings: func() models.Settings {
			s.settingsMu.Lock()
			defer s.settingsMu.Unlock()
			return s.settings
		},
		Recorder: s.recorder,
		OnChange: func(snap Snapshot) {
			s.statusMu.Lock()
			s.statuses = append(s.statuses, snap.Status)
			s.statusMu.Unlock()
		},
		Now: func() time.Time {
			return time.Date(2026, time.April, 1, 9, 0, 0, 0, time.Local)
		},
	})
	s.Require().NoError(err)
	s.engine = engine
}

func (s *EngineSuite) setSettings(mutate func(*models.Settings)) {
	s.settingsMu.Lock()
	mutate(&s.settings)
	s.settingsMu.Unlock()
}

// tickN drives n synthetic ticks.
func (s *EngineSuite) tickN(n int) {
	for i := 0; i < n; i++ {
		s.engine.Tick()
	}
}

// TestInitialState tests that a fresh engine shows a full work session.
func (s *EngineSuite) TestInitialState() {
	snap := s.engine.Snapshot()
	s.Equal(models.TimerIdle, snap.Status)
	s.Equal(models.SessionWork, snap.SessionType)
	s.Equal(60, snap.RemainingSeconds)
	s.Equal(0, snap.CompletedWorkSessions)
	s.Equal("01:00", snap.Display)
	s.Zero(snap.ProgressPercent)
}

// TestCountdownMonotonicity tests that each tick decreases remaining by
// exactly one until zero, then completes exactly once.
func (s *EngineSuite) TestCountdownMonotonicity() {
	s.engine.Start()

	prev := s.engine.Snapshot().RemainingSeconds
	for i := 0; i < 59; i++ {
		s.engine.Tick()
		snap := s.engine.Snapshot()
		s.Equal(prev-1, snap.RemainingSeconds)
		s.Equal(models.TimerRunning, snap.Status)
		prev = snap.RemainingSeconds
	}

	// 60th tick reaches zero and fires completion.
	s.engine.Tick()
	snap := s.engine.Snapshot()
	s.Equal(models.TimerIdle, snap.Status)
	s.Equal(0, snap.RemainingSeconds)
	s.Equal(1, snap.CompletedWorkSessions)

	// Further ticks while idle are no-ops: no double-fire.
	s.tickN(5)
	s.engine.Flush()
	s.Equal(1, s.recorder.deltaCount())
}

// TestWorkCompletionDelta tests the statistics credited by a finished work
// session.
func (s *EngineSuite) TestWorkCompletionDelta() {
	s.engine.Start()
	s.tickN(60)
	s.engine.Flush()

	total := s.recorder.totalDelta()
	s.Equal(1, total.CompletedPomodoros)
	s.Equal(1, total.TotalFocusMinutes) // one-minute session
	s.Equal(1, total.WorkSessions)
	s.Equal(0, total.BreakSessions)
	s.Equal(0, total.CompletedTodos)

	s.recorder.mu.Lock()
	s.Equal("2026-04-01", s.recorder.deltaDates[0])
	s.Len(s.recorder.completed, 1)
	s.recorder.mu.Unlock()
}

// TestBreakCompletionDelta tests that breaks only count break sessions.
func (s *EngineSuite) TestBreakCompletionDelta() {
	s.engine.Skip() // work -> short-break, running
	s.Equal(models.SessionShortBreak, s.engine.Snapshot().SessionType)

	s.tickN(60)
	s.engine.Flush()

	total := s.recorder.totalDelta()
	s.Equal(models.StatsDelta{BreakSessions: 1}, total)
}

// TestNextTypeDeterminism tests the (k+1) % n rule via repeated
// completions.
func (s *EngineSuite) TestNextTypeDeterminism() {
	s.setSettings(func(set *models.Settings) {
		set.AutoStartBreaks = true
		set.AutoStartPomodoros = true
	})

	// Sessions chain automatically: work, short, work, short, work,
	// short, work, then the 4th completion (k=3, (3+1)%4==0) yields a
	// long break.
	for i := 0; i < 3; i++ {
		s.engine.Start()
		s.tickN(60) // work completes, short break starts
		s.Equal(models.SessionShortBreak, s.engine.Snapshot().SessionType)
		s.tickN(60) // break completes, work starts
		s.Equal(models.SessionWork, s.engine.Snapshot().SessionType)
	}

	s.tickN(60) // 4th work completion
	snap := s.engine.Snapshot()
	s.Equal(models.SessionLongBreak, snap.SessionType)
	s.Equal(4, snap.CompletedWorkSessions)

	// Any break always chains back to work.
	s.tickN(120)
	s.Equal(models.SessionWork, s.engine.Snapshot().SessionType)
}

// TestAutoChainSkipsIdle tests that completing the 4th work session with
// autoStartBreaks enabled rolls straight into a long break without an
// observable idle state.
func (s *EngineSuite) TestAutoChainSkipsIdle() {
	s.setSettings(func(set *models.Settings) {
		set.AutoStartBreaks = true
		set.AutoStartPomodoros = true
	})

	s.engine.Start()
	s.statusMu.Lock()
	s.statuses = nil
	s.statusMu.Unlock()

	// Three full work+break cycles, then the 4th work session.
	s.tickN(7 * 60)

	snap := s.engine.Snapshot()
	s.Equal(models.SessionLongBreak, snap.SessionType)
	s.Equal(models.TimerRunning, snap.Status)
	s.Equal(120, snap.RemainingSeconds) // longBreakDuration * 60

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	for _, status := range s.statuses {
		s.NotEqual(models.TimerIdle, status)
	}
}

// TestLinkedTodoIncrement tests that exactly the linked todo is credited,
// once per completed work session.
func (s *EngineSuite) TestLinkedTodoIncrement() {
	s.engine.SetTodo("todo-42")
	s.engine.Start()
	s.tickN(60)
	s.engine.Flush()

	s.recorder.mu.Lock()
	defer s.recorder.mu.Unlock()
	s.Equal(map[string]int{"todo-42": 1}, s.recorder.increments)
}

// TestBreakDoesNotCreditTodo tests that break sessions never touch the
// linked todo.
func (s *EngineSuite) TestBreakDoesNotCreditTodo() {
	s.engine.SetTodo("todo-42")
	s.engine.Skip() // short break
	s.tickN(60)
	s.engine.Flush()

	s.recorder.mu.Lock()
	defer s.recorder.mu.Unlock()
	s.Empty(s.recorder.increments)
}

// TestPausePreservesRemaining tests pause/resume continuity.
func (s *EngineSuite) TestPausePreservesRemaining() {
	s.engine.Start()
	s.tickN(10)

	s.engine.Pause()
	snap := s.engine.Snapshot()
	s.Equal(models.TimerPaused, snap.Status)
	s.Equal(50, snap.RemainingSeconds)

	// Ticks while paused are ignored.
	s.tickN(5)
	s.Equal(50, s.engine.Snapshot().RemainingSeconds)

	// Resume continues from the preserved value; no new session row.
	s.engine.Start()
	s.engine.Tick()
	s.Equal(49, s.engine.Snapshot().RemainingSeconds)

	s.engine.Flush()
	s.recorder.mu.Lock()
	s.Len(s.recorder.created, 1)
	s.recorder.mu.Unlock()
}

// TestResetIdempotence tests reset from any state, repeatedly.
func (s *EngineSuite) TestResetIdempotence() {
	for i := 0; i < 3; i++ {
		snap := s.engine.Reset()
		s.Equal(models.TimerIdle, snap.Status)
		s.Equal(60, snap.RemainingSeconds)
	}

	s.engine.Start()
	s.tickN(20)
	snap := s.engine.Reset()
	s.Equal(models.TimerIdle, snap.Status)
	s.Equal(60, snap.RemainingSeconds)
	s.Empty(snap.SessionID)

	// Reset never credits statistics.
	s.engine.Flush()
	s.Equal(0, s.recorder.deltaCount())
}

// TestSkipDiscardsCredit tests that skip starts the next type without
// completing the skipped session or crediting stats.
func (s *EngineSuite) TestSkipDiscardsCredit() {
	s.engine.Start()
	s.tickN(30)

	snap := s.engine.Skip()
	s.Equal(models.TimerRunning, snap.Status)
	s.Equal(models.SessionShortBreak, snap.SessionType)
	s.Equal(60, snap.RemainingSeconds)
	s.Equal(0, snap.CompletedWorkSessions)

	s.engine.Flush()
	s.Equal(0, s.recorder.deltaCount())
	s.recorder.mu.Lock()
	s.Empty(s.recorder.completed)
	s.recorder.mu.Unlock()
}

// TestSettingsSnapshotIsolation tests that config changes never touch a
// session in progress.
func (s *EngineSuite) TestSettingsSnapshotIsolation() {
	s.engine.Start()
	s.tickN(10)

	s.setSettings(func(set *models.Settings) { set.WorkDuration = 50 })

	// In-progress countdown is unaffected.
	s.Equal(50, s.engine.Snapshot().RemainingSeconds)

	// The next session picks up the new duration.
	s.engine.Reset()
	s.Equal(50*60, s.engine.Snapshot().RemainingSeconds)
}

// TestPersistenceFailureTolerance tests that a failing backend never blocks
// the state machine.
func (s *EngineSuite) TestPersistenceFailureTolerance() {
	s.recorder.mu.Lock()
	s.recorder.fail = true
	s.recorder.mu.Unlock()

	s.engine.Start()
	s.tickN(60)
	s.engine.Flush()

	// Local transitions proceed optimistically.
	snap := s.engine.Snapshot()
	s.Equal(models.TimerIdle, snap.Status)
	s.Equal(1, snap.CompletedWorkSessions)
}

// TestProgressPercent tests the progress computation.
func (s *EngineSuite) TestProgressPercent() {
	s.engine.Start()
	s.Zero(s.engine.Snapshot().ProgressPercent)

	s.tickN(15)
	s.InDelta(25.0, s.engine.Snapshot().ProgressPercent, 0.001)

	s.tickN(15)
	s.InDelta(50.0, s.engine.Snapshot().ProgressPercent, 0.001)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "00:00", FormatTime(0))
	assert.Equal(t, "01:05", FormatTime(65))
	assert.Equal(t, "25:00", FormatTime(1500))
	// No hour rollover.
	assert.Equal(t, "90:00", FormatTime(5400))
	assert.Equal(t, "00:00", FormatTime(-7))
}
