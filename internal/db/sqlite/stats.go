package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/avelkov/focusd/pkg/models"
)

// StatsStore provides daily-statistics database operations.
//
// All writes go through ApplyDelta's additive upsert, so the
// read-modify-write on a day's row happens inside SQLite and concurrent
// increments for the same date cannot clobber each other.
type StatsStore struct {
	store *Store
}

// NewStatsStore creates a new stats store.
func NewStatsStore(store *Store) *StatsStore {
	return &StatsStore{store: store}
}

// ApplyDelta merges delta into the row for date, creating the row lazily on
// the first event of the day. Every field is existing + delta, never an
// overwrite. A zero delta is a no-op.
func (s *StatsStore) ApplyDelta(ctx context.Context, date string, delta models.StatsDelta) error {
	if delta.IsZero() {
		return nil
	}

	const query = `
		INSERT INTO daily_stats
		(date, completed_pomodoros, completed_todos, total_focus_minutes, work_sessions, break_sessions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			completed_pomodoros = completed_pomodoros + excluded.completed_pomodoros,
			completed_todos     = completed_todos + excluded.completed_todos,
			total_focus_minutes = total_focus_minutes + excluded.total_focus_minutes,
			work_sessions       = work_sessions + excluded.work_sessions,
			break_sessions      = break_sessions + excluded.break_sessions
	`
	_, err := s.store.ExecContext(ctx, query,
		date, delta.CompletedPomodoros, delta.CompletedTodos,
		delta.TotalFocusMinutes, delta.WorkSessions, delta.BreakSessions,
	)
	return err
}

// GetByDate retrieves one day's row, or nil when no events landed that day.
func (s *StatsStore) GetByDate(ctx context.Context, date string) (*models.DailyStats, error) {
	const query = `
		SELECT date, completed_pomodoros, completed_todos, total_focus_minutes,
		       work_sessions, break_sessions
		FROM daily_stats
		WHERE date = ?
		LIMIT 1
	`
	row, err := scanDailyStats(s.store.QueryRowContext(ctx, query, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// RangeQuery returns all rows within the last daysBack calendar days
// including today, ordered by date ascending. Missing dates are absent;
// callers build dense series with models.DenseSeries.
func (s *StatsStore) RangeQuery(ctx context.Context, daysBack int) ([]*models.DailyStats, error) {
	if daysBack <= 0 {
		return nil, nil
	}

	today := time.Now()
	from := models.DateKey(today.AddDate(0, 0, -(daysBack - 1)))
	to := models.DateKey(today)

	const query = `
		SELECT date, completed_pomodoros, completed_todos, total_focus_minutes,
		       work_sessions, break_sessions
		FROM daily_stats
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := s.store.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*models.DailyStats
	for rows.Next() {
		row, err := scanDailyStats(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, row)
	}
	return stats, rows.Err()
}

// Totals returns the all-time aggregate across every row.
func (s *StatsStore) Totals(ctx context.Context) (*models.Totals, error) {
	const query = `
		SELECT COALESCE(SUM(completed_pomodoros), 0),
		       COALESCE(SUM(completed_todos), 0),
		       COALESCE(SUM(total_focus_minutes), 0),
		       COALESCE(SUM(work_sessions), 0),
		       COALESCE(SUM(break_sessions), 0),
		       COUNT(*)
		FROM daily_stats
	`
	var totals models.Totals
	err := s.store.QueryRowContext(ctx, query).Scan(
		&totals.CompletedPomodoros, &totals.CompletedTodos, &totals.TotalFocusMinutes,
		&totals.WorkSessions, &totals.BreakSessions, &totals.DaysTracked,
	)
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
