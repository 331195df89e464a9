package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/avelkov/focusd/pkg/models"
)

// SessionStore provides pomodoro-session database operations.
type SessionStore struct {
	store *Store
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

// Create inserts a new session row. The caller supplies the ID so the timer
// never has to wait on the insert to know which session it is running.
func (s *SessionStore) Create(ctx context.Context, id string, typ models.SessionType, durationSeconds int, todoID string, startedAt time.Time) error {
	const query = `
		INSERT INTO sessions
		(id, type, duration_seconds, todo_id, completed, started_at, started_at_epoch)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`
	_, err := s.store.ExecContext(ctx, query,
		id, string(typ), durationSeconds, nullString(todoID),
		startedAt.Format(time.RFC3339), startedAt.UnixMilli(),
	)
	return err
}

// Complete marks a session completed with an end timestamp. Idempotent: a
// second call is a harmless overwrite of completed_at.
func (s *SessionStore) Complete(ctx context.Context, id string, completedAt time.Time) error {
	const query = `
		UPDATE sessions
		SET completed = 1, completed_at = ?, completed_at_epoch = ?
		WHERE id = ?
	`
	_, err := s.store.ExecContext(ctx, query,
		completedAt.Format(time.RFC3339), completedAt.UnixMilli(), id,
	)
	return err
}

// GetByID retrieves a session, or nil when it does not exist.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `
		SELECT id, type, duration_seconds, todo_id, completed,
		       started_at, started_at_epoch, completed_at, completed_at_epoch
		FROM sessions
		WHERE id = ?
		LIMIT 1
	`
	sess, err := scanSession(s.store.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ListRecent returns the most recently started sessions, newest first.
func (s *SessionStore) ListRecent(ctx context.Context, limit int) ([]*models.Session, error) {
	const query = `
		SELECT id, type, duration_seconds, todo_id, completed,
		       started_at, started_at_epoch, completed_at, completed_at_epoch
		FROM sessions
		ORDER BY started_at_epoch DESC
		LIMIT ?
	`
	rows, err := s.store.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessionRows(rows)
}

// CompletedWorkDatesSince returns the calendar date of every completed work
// session started on or after since, one entry per session. Feeds the
// activity heatmap.
func (s *SessionStore) CompletedWorkDatesSince(ctx context.Context, since time.Time) ([]string, error) {
	const query = `
		SELECT date(started_at_epoch / 1000, 'unixepoch', 'localtime')
		FROM sessions
		WHERE completed = 1 AND type = 'work' AND started_at_epoch >= ?
		ORDER BY started_at_epoch ASC
	`
	rows, err := s.store.QueryContext(ctx, query, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// CountToday returns the number of sessions started today.
func (s *SessionStore) CountToday(ctx context.Context) (int, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	const query = `SELECT COUNT(*) FROM sessions WHERE started_at_epoch >= ?`

	var count int
	err := s.store.QueryRowContext(ctx, query, startOfDay.UnixMilli()).Scan(&count)
	return count, err
}
