package sqlite

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// migrations are applied in order; PRAGMA user_version records progress.
// Never edit an existing entry, only append.
var migrations = []string{
	// 1: initial schema
	`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL CHECK (type IN ('work', 'short-break', 'long-break')),
		duration_seconds INTEGER NOT NULL CHECK (duration_seconds > 0),
		todo_id TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		started_at_epoch INTEGER NOT NULL,
		completed_at TEXT,
		completed_at_epoch INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at_epoch DESC);
	CREATE INDEX IF NOT EXISTS idx_sessions_completed ON sessions(completed, started_at_epoch DESC);

	CREATE TABLE IF NOT EXISTS todos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL CHECK (title != ''),
		description TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
		estimated_pomodoros INTEGER,
		pomodoro_count INTEGER NOT NULL DEFAULT 0 CHECK (pomodoro_count >= 0),
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		created_at_epoch INTEGER NOT NULL,
		completed_at TEXT,
		completed_at_epoch INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_todos_created ON todos(created_at_epoch DESC);
	CREATE INDEX IF NOT EXISTS idx_todos_completed ON todos(completed);

	CREATE TABLE IF NOT EXISTS daily_stats (
		date TEXT PRIMARY KEY,
		completed_pomodoros INTEGER NOT NULL DEFAULT 0,
		completed_todos INTEGER NOT NULL DEFAULT 0,
		total_focus_minutes INTEGER NOT NULL DEFAULT 0,
		work_sessions INTEGER NOT NULL DEFAULT 0,
		break_sessions INTEGER NOT NULL DEFAULT 0
	);
	`,
}

// migrate applies pending migrations inside transactions.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		// PRAGMA cannot be parameterized.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bump user_version to %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
		log.Debug().Int("version", i+1).Msg("Applied database migration")
	}

	return nil
}
