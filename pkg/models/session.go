// Package models contains domain models for focusd.
package models

import (
	"database/sql"
)

// SessionType identifies what kind of interval a session times.
type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "short-break"
	SessionLongBreak  SessionType = "long-break"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case SessionWork, SessionShortBreak, SessionLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether t is one of the break types.
func (t SessionType) IsBreak() bool {
	return t == SessionShortBreak || t == SessionLongBreak
}

// TimerStatus represents the state of the countdown.
type TimerStatus string

const (
	TimerIdle    TimerStatus = "idle"
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
)

// Session is one persisted timed interval. A session row is created when the
// countdown starts and marked completed when it reaches zero; a session
// abandoned by reset simply stays incomplete.
type Session struct {
	ID               string         `db:"id" json:"id"`
	Type             SessionType    `db:"type" json:"type"`
	DurationSeconds  int            `db:"duration_seconds" json:"duration_seconds"`
	TodoID           sql.NullString `db:"todo_id" json:"todo_id,omitempty"`
	Completed        bool           `db:"completed" json:"completed"`
	StartedAt        string         `db:"started_at" json:"started_at"`
	StartedAtEpoch   int64          `db:"started_at_epoch" json:"started_at_epoch"`
	CompletedAt      sql.NullString `db:"completed_at" json:"completed_at,omitempty"`
	CompletedAtEpoch sql.NullInt64  `db:"completed_at_epoch" json:"completed_at_epoch,omitempty"`
}
