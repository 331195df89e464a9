package models

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// Priority is a todo's priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities for sorting, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// JSONStringArray is a string slice stored as a JSON array in a TEXT column.
type JSONStringArray []string

// Scan implements sql.Scanner.
func (a *JSONStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	}
	return fmt.Errorf("unsupported type for JSONStringArray: %T", value)
}

// Value implements driver.Valuer.
func (a JSONStringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Todo is a task that work sessions can be linked against.
// PomodoroCount only ever increases: one increment per completed work
// session linked to this todo.
type Todo struct {
	ID                 string          `db:"id" json:"id"`
	Title              string          `db:"title" json:"title"`
	Description        sql.NullString  `db:"description" json:"description,omitempty"`
	Completed          bool            `db:"completed" json:"completed"`
	Priority           Priority        `db:"priority" json:"priority"`
	EstimatedPomodoros sql.NullInt64   `db:"estimated_pomodoros" json:"estimated_pomodoros,omitempty"`
	PomodoroCount      int             `db:"pomodoro_count" json:"pomodoro_count"`
	Tags               JSONStringArray `db:"tags" json:"tags"`
	CreatedAt          string          `db:"created_at" json:"created_at"`
	CreatedAtEpoch     int64           `db:"created_at_epoch" json:"created_at_epoch"`
	CompletedAt        sql.NullString  `db:"completed_at" json:"completed_at,omitempty"`
	CompletedAtEpoch   sql.NullInt64   `db:"completed_at_epoch" json:"completed_at_epoch,omitempty"`
}

// TodoUpdate is a partial update; nil fields are left unchanged.
type TodoUpdate struct {
	Title              *string   `json:"title,omitempty"`
	Description        *string   `json:"description,omitempty"`
	Priority           *Priority `json:"priority,omitempty"`
	EstimatedPomodoros *int      `json:"estimated_pomodoros,omitempty"`
	Tags               *[]string `json:"tags,omitempty"`
}

// TodoFilter selects which todos a list query returns.
type TodoFilter string

const (
	TodoFilterAll       TodoFilter = "all"
	TodoFilterActive    TodoFilter = "active"
	TodoFilterCompleted TodoFilter = "completed"
)

// TodoSort selects list ordering.
type TodoSort string

const (
	TodoSortCreated   TodoSort = "created"
	TodoSortPriority  TodoSort = "priority"
	TodoSortPomodoros TodoSort = "pomodoros"
)
