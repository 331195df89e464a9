package sqlite

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/avelkov/focusd/pkg/models"
)

// nullString converts a string to sql.NullString.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt converts an int to sql.NullInt64.
func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i > 0}
}

// ParseLimitParam parses a limit query parameter with a default value.
func ParseLimitParam(r *http.Request, defaultLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultLimit
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSession scans a single session from a row scanner.
func scanSession(scanner rowScanner) (*models.Session, error) {
	var sess models.Session
	if err := scanner.Scan(
		&sess.ID, &sess.Type, &sess.DurationSeconds, &sess.TodoID, &sess.Completed,
		&sess.StartedAt, &sess.StartedAtEpoch, &sess.CompletedAt, &sess.CompletedAtEpoch,
	); err != nil {
		return nil, err
	}
	return &sess, nil
}

// scanSessionRows scans multiple sessions from rows.
func scanSessionRows(rows *sql.Rows) ([]*models.Session, error) {
	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// scanTodo scans a single todo from a row scanner.
func scanTodo(scanner rowScanner) (*models.Todo, error) {
	var todo models.Todo
	if err := scanner.Scan(
		&todo.ID, &todo.Title, &todo.Description, &todo.Completed, &todo.Priority,
		&todo.EstimatedPomodoros, &todo.PomodoroCount, &todo.Tags,
		&todo.CreatedAt, &todo.CreatedAtEpoch, &todo.CompletedAt, &todo.CompletedAtEpoch,
	); err != nil {
		return nil, err
	}
	return &todo, nil
}

// scanTodoRows scans multiple todos from rows.
func scanTodoRows(rows *sql.Rows) ([]*models.Todo, error) {
	var todos []*models.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

// scanDailyStats scans a single daily_stats row.
func scanDailyStats(scanner rowScanner) (*models.DailyStats, error) {
	var row models.DailyStats
	if err := scanner.Scan(
		&row.Date, &row.CompletedPomodoros, &row.CompletedTodos,
		&row.TotalFocusMinutes, &row.WorkSessions, &row.BreakSessions,
	); err != nil {
		return nil, err
	}
	return &row, nil
}
