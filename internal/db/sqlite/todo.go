package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelkov/focusd/pkg/models"
)

// TodoStore provides todo database operations.
type TodoStore struct {
	store *Store
}

// NewTodoStore creates a new todo store.
func NewTodoStore(store *Store) *TodoStore {
	return &TodoStore{store: store}
}

const todoColumns = `id, title, description, completed, priority,
	estimated_pomodoros, pomodoro_count, tags,
	created_at, created_at_epoch, completed_at, completed_at_epoch`

// Create inserts a new todo. Title must be non-empty; an invalid priority
// falls back to medium.
func (s *TodoStore) Create(ctx context.Context, title, description string, priority models.Priority, estimatedPomodoros int, tags []string) (*models.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("todo title must not be empty")
	}
	if !priority.Valid() {
		priority = models.PriorityMedium
	}

	now := time.Now()
	todo := &models.Todo{
		ID:                 uuid.NewString(),
		Title:              title,
		Description:        nullString(description),
		Priority:           priority,
		EstimatedPomodoros: nullInt(estimatedPomodoros),
		Tags:               models.JSONStringArray(tags),
		CreatedAt:          now.Format(time.RFC3339),
		CreatedAtEpoch:     now.UnixMilli(),
	}

	const query = `
		INSERT INTO todos
		(id, title, description, completed, priority, estimated_pomodoros,
		 pomodoro_count, tags, created_at, created_at_epoch)
		VALUES (?, ?, ?, 0, ?, ?, 0, ?, ?, ?)
	`
	_, err := s.store.ExecContext(ctx, query,
		todo.ID, todo.Title, todo.Description, string(todo.Priority),
		todo.EstimatedPomodoros, todo.Tags, todo.CreatedAt, todo.CreatedAtEpoch,
	)
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// GetByID retrieves a todo, or nil when it does not exist.
func (s *TodoStore) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = ? LIMIT 1`

	todo, err := scanTodo(s.store.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// List returns todos matching filter, ordered by sort.
func (s *TodoStore) List(ctx context.Context, filter models.TodoFilter, sort models.TodoSort) ([]*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos`

	switch filter {
	case models.TodoFilterActive:
		query += ` WHERE completed = 0`
	case models.TodoFilterCompleted:
		query += ` WHERE completed = 1`
	}

	switch sort {
	case models.TodoSortPriority:
		query += ` ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at_epoch DESC`
	case models.TodoSortPomodoros:
		query += ` ORDER BY pomodoro_count DESC, created_at_epoch DESC`
	default:
		query += ` ORDER BY created_at_epoch DESC`
	}

	rows, err := s.store.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTodoRows(rows)
}

// Update applies a partial update and returns the fresh row, or nil when the
// todo does not exist.
func (s *TodoStore) Update(ctx context.Context, id string, update models.TodoUpdate) (*models.Todo, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, fmt.Errorf("todo title must not be empty")
		}
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*update.Description))
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return nil, fmt.Errorf("invalid priority %q", *update.Priority)
		}
		sets = append(sets, "priority = ?")
		args = append(args, string(*update.Priority))
	}
	if update.EstimatedPomodoros != nil {
		sets = append(sets, "estimated_pomodoros = ?")
		args = append(args, nullInt(*update.EstimatedPomodoros))
	}
	if update.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, models.JSONStringArray(*update.Tags))
	}

	if len(sets) > 0 {
		query := `UPDATE todos SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		args = append(args, id)
		if _, err := s.store.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}

	return s.GetByID(ctx, id)
}

// SetCompleted flips the completed flag, stamping or clearing completed_at.
// Returns the fresh row, or nil when the todo does not exist.
func (s *TodoStore) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (*models.Todo, error) {
	var query string
	var args []interface{}
	if completed {
		query = `UPDATE todos SET completed = 1, completed_at = ?, completed_at_epoch = ? WHERE id = ?`
		args = []interface{}{at.Format(time.RFC3339), at.UnixMilli(), id}
	} else {
		query = `UPDATE todos SET completed = 0, completed_at = NULL, completed_at_epoch = NULL WHERE id = ?`
		args = []interface{}{id}
	}

	if _, err := s.store.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a todo. Deleting a missing todo is not an error.
func (s *TodoStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM todos WHERE id = ?`
	_, err := s.store.ExecContext(ctx, query, id)
	return err
}

// IncrementPomodoroCount adds by to a todo's completed-pomodoro counter.
// The counter is monotonic; by must be positive.
func (s *TodoStore) IncrementPomodoroCount(ctx context.Context, id string, by int) error {
	if by <= 0 {
		return fmt.Errorf("increment must be positive, got %d", by)
	}

	const query = `UPDATE todos SET pomodoro_count = pomodoro_count + ? WHERE id = ?`
	result, err := s.store.ExecContext(ctx, query, by, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("todo %s not found", id)
	}
	return nil
}
