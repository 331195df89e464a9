package worker

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/avelkov/focusd/internal/config"
	"github.com/avelkov/focusd/internal/db/sqlite"
	"github.com/avelkov/focusd/pkg/models"
)

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes a JSON error envelope.
func respondError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	respondJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// handleHealth reports liveness and readiness.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK
	if !s.ready.Load() {
		status = "starting"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"version": s.version,
	})
}

// handleVersion reports the daemon version.
func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handleStatus reports a daemon overview for the dashboard header.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionsToday, err := s.sessionStore.CountToday(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count today's sessions")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":        s.version,
		"ready":          s.ready.Load(),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"sse_clients":    s.broadcaster.ClientCount(),
		"sessions_today": sessionsToday,
		"timer":          s.engine.Snapshot(),
	})
}

// handleTimerState returns the current timer snapshot.
func (s *Service) handleTimerState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Snapshot())
}

// handleTimerStart starts or resumes the timer. An optional body links a todo
// to the session; an explicit empty todo_id clears the link.
func (s *Service) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TodoID *string `json:"todo_id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
	}

	if body.TodoID != nil {
		if id := *body.TodoID; id != "" {
			todo, err := s.todoStore.GetByID(r.Context(), id)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "failed to look up todo: %v", err)
				return
			}
			if todo == nil {
				respondError(w, http.StatusNotFound, "todo %s not found", id)
				return
			}
		}
		s.engine.SetTodo(*body.TodoID)
	}

	respondJSON(w, http.StatusOK, s.engine.Start())
}

// handleTimerPause pauses a running countdown.
func (s *Service) handleTimerPause(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Pause())
}

// handleTimerReset abandons the current session.
func (s *Service) handleTimerReset(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Reset())
}

// handleTimerSkip jumps to the next session type without recording the
// current one.
func (s *Service) handleTimerSkip(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Skip())
}

// handleListTodos lists todos with optional filter and sort query params.
func (s *Service) handleListTodos(w http.ResponseWriter, r *http.Request) {
	filter := models.TodoFilter(r.URL.Query().Get("filter"))
	switch filter {
	case models.TodoFilterActive, models.TodoFilterCompleted:
	default:
		filter = models.TodoFilterAll
	}

	sort := models.TodoSort(r.URL.Query().Get("sort"))
	switch sort {
	case models.TodoSortPriority, models.TodoSortPomodoros:
	default:
		sort = models.TodoSortCreated
	}

	todos, err := s.todoStore.List(r.Context(), filter, sort)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list todos: %v", err)
		return
	}
	if todos == nil {
		todos = []*models.Todo{}
	}
	respondJSON(w, http.StatusOK, todos)
}

// handleCreateTodo creates a todo.
func (s *Service) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title              string          `json:"title"`
		Description        string          `json:"description"`
		Priority           models.Priority `json:"priority"`
		EstimatedPomodoros int             `json:"estimated_pomodoros"`
		Tags               []string        `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	todo, err := s.todoStore.Create(r.Context(), body.Title, body.Description,
		body.Priority, body.EstimatedPomodoros, body.Tags)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to create todo: %v", err)
		return
	}
	respondJSON(w, http.StatusCreated, todo)
}

// handleGetTodo retrieves one todo.
func (s *Service) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "todoID")

	todo, err := s.todoStore.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get todo: %v", err)
		return
	}
	if todo == nil {
		respondError(w, http.StatusNotFound, "todo %s not found", id)
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

// handleUpdateTodo applies a partial update.
func (s *Service) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "todoID")

	var update models.TodoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	existing, err := s.todoStore.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get todo: %v", err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "todo %s not found", id)
		return
	}

	todo, err := s.todoStore.Update(r.Context(), id, update)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to update todo: %v", err)
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

// handleDeleteTodo removes a todo. Deleting a missing todo succeeds.
func (s *Service) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "todoID")

	if err := s.todoStore.Delete(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete todo: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleTodo flips a todo's completed flag. Marking a todo done credits
// today's completed-todos counter; unlike timer effects this runs in the
// request path, so a persistence failure surfaces to the caller.
func (s *Service) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "todoID")

	existing, err := s.todoStore.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get todo: %v", err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "todo %s not found", id)
		return
	}

	now := time.Now()
	completed := !existing.Completed
	todo, err := s.todoStore.SetCompleted(r.Context(), id, completed, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to toggle todo: %v", err)
		return
	}

	if completed {
		delta := models.StatsDelta{CompletedTodos: 1}
		if err := s.statsStore.ApplyDelta(r.Context(), models.DateKey(now), delta); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to record completion: %v", err)
			return
		}
		s.metrics.TodoCompleted()
	}

	respondJSON(w, http.StatusOK, todo)
}

// handleStatsSeries returns a dense daily series for the last N days.
func (s *Service) handleStatsSeries(w http.ResponseWriter, r *http.Request) {
	days := 7
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid days parameter %q", d)
			return
		}
		days = parsed
	}
	if days > 365 {
		days = 365
	}

	rows, err := s.statsStore.RangeQuery(r.Context(), days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query stats: %v", err)
		return
	}
	respondJSON(w, http.StatusOK, models.DenseSeries(rows, days, time.Now()))
}

// handleStatsToday returns today's aggregate, zero-valued when no events
// landed yet.
func (s *Service) handleStatsToday(w http.ResponseWriter, r *http.Request) {
	date := models.DateKey(time.Now())

	row, err := s.statsStore.GetByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query stats: %v", err)
		return
	}
	if row == nil {
		row = &models.DailyStats{Date: date}
	}
	respondJSON(w, http.StatusOK, row)
}

// handleStatsTotals returns the all-time aggregate.
func (s *Service) handleStatsTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.statsStore.Totals(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query totals: %v", err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

// heatmapEntry is one day in the activity heatmap.
type heatmapEntry struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// handleStatsHeatmap returns completed work sessions per day from the first
// of the month eleven months back through today, one entry per day.
func (s *Service) handleStatsHeatmap(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	since := time.Date(now.Year(), now.Month()-11, 1, 0, 0, 0, 0, now.Location())

	dates, err := s.sessionStore.CompletedWorkDatesSince(r.Context(), since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query sessions: %v", err)
		return
	}

	counts := make(map[string]int, len(dates))
	for _, date := range dates {
		counts[date]++
	}

	entries := make([]heatmapEntry, 0, 366)
	for day := since; !day.After(now); day = day.AddDate(0, 0, 1) {
		key := models.DateKey(day)
		entries = append(entries, heatmapEntry{Date: key, Count: counts[key]})
	}
	respondJSON(w, http.StatusOK, entries)
}

// handleListSessions lists recent sessions, newest first.
func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := sqlite.ParseLimitParam(r, 50)

	sessions, err := s.sessionStore.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list sessions: %v", err)
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

// handleGetSettings returns the current pomodoro settings.
func (s *Service) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, config.Settings())
}

// handleUpdateSettings merges the request over the current settings,
// sanitizes field-by-field, and persists to the settings file. The running
// session keeps its snapshot; the new values apply from the next session.
func (s *Service) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	cfg := *config.Get()

	if err := json.NewDecoder(r.Body).Decode(&cfg.Settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	cfg.Settings.Sanitize()

	if err := config.Save(&cfg); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings: %v", err)
		return
	}
	config.Set(&cfg)

	respondJSON(w, http.StatusOK, cfg.Settings)
}
