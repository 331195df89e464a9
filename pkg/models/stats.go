package models

import (
	"time"
)

// DateKeyLayout is the calendar-day key used for daily_stats rows.
const DateKeyLayout = "2006-01-02"

// DateKey returns the calendar-day key for t in local time.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// DailyStats is the additive per-calendar-day aggregate of completion
// counters. Rows are created lazily on the first event of a day and only
// ever merged additively after that.
type DailyStats struct {
	Date               string `db:"date" json:"date"`
	CompletedPomodoros int    `db:"completed_pomodoros" json:"completed_pomodoros"`
	CompletedTodos     int    `db:"completed_todos" json:"completed_todos"`
	TotalFocusMinutes  int    `db:"total_focus_minutes" json:"total_focus_minutes"`
	WorkSessions       int    `db:"work_sessions" json:"work_sessions"`
	BreakSessions      int    `db:"break_sessions" json:"break_sessions"`
}

// StatsDelta is a set of increments applied to one day's aggregate.
// Absent fields default to zero.
type StatsDelta struct {
	CompletedPomodoros int `json:"completed_pomodoros,omitempty"`
	CompletedTodos     int `json:"completed_todos,omitempty"`
	TotalFocusMinutes  int `json:"total_focus_minutes,omitempty"`
	WorkSessions       int `json:"work_sessions,omitempty"`
	BreakSessions      int `json:"break_sessions,omitempty"`
}

// IsZero reports whether the delta carries no increments.
func (d StatsDelta) IsZero() bool {
	return d == StatsDelta{}
}

// Add returns the field-wise sum of two deltas.
func (d StatsDelta) Add(other StatsDelta) StatsDelta {
	return StatsDelta{
		CompletedPomodoros: d.CompletedPomodoros + other.CompletedPomodoros,
		CompletedTodos:     d.CompletedTodos + other.CompletedTodos,
		TotalFocusMinutes:  d.TotalFocusMinutes + other.TotalFocusMinutes,
		WorkSessions:       d.WorkSessions + other.WorkSessions,
		BreakSessions:      d.BreakSessions + other.BreakSessions,
	}
}

// Totals is the all-time aggregate across every daily_stats row.
type Totals struct {
	CompletedPomodoros int `json:"completed_pomodoros"`
	CompletedTodos     int `json:"completed_todos"`
	TotalFocusMinutes  int `json:"total_focus_minutes"`
	WorkSessions       int `json:"work_sessions"`
	BreakSessions      int `json:"break_sessions"`
	DaysTracked        int `json:"days_tracked"`
}

// DenseSeries expands sparse daily rows into a dense daysBack-long series
// ending at today, with missing dates filled by zero rows. Rows outside the
// window are dropped. Result is ordered by date ascending.
func DenseSeries(rows []*DailyStats, daysBack int, today time.Time) []*DailyStats {
	if daysBack <= 0 {
		return nil
	}

	byDate := make(map[string]*DailyStats, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	series := make([]*DailyStats, 0, daysBack)
	for i := daysBack - 1; i >= 0; i-- {
		date := DateKey(today.AddDate(0, 0, -i))
		if row, ok := byDate[date]; ok {
			series = append(series, row)
			continue
		}
		series = append(series, &DailyStats{Date: date})
	}
	return series
}
