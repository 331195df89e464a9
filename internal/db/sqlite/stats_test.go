package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/avelkov/focusd/pkg/models"
)

// StatsStoreSuite is a test suite for StatsStore operations.
type StatsStoreSuite struct {
	suite.Suite
	store   *Store
	stats   *StatsStore
	cleanup func()
}

func (s *StatsStoreSuite) SetupTest() {
	s.store, s.cleanup = testStore(s.T())
	s.stats = NewStatsStore(s.store)
}

func (s *StatsStoreSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func TestStatsStoreSuite(t *testing.T) {
	suite.Run(t, new(StatsStoreSuite))
}

// TestApplyDeltaCreatesRowLazily tests that the first event of a day
// creates the row with fields equal to the delta.
func (s *StatsStoreSuite) TestApplyDeltaCreatesRowLazily() {
	ctx := context.Background()

	row, err := s.stats.GetByDate(ctx, "2026-01-05")
	s.Require().NoError(err)
	s.Nil(row)

	delta := models.StatsDelta{CompletedPomodoros: 1, TotalFocusMinutes: 25, WorkSessions: 1}
	s.Require().NoError(s.stats.ApplyDelta(ctx, "2026-01-05", delta))

	row, err = s.stats.GetByDate(ctx, "2026-01-05")
	s.Require().NoError(err)
	s.Require().NotNil(row)
	s.Equal(1, row.CompletedPomodoros)
	s.Equal(25, row.TotalFocusMinutes)
	s.Equal(1, row.WorkSessions)
	s.Equal(0, row.CompletedTodos)
	s.Equal(0, row.BreakSessions)
}

// TestApplyDeltaIsAdditive tests that two deltas equal one combined delta.
func (s *StatsStoreSuite) TestApplyDeltaIsAdditive() {
	ctx := context.Background()
	delta := models.StatsDelta{CompletedPomodoros: 1, TotalFocusMinutes: 25, WorkSessions: 1}

	s.Require().NoError(s.stats.ApplyDelta(ctx, "2026-01-06", delta))
	s.Require().NoError(s.stats.ApplyDelta(ctx, "2026-01-06", delta))
	s.Require().NoError(s.stats.ApplyDelta(ctx, "2026-01-06", models.StatsDelta{CompletedTodos: 1, BreakSessions: 2}))

	row, err := s.stats.GetByDate(ctx, "2026-01-06")
	s.Require().NoError(err)
	s.Require().NotNil(row)
	s.Equal(2, row.CompletedPomodoros)
	s.Equal(50, row.TotalFocusMinutes)
	s.Equal(2, row.WorkSessions)
	s.Equal(1, row.CompletedTodos)
	s.Equal(2, row.BreakSessions)
}

// TestApplyDeltaZeroIsNoop tests that a zero delta creates nothing.
func (s *StatsStoreSuite) TestApplyDeltaZeroIsNoop() {
	ctx := context.Background()
	s.Require().NoError(s.stats.ApplyDelta(ctx, "2026-01-07", models.StatsDelta{}))

	row, err := s.stats.GetByDate(ctx, "2026-01-07")
	s.Require().NoError(err)
	s.Nil(row)
}

// TestApplyDeltaConcurrent tests that concurrent writers never lose
// increments for the same date.
func (s *StatsStoreSuite) TestApplyDeltaConcurrent() {
	ctx := context.Background()
	const writers = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.stats.ApplyDelta(ctx, "2026-01-08", models.StatsDelta{CompletedPomodoros: 1}))
		}()
	}
	wg.Wait()

	row, err := s.stats.GetByDate(ctx, "2026-01-08")
	s.Require().NoError(err)
	s.Require().NotNil(row)
	s.Equal(writers, row.CompletedPomodoros)
}

// TestRangeQuery tests the window bounds and ascending order.
func (s *StatsStoreSuite) TestRangeQuery() {
	ctx := context.Background()
	today := time.Now()

	for _, daysAgo := range []int{0, 1, 3, 10} {
		date := models.DateKey(today.AddDate(0, 0, -daysAgo))
		s.Require().NoError(s.stats.ApplyDelta(ctx, date, models.StatsDelta{WorkSessions: 1}))
	}

	rows, err := s.stats.RangeQuery(ctx, 7)
	s.Require().NoError(err)
	// 10 days ago falls outside the 7-day window.
	s.Require().Len(rows, 3)

	for i := 1; i < len(rows); i++ {
		s.Less(rows[i-1].Date, rows[i].Date)
	}
	s.Equal(models.DateKey(today), rows[len(rows)-1].Date)
}

// TestTotals tests the all-time aggregate.
func (s *StatsStoreSuite) TestTotals() {
	ctx := context.Background()

	s.Require().NoError(s.stats.ApplyDelta(ctx, "2026-01-01", models.StatsDelta{CompletedPomodoros: 2, TotalFocusMinutes: 50, WorkSessions: 2}))
	s.Require().NoError(s.stats.ApplyDelta(ctx, "2026-01-02", models.StatsDelta{CompletedPomodoros: 1, CompletedTodos: 3, BreakSessions: 1}))

	totals, err := s.stats.Totals(ctx)
	s.Require().NoError(err)
	s.Equal(3, totals.CompletedPomodoros)
	s.Equal(3, totals.CompletedTodos)
	s.Equal(50, totals.TotalFocusMinutes)
	s.Equal(2, totals.WorkSessions)
	s.Equal(1, totals.BreakSessions)
	s.Equal(2, totals.DaysTracked)
}

// TestTotalsEmpty tests totals on an empty database.
func (s *StatsStoreSuite) TestTotalsEmpty() {
	totals, err := s.stats.Totals(context.Background())
	s.Require().NoError(err)
	s.Equal(0, totals.CompletedPomodoros)
	s.Equal(0, totals.DaysTracked)
}
