package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 25, s.WorkDuration)
	assert.Equal(t, 5, s.ShortBreakDuration)
	assert.Equal(t, 15, s.LongBreakDuration)
	assert.Equal(t, 4, s.LongBreakInterval)
	assert.False(t, s.AutoStartBreaks)
	assert.False(t, s.AutoStartPomodoros)
	assert.True(t, s.SoundEnabled)
	assert.True(t, s.NotificationsEnabled)
	assert.False(t, s.FocusModeEnabled)
}

func TestDurationSeconds(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 1500, s.DurationSeconds(SessionWork))
	assert.Equal(t, 300, s.DurationSeconds(SessionShortBreak))
	assert.Equal(t, 900, s.DurationSeconds(SessionLongBreak))
}

func TestSanitize(t *testing.T) {
	s := Settings{
		WorkDuration:       -3,
		ShortBreakDuration: 10,
		LongBreakDuration:  0,
		LongBreakInterval:  1,
	}
	s.Sanitize()

	// Each malformed field falls back on its own; valid ones are kept.
	assert.Equal(t, 25, s.WorkDuration)
	assert.Equal(t, 10, s.ShortBreakDuration)
	assert.Equal(t, 15, s.LongBreakDuration)
	assert.Equal(t, 4, s.LongBreakInterval)
}
