package models

// Settings holds the user-tunable pomodoro configuration. Durations are in
// minutes. Settings are read when a session starts; changing them never
// affects a session already in progress.
type Settings struct {
	WorkDuration         int  `json:"work_duration"`
	ShortBreakDuration   int  `json:"short_break_duration"`
	LongBreakDuration    int  `json:"long_break_duration"`
	LongBreakInterval    int  `json:"long_break_interval"`
	AutoStartBreaks      bool `json:"auto_start_breaks"`
	AutoStartPomodoros   bool `json:"auto_start_pomodoros"`
	SoundEnabled         bool `json:"sound_enabled"`
	NotificationsEnabled bool `json:"notifications_enabled"`
	FocusModeEnabled     bool `json:"focus_mode_enabled"`
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		WorkDuration:         25,
		ShortBreakDuration:   5,
		LongBreakDuration:    15,
		LongBreakInterval:    4,
		AutoStartBreaks:      false,
		AutoStartPomodoros:   false,
		SoundEnabled:         true,
		NotificationsEnabled: true,
		FocusModeEnabled:     false,
	}
}

// DurationMinutes returns the configured length of a session type.
func (s Settings) DurationMinutes(t SessionType) int {
	switch t {
	case SessionShortBreak:
		return s.ShortBreakDuration
	case SessionLongBreak:
		return s.LongBreakDuration
	default:
		return s.WorkDuration
	}
}

// DurationSeconds returns the configured length of a session type in seconds.
func (s Settings) DurationSeconds(t SessionType) int {
	return s.DurationMinutes(t) * 60
}

// Sanitize replaces malformed numeric fields with their defaults in place.
// Validation failures never reject the whole settings object; each bad field
// falls back on its own.
func (s *Settings) Sanitize() {
	def := DefaultSettings()
	if s.WorkDuration <= 0 {
		s.WorkDuration = def.WorkDuration
	}
	if s.ShortBreakDuration <= 0 {
		s.ShortBreakDuration = def.ShortBreakDuration
	}
	if s.LongBreakDuration <= 0 {
		s.LongBreakDuration = def.LongBreakDuration
	}
	if s.LongBreakInterval < 2 {
		s.LongBreakInterval = def.LongBreakInterval
	}
}
