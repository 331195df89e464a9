package worker

import (
	"github.com/avelkov/focusd/internal/worker/sse"
	"github.com/avelkov/focusd/pkg/models"
)

// sseNotifier publishes session-completion events to connected dashboards.
// The dashboard decides how to surface them; the daemon only says what
// finished and whether the user wants sound.
type sseNotifier struct {
	broadcaster *sse.Broadcaster
	metrics     *Metrics
}

func newSSENotifier(broadcaster *sse.Broadcaster, metrics *Metrics) *sseNotifier {
	return &sseNotifier{broadcaster: broadcaster, metrics: metrics}
}

// SessionCompleted implements timer.Notifier.
func (n *sseNotifier) SessionCompleted(typ models.SessionType, settings models.Settings) {
	n.metrics.SessionCompleted(typ)

	if !settings.NotificationsEnabled {
		return
	}

	message := "Work session complete! Time for a break."
	if typ.IsBreak() {
		message = "Break complete! Ready to focus?"
	}

	n.broadcaster.Broadcast(sse.Event{
		Type: "completed",
		Data: map[string]interface{}{
			"session_type": typ,
			"message":      message,
			"sound":        settings.SoundEnabled,
		},
	})
}
