package notify

import (
	"context"
	"log/slog"
)

// Log writes notifications to the structured log. It is the fallback when no
// external channel is configured.
type Log struct{}

func (Log) Notify(_ context.Context, n Notification) error {
	slog.Info("notification",
		"kind", n.Kind,
		"event_id", n.EventID,
		"user_id", n.Recipient,
		"title", n.Title(),
		"text", n.Text(),
	)
	return nil
}
