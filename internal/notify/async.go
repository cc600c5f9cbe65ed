package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Async delivers in the background so intents never wait on a notification
// channel. Failures are logged and dropped.
type Async struct {
	next    Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration) *Async {
	return &Async{next: next, timeout: timeout}
}

func (a *Async) Notify(_ context.Context, n Notification) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Notify(ctx, n); err != nil {
			slog.Warn("notification delivery failed", "op", "notify", "kind", n.Kind, "event_id", n.EventID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish.
func (a *Async) Wait() {
	a.wg.Wait()
}
