package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/notify"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
)

const ReminderLead = 24 * time.Hour

type EventLister interface {
	ListEvents(ctx context.Context, scope repository.Scope) ([]domain.Event, error)
}

// Reminders notifies every attendee once when an event is less than a day
// away. Sent reminders are tracked in memory, so a restart may repeat them.
type Reminders struct {
	events   EventLister
	notifier notify.Notifier
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]bool
}

func NewReminders(events EventLister, n notify.Notifier) *Reminders {
	return &Reminders{events: events, notifier: n, now: time.Now, sent: make(map[string]bool)}
}

// RunOnce sends the reminders that are due and returns how many went out.
func (r *Reminders) RunOnce(ctx context.Context) (int, error) {
	events, err := r.events.ListEvents(ctx, repository.ScopeUpcoming)
	if err != nil {
		return 0, err
	}
	now := r.now()
	horizon := now.Add(ReminderLead).UnixMilli()

	count := 0
	for _, e := range events {
		if e.Date > horizon || e.State == domain.StateCancelled {
			continue
		}
		for _, uid := range e.Attendees {
			key := e.ID + "/" + uid
			r.mu.Lock()
			done := r.sent[key]
			r.sent[key] = true
			r.mu.Unlock()
			if done {
				continue
			}
			if err := r.notifier.Notify(ctx, notify.Reminder(e, uid, now)); err != nil {
				slog.Warn("reminder failed", "op", "worker.reminders", "event_id", e.ID, "user_id", uid, "error", err)
				continue
			}
			count++
		}
	}
	return count, nil
}

func StartReminders(ctx context.Context, r *Reminders, interval time.Duration) <-chan struct{} {
	return every(ctx, interval, func(ctx context.Context) {
		n, err := r.RunOnce(ctx)
		if err != nil {
			slog.Error("reminder scan failed", "op", "worker.reminders", "error", err)
			return
		}
		if n > 0 {
			slog.Info("reminders sent", "count", n)
		}
	})
}
