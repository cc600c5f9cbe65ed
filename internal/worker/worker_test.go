package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/notify"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
)

type syncerFunc func(ctx context.Context) (repository.SyncResult, error)

func (f syncerFunc) SyncMirror(ctx context.Context) (repository.SyncResult, error) { return f(ctx) }

func TestMirrorSyncRunsImmediatelyAndStops(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := StartMirrorSync(ctx, syncerFunc(func(context.Context) (repository.SyncResult, error) {
		if calls.Add(1) == 2 {
			return repository.SyncResult{}, errors.New("transient")
		}
		return repository.SyncResult{Events: 1}, nil
	}), 5*time.Millisecond)

	deadline := time.After(2 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d syncs ran", calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sync loop did not stop")
	}
}

type listerFunc func(ctx context.Context, scope repository.Scope) ([]domain.Event, error)

func (f listerFunc) ListEvents(ctx context.Context, scope repository.Scope) ([]domain.Event, error) {
	return f(ctx, scope)
}

func TestRemindersSentOncePerAttendee(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{ID: "soon", Date: now.Add(3 * time.Hour).UnixMilli(), Attendees: []string{"a", "b"}, State: domain.StateUpcoming},
		{ID: "later", Date: now.Add(72 * time.Hour).UnixMilli(), Attendees: []string{"a"}, State: domain.StateUpcoming},
		{ID: "off", Date: now.Add(time.Hour).UnixMilli(), Attendees: []string{"a"}, State: domain.StateCancelled},
	}
	var scopes []repository.Scope
	lister := listerFunc(func(_ context.Context, s repository.Scope) ([]domain.Event, error) {
		scopes = append(scopes, s)
		return events, nil
	})
	var got []notify.Notification
	n := notify.Func(func(_ context.Context, x notify.Notification) error {
		got = append(got, x)
		return nil
	})

	r := NewReminders(lister, n)
	r.now = func() time.Time { return now }

	count, err := r.RunOnce(context.Background())
	if err != nil || count != 2 {
		t.Fatalf("count=%d err=%v", count, err)
	}
	if got[0].Kind != notify.KindReminder || got[0].EventID != "soon" {
		t.Fatalf("unexpected notification %+v", got[0])
	}
	if count, _ := r.RunOnce(context.Background()); count != 0 {
		t.Fatalf("reminders repeated: %d", count)
	}
	if scopes[0] != repository.ScopeUpcoming {
		t.Fatalf("scanned scope %q", scopes[0])
	}
}
