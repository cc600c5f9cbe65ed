package mirror

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

// Memory is an in-process Mirror.
type Memory struct {
	mu       sync.RWMutex
	events   map[string]domain.Event
	comments map[string]domain.Comment
	users    map[string]domain.User
	notifier Notifier
}

func NewMemory(n Notifier) *Memory {
	if n == nil {
		n = NewLocalNotifier()
	}
	return &Memory{
		events:   make(map[string]domain.Event),
		comments: make(map[string]domain.Comment),
		users:    make(map[string]domain.User),
		notifier: n,
	}
}

func (m *Memory) changed(ctx context.Context, table string) {
	m.notifier.Publish(ctx, table)
}

func (m *Memory) UpsertEvent(ctx context.Context, e domain.Event) error {
	m.mu.Lock()
	m.events[e.ID] = e.Clone()
	m.mu.Unlock()
	m.changed(ctx, TableEvents)
	return nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
	}
	return e.Clone(), nil
}

func (m *Memory) DeleteEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.events, id)
	m.mu.Unlock()
	m.changed(ctx, TableEvents)
	return nil
}

func (m *Memory) DeleteAllEvents(ctx context.Context) error {
	return m.ReplaceEvents(ctx, nil)
}

func (m *Memory) ReplaceEvents(ctx context.Context, events []domain.Event) error {
	next := make(map[string]domain.Event, len(events))
	for _, e := range events {
		next[e.ID] = e.Clone()
	}
	m.mu.Lock()
	m.events = next
	m.mu.Unlock()
	m.changed(ctx, TableEvents)
	return nil
}

func (m *Memory) Events(_ context.Context, q EventQuery) ([]domain.Event, error) {
	m.mu.RLock()
	out := make([]domain.Event, 0, len(m.events))
	for _, e := range m.events {
		if q.Match(e) {
			out = append(out, e.Clone())
		}
	}
	m.mu.RUnlock()
	q.Sort(out)
	return out, nil
}

func (m *Memory) WatchEvents(ctx context.Context, q EventQuery) *stream.Subscription[[]domain.Event] {
	return watch(ctx, m.notifier, TableEvents, func(ctx context.Context) ([]domain.Event, error) {
		return m.Events(ctx, q)
	})
}

func (m *Memory) UpsertComment(ctx context.Context, c domain.Comment) error {
	m.mu.Lock()
	m.comments[c.ID] = c
	m.mu.Unlock()
	m.changed(ctx, TableComments)
	return nil
}

func (m *Memory) DeleteCommentsByEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	for id, c := range m.comments {
		if c.EventID == eventID {
			delete(m.comments, id)
		}
	}
	m.mu.Unlock()
	m.changed(ctx, TableComments)
	return nil
}

func (m *Memory) DeleteAllComments(ctx context.Context) error {
	return m.ReplaceComments(ctx, nil)
}

func (m *Memory) ReplaceComments(ctx context.Context, comments []domain.Comment) error {
	next := make(map[string]domain.Comment, len(comments))
	for _, c := range comments {
		next[c.ID] = c
	}
	m.mu.Lock()
	m.comments = next
	m.mu.Unlock()
	m.changed(ctx, TableComments)
	return nil
}

func (m *Memory) Comments(_ context.Context, eventID string) ([]domain.Comment, error) {
	m.mu.RLock()
	out := make([]domain.Comment, 0)
	for _, c := range m.comments {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	m.mu.RUnlock()
	sortComments(out)
	return out, nil
}

func (m *Memory) WatchComments(ctx context.Context, eventID string) *stream.Subscription[[]domain.Comment] {
	return watch(ctx, m.notifier, TableComments, func(ctx context.Context) ([]domain.Comment, error) {
		return m.Comments(ctx, eventID)
	})
}

func (m *Memory) UpsertUser(ctx context.Context, u domain.User) error {
	m.mu.Lock()
	m.users[u.ID] = u.Clone()
	m.mu.Unlock()
	m.changed(ctx, TableUsers)
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u.Clone(), nil
}

func (m *Memory) DeleteAllUsers(ctx context.Context) error {
	m.mu.Lock()
	m.users = make(map[string]domain.User)
	m.mu.Unlock()
	m.changed(ctx, TableUsers)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }
