package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/mirror"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *docstore.Memory
	mirror *mirror.Memory
	events *EventRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemory()
	m := mirror.NewMemory(nil)
	repo := NewEventRepository(store, m).WithClock(func() time.Time { return testNow })
	return &fixture{store: store, mirror: m, events: repo}
}

func as(uid, name string) context.Context {
	return identity.WithCaller(context.Background(), identity.Identity{UserID: uid, DisplayName: name, Email: uid + "@example.com"})
}

func (f *fixture) seedUser(t *testing.T, uid string) {
	t.Helper()
	u := domain.User{ID: uid, Name: "User " + uid, CreatedEvents: []string{}, AttendedEvents: []string{}}
	if err := f.store.Set(context.Background(), CollectionUsers, uid, userDoc(u)); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) user(t *testing.T, uid string) domain.User {
	t.Helper()
	doc, err := f.store.Get(context.Background(), CollectionUsers, uid)
	if err != nil {
		t.Fatal(err)
	}
	return userFromDoc(doc)
}

func draft(title string, at time.Time) domain.Event {
	return domain.Event{
		Title:       title,
		Description: "Una descripción suficientemente larga",
		Date:        at.UnixMilli(),
		Time:        at.Format("15:04"),
		Location:    "Centro Cultural",
		Category:    "Música",
	}
}

func (f *fixture) createEvent(t *testing.T, organizer string, at time.Time) domain.Event {
	t.Helper()
	e, err := f.events.CreateEvent(as(organizer, "Org "+organizer), draft("Concierto de prueba", at))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
