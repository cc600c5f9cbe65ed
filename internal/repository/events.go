package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/mirror"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

// Scope selects a remote event listing.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeUpcoming Scope = "upcoming"
	ScopePast     Scope = "past"
	ScopeMine     Scope = "mine"
)

func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case "", ScopeAll:
		return ScopeAll, true
	case ScopeUpcoming, ScopePast, ScopeMine:
		return Scope(s), true
	}
	return "", false
}

type EventRepository struct {
	store  docstore.Store
	mirror mirror.Mirror
	now    func() time.Time
}

func NewEventRepository(store docstore.Store, m mirror.Mirror) *EventRepository {
	return &EventRepository{store: store, mirror: m, now: time.Now}
}

// WithClock replaces the time source.
func (r *EventRepository) WithClock(now func() time.Time) *EventRepository {
	r.now = now
	return r
}

func (r *EventRepository) nowMillis() int64 { return r.now().UnixMilli() }

// mirrorEvent refreshes the cached copy. The mirror is a cache, so a failure
// is logged and not returned.
func (r *EventRepository) mirrorEvent(ctx context.Context, e domain.Event) {
	if err := r.mirror.UpsertEvent(ctx, e); err != nil {
		slog.Warn("mirror event write failed", "op", "mirror.UpsertEvent", "event_id", e.ID, "error", err)
	}
}

// CreateEvent stores a new event organized by the caller and appends it to
// the caller's created events.
func (r *EventRepository) CreateEvent(ctx context.Context, draft domain.Event) (domain.Event, error) {
	who, err := caller(ctx)
	if err != nil {
		return domain.Event{}, err
	}

	e := draft.WithDefaults()
	e.ID = r.store.NewID(CollectionEvents)
	e.OrganizerID = who.UserID
	if who.DisplayName != "" {
		e.OrganizerName = who.DisplayName
	}
	e.Attendees = []string{}
	e.AverageRating = 0
	e.RatingCount = 0
	e.CreatedAt = r.nowMillis()

	if err := r.store.Set(ctx, CollectionEvents, e.ID, eventDoc(e)); err != nil {
		return domain.Event{}, storeErr("create event", err)
	}
	r.mirrorEvent(ctx, e)

	err = r.store.Update(ctx, CollectionUsers, who.UserID, docstore.Update{
		Path:  fieldCreatedEvents,
		Value: docstore.ArrayUnion(e.ID),
	})
	if err != nil {
		if merr := r.mirror.DeleteEvent(ctx, e.ID); merr != nil {
			slog.Warn("mirror cleanup failed", "op", "mirror.DeleteEvent", "event_id", e.ID, "error", merr)
		}
		return domain.Event{}, domain.NewStoreError("add created event to profile", err)
	}
	return e, nil
}

// UpdateEvent overwrites the editable fields of an existing event. Identity,
// attendance and rating fields keep their stored values.
func (r *EventRepository) UpdateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	who, err := caller(ctx)
	if err != nil {
		return domain.Event{}, err
	}

	var merged domain.Event
	err = r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(CollectionEvents, e.ID)
		if err != nil {
			return err
		}
		current := eventFromDoc(doc)
		if !current.IsOrganizedBy(who.UserID) {
			return domain.ErrForbidden
		}

		merged = current
		merged.Title = e.Title
		merged.Description = e.Description
		merged.Date = e.Date
		merged.Time = e.Time
		merged.Location = e.Location
		merged.Latitude = e.Latitude
		merged.Longitude = e.Longitude
		merged.ImageURL = e.ImageURL
		merged.License = e.License
		merged.Category = e.Category
		merged.Capacity = e.Capacity
		if e.State != "" {
			merged.State = e.State
		}
		merged = merged.WithDefaults()
		return tx.Set(CollectionEvents, merged.ID, eventDoc(merged))
	})
	if err != nil {
		return domain.Event{}, storeErr("update event", err)
	}
	r.mirrorEvent(ctx, merged)
	return merged, nil
}

// DeleteEvent removes the event, its comments, the cached copies and the
// organizer's reference, in that order. Steps already done are not undone
// when a later one fails.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}

	doc, err := r.store.Get(ctx, CollectionEvents, id)
	if err != nil {
		return storeErr("delete event", err)
	}
	e := eventFromDoc(doc)
	if !e.IsOrganizedBy(who.UserID) {
		return domain.ErrForbidden
	}

	if err := r.store.Delete(ctx, CollectionEvents, id); err != nil {
		return storeErr("delete event", err)
	}

	comments, err := r.store.Query(ctx, CollectionComments, docstore.Query{}.Where(fieldEventID, docstore.OpEqual, id))
	if err != nil {
		return storeErr("list comments of deleted event", err)
	}
	for _, c := range comments {
		if err := r.store.Delete(ctx, CollectionComments, c.ID()); err != nil {
			return storeErr("delete comment", err)
		}
	}

	if err := r.mirror.DeleteEvent(ctx, id); err != nil {
		slog.Warn("mirror event delete failed", "op", "mirror.DeleteEvent", "event_id", id, "error", err)
	}
	if err := r.mirror.DeleteCommentsByEvent(ctx, id); err != nil {
		slog.Warn("mirror comments delete failed", "op", "mirror.DeleteCommentsByEvent", "event_id", id, "error", err)
	}

	err = r.store.Update(ctx, CollectionUsers, e.OrganizerID, docstore.Update{
		Path:  fieldCreatedEvents,
		Value: docstore.ArrayRemove(id),
	})
	if err != nil {
		return domain.NewStoreError("remove created event from profile", err)
	}
	return nil
}

// GetEvent reads one event from the remote store.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	doc, err := r.store.Get(ctx, CollectionEvents, id)
	if err != nil {
		return domain.Event{}, storeErr("get event", err)
	}
	return eventFromDoc(doc), nil
}

func (r *EventRepository) scopeQuery(ctx context.Context, scope Scope) (docstore.Query, error) {
	q := docstore.Query{}
	switch scope {
	case ScopeUpcoming:
		return q.Where(fieldDate, docstore.OpGreaterEqual, r.nowMillis()).Order(fieldDate, false), nil
	case ScopePast:
		return q.Where(fieldDate, docstore.OpLess, r.nowMillis()).Order(fieldDate, true), nil
	case ScopeMine:
		who, err := caller(ctx)
		if err != nil {
			return q, err
		}
		return q.Where(fieldOrganizerID, docstore.OpEqual, who.UserID).Order(fieldDate, true), nil
	}
	return q.Order(fieldDate, true), nil
}

// Watch streams the events of scope. Upcoming and past split at the time
// the subscription starts.
func (r *EventRepository) Watch(ctx context.Context, scope Scope) *stream.Subscription[[]domain.Event] {
	q, err := r.scopeQuery(ctx, scope)
	if err != nil {
		return stream.Failed[[]domain.Event](err)
	}
	src := r.store.Subscribe(ctx, CollectionEvents, q)
	return snapshots(fmt.Sprintf("watch %s events", scope), src, eventsFromDocs)
}

func (r *EventRepository) WatchAll(ctx context.Context) *stream.Subscription[[]domain.Event] {
	return r.Watch(ctx, ScopeAll)
}

func (r *EventRepository) WatchUpcoming(ctx context.Context) *stream.Subscription[[]domain.Event] {
	return r.Watch(ctx, ScopeUpcoming)
}

func (r *EventRepository) WatchPast(ctx context.Context) *stream.Subscription[[]domain.Event] {
	return r.Watch(ctx, ScopePast)
}

// WatchMine streams the events organized by the caller.
func (r *EventRepository) WatchMine(ctx context.Context) *stream.Subscription[[]domain.Event] {
	return r.Watch(ctx, ScopeMine)
}

// ListEvents is a one-shot read of scope.
func (r *EventRepository) ListEvents(ctx context.Context, scope Scope) ([]domain.Event, error) {
	q, err := r.scopeQuery(ctx, scope)
	if err != nil {
		return nil, err
	}
	docs, err := r.store.Query(ctx, CollectionEvents, q)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	return eventsFromDocs(docs), nil
}

// ConfirmAttendance adds the caller to the event's attendees and the event to
// the caller's attended events in one transaction. Repeating it is a no-op.
// Capacity is not enforced here.
func (r *EventRepository) ConfirmAttendance(ctx context.Context, eventID string) (domain.Event, error) {
	return r.changeAttendance(ctx, eventID, true)
}

// CancelAttendance reverses ConfirmAttendance.
func (r *EventRepository) CancelAttendance(ctx context.Context, eventID string) (domain.Event, error) {
	return r.changeAttendance(ctx, eventID, false)
}

func (r *EventRepository) changeAttendance(ctx context.Context, eventID string, attend bool) (domain.Event, error) {
	who, err := caller(ctx)
	if err != nil {
		return domain.Event{}, err
	}

	op := "confirm attendance"
	transform := docstore.ArrayUnion
	if !attend {
		op = "cancel attendance"
		transform = docstore.ArrayRemove
	}

	err = r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if _, err := tx.Get(CollectionEvents, eventID); err != nil {
			return err
		}
		_, err := tx.Get(CollectionUsers, who.UserID)
		profileMissing := err != nil
		if profileMissing && !isNotFound(err) {
			return err
		}

		if err := tx.Update(CollectionEvents, eventID, docstore.Update{Path: fieldAttendees, Value: transform(who.UserID)}); err != nil {
			return err
		}
		if profileMissing {
			u := newProfile(who, r.nowMillis())
			if attend {
				u.AttendedEvents = []string{eventID}
			}
			return tx.Set(CollectionUsers, who.UserID, userDoc(u))
		}
		return tx.Update(CollectionUsers, who.UserID, docstore.Update{Path: fieldAttendedEvents, Value: transform(eventID)})
	})
	if err != nil {
		return domain.Event{}, storeErr(op, err)
	}

	e, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	r.mirrorEvent(ctx, e)
	return e, nil
}

// Attendees loads the profiles of an event's attendees. Only the organizer
// may list them; missing profiles are skipped.
func (r *EventRepository) Attendees(ctx context.Context, eventID string) ([]domain.User, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	e, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.IsOrganizedBy(who.UserID) {
		return nil, domain.ErrForbidden
	}

	users := make([]domain.User, 0, len(e.Attendees))
	for _, uid := range e.Attendees {
		doc, err := r.store.Get(ctx, CollectionUsers, uid)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, storeErr("get attendee", err)
		}
		users = append(users, userFromDoc(doc))
	}
	return users, nil
}

// CacheQuery translates scope into the equivalent mirror query. Upcoming and
// past are evaluated against the current time.
func (r *EventRepository) CacheQuery(ctx context.Context, scope Scope) (mirror.EventQuery, error) {
	switch scope {
	case ScopeUpcoming:
		return mirror.UpcomingEvents(r.nowMillis()), nil
	case ScopePast:
		return mirror.PastEvents(r.nowMillis()), nil
	case ScopeMine:
		who, err := caller(ctx)
		if err != nil {
			return mirror.EventQuery{}, err
		}
		return mirror.EventsByOrganizer(who.UserID), nil
	}
	return mirror.AllEvents(), nil
}

// WatchCachedEvents streams events from the local mirror.
func (r *EventRepository) WatchCachedEvents(ctx context.Context, q mirror.EventQuery) *stream.Subscription[[]domain.Event] {
	return r.mirror.WatchEvents(ctx, q)
}

// CachedEvents is a one-shot read of the local mirror.
func (r *EventRepository) CachedEvents(ctx context.Context, q mirror.EventQuery) ([]domain.Event, error) {
	events, err := r.mirror.Events(ctx, q)
	if err != nil {
		return nil, domain.NewStoreError("read cached events", err)
	}
	return events, nil
}

type SyncResult struct {
	Events   int `json:"events"`
	Comments int `json:"comments"`
}

// SyncMirror replaces the mirror's events and comments with the remote
// collections.
func (r *EventRepository) SyncMirror(ctx context.Context) (SyncResult, error) {
	eventDocs, err := r.store.Query(ctx, CollectionEvents, docstore.Query{})
	if err != nil {
		return SyncResult{}, storeErr("sync events", err)
	}
	commentDocs, err := r.store.Query(ctx, CollectionComments, docstore.Query{})
	if err != nil {
		return SyncResult{}, storeErr("sync comments", err)
	}

	events := eventsFromDocs(eventDocs)
	comments := commentsFromDocs(commentDocs)
	if err := r.mirror.ReplaceEvents(ctx, events); err != nil {
		return SyncResult{}, domain.NewStoreError("mirror events", err)
	}
	if err := r.mirror.ReplaceComments(ctx, comments); err != nil {
		return SyncResult{}, domain.NewStoreError("mirror comments", err)
	}
	return SyncResult{Events: len(events), Comments: len(comments)}, nil
}

func isNotFound(err error) bool {
	return err != nil && (errors.Is(err, docstore.ErrNotFound) || errors.Is(err, domain.ErrNotFound))
}

func newProfile(who identity.Identity, now int64) domain.User {
	return domain.User{
		ID:             who.UserID,
		Name:           who.DisplayName,
		Email:          who.Email,
		PhotoURL:       who.PhotoURL,
		CreatedEvents:  []string{},
		AttendedEvents: []string{},
		RegisteredAt:   now,
	}
}
