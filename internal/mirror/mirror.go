// Package mirror is the local read copy of the remote store. It is never
// authoritative: rows are written only after the remote write succeeded and
// may be replaced wholesale by a sync.
package mirror

import (
	"context"
	"sort"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

const (
	TableEvents   = "events"
	TableComments = "comments"
	TableUsers    = "users"
)

type Mirror interface {
	UpsertEvent(ctx context.Context, e domain.Event) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	DeleteAllEvents(ctx context.Context) error
	// ReplaceEvents swaps the whole events table for events.
	ReplaceEvents(ctx context.Context, events []domain.Event) error
	Events(ctx context.Context, q EventQuery) ([]domain.Event, error)
	WatchEvents(ctx context.Context, q EventQuery) *stream.Subscription[[]domain.Event]

	UpsertComment(ctx context.Context, c domain.Comment) error
	DeleteCommentsByEvent(ctx context.Context, eventID string) error
	DeleteAllComments(ctx context.Context) error
	ReplaceComments(ctx context.Context, comments []domain.Comment) error
	Comments(ctx context.Context, eventID string) ([]domain.Comment, error)
	WatchComments(ctx context.Context, eventID string) *stream.Subscription[[]domain.Comment]

	UpsertUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	DeleteAllUsers(ctx context.Context) error

	Ping(ctx context.Context) error
}

type QueryKind int

const (
	QueryAll QueryKind = iota
	QueryUpcoming
	QueryPast
	QueryByOrganizer
	QueryByState
)

// EventQuery selects cached events. Upcoming means a future date still in
// state PROXIMO; past means a past date or state FINALIZADO.
type EventQuery struct {
	Kind        QueryKind
	Now         int64
	OrganizerID string
	State       domain.EventState
}

func AllEvents() EventQuery { return EventQuery{Kind: QueryAll} }

func UpcomingEvents(now int64) EventQuery { return EventQuery{Kind: QueryUpcoming, Now: now} }

func PastEvents(now int64) EventQuery { return EventQuery{Kind: QueryPast, Now: now} }

func EventsByOrganizer(userID string) EventQuery {
	return EventQuery{Kind: QueryByOrganizer, OrganizerID: userID}
}

func EventsByState(state domain.EventState) EventQuery {
	return EventQuery{Kind: QueryByState, State: state}
}

func (q EventQuery) Match(e domain.Event) bool {
	switch q.Kind {
	case QueryUpcoming:
		return e.Date >= q.Now && e.State == domain.StateUpcoming
	case QueryPast:
		return e.Date < q.Now || e.State == domain.StateFinished
	case QueryByOrganizer:
		return e.OrganizerID == q.OrganizerID
	case QueryByState:
		return e.State == q.State
	}
	return true
}

// Ascending reports whether results are ordered by date ascending.
func (q EventQuery) Ascending() bool { return q.Kind == QueryUpcoming }

func (q EventQuery) Sort(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date == events[j].Date {
			return events[i].ID < events[j].ID
		}
		if q.Ascending() {
			return events[i].Date < events[j].Date
		}
		return events[i].Date > events[j].Date
	})
}

func sortComments(comments []domain.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Date == comments[j].Date {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Date > comments[j].Date
	})
}

// watch re-runs load after every change notification for table. The
// listener is registered before the first load so no change is missed.
func watch[T any](ctx context.Context, n Notifier, table string, load func(context.Context) ([]T, error)) *stream.Subscription[[]T] {
	return stream.Run(ctx, func(ctx context.Context, emit stream.Emit[[]T]) error {
		changes, stop := n.Subscribe(ctx, table)
		defer stop()

		for {
			rows, err := load(ctx)
			if err != nil {
				return domain.NewStoreError("mirror watch "+table, err)
			}
			if !emit(rows) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-changes:
				if !ok {
					return nil
				}
			}
		}
	})
}
