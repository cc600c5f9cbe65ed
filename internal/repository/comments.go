package repository

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

func commentsQuery(eventID string) docstore.Query {
	return docstore.Query{}.Where(fieldEventID, docstore.OpEqual, eventID).Order(fieldDate, true)
}

// AddComment stores a comment by the caller and recomputes the event's
// average rating and rating count from every stored comment of the event.
// The insert and the recount commit together.
func (r *EventRepository) AddComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	who, err := caller(ctx)
	if err != nil {
		return domain.Comment{}, err
	}
	if err := domain.ValidateComment(c); err != nil {
		return domain.Comment{}, err
	}

	c.ID = r.store.NewID(CollectionComments)
	c.UserID = who.UserID
	if who.DisplayName != "" {
		c.UserName = who.DisplayName
	}
	if who.PhotoURL != nil {
		c.UserPhotoURL = who.PhotoURL
	}
	c.Date = r.nowMillis()
	c.Edited = false

	err = r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if _, err := tx.Get(CollectionEvents, c.EventID); err != nil {
			return err
		}
		docs, err := tx.Query(CollectionComments, docstore.Query{}.Where(fieldEventID, docstore.OpEqual, c.EventID))
		if err != nil {
			return err
		}
		avg, count := domain.RatingSummary(append(commentsFromDocs(docs), c))
		if err := tx.Set(CollectionComments, c.ID, commentDoc(c)); err != nil {
			return err
		}
		return tx.Update(CollectionEvents, c.EventID,
			docstore.Update{Path: fieldAverageRating, Value: avg},
			docstore.Update{Path: fieldRatingCount, Value: count},
		)
	})
	if err != nil {
		return domain.Comment{}, storeErr("add comment", err)
	}

	if err := r.mirror.UpsertComment(ctx, c); err != nil {
		slog.Warn("mirror comment write failed", "op", "mirror.UpsertComment", "event_id", c.EventID, "error", err)
	}
	if e, err := r.GetEvent(ctx, c.EventID); err == nil {
		r.mirrorEvent(ctx, e)
	}
	return c, nil
}

// WatchComments streams an event's comments, newest first.
func (r *EventRepository) WatchComments(ctx context.Context, eventID string) *stream.Subscription[[]domain.Comment] {
	src := r.store.Subscribe(ctx, CollectionComments, commentsQuery(eventID))
	return snapshots("watch comments", src, commentsFromDocs)
}

func (r *EventRepository) ListComments(ctx context.Context, eventID string) ([]domain.Comment, error) {
	docs, err := r.store.Query(ctx, CollectionComments, commentsQuery(eventID))
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return commentsFromDocs(docs), nil
}

// WatchCachedComments streams an event's comments from the local mirror.
func (r *EventRepository) WatchCachedComments(ctx context.Context, eventID string) *stream.Subscription[[]domain.Comment] {
	return r.mirror.WatchComments(ctx, eventID)
}

// CachedComments is a one-shot read of an event's comments from the local
// mirror.
func (r *EventRepository) CachedComments(ctx context.Context, eventID string) ([]domain.Comment, error) {
	comments, err := r.mirror.Comments(ctx, eventID)
	if err != nil {
		return nil, domain.NewStoreError("read cached comments", err)
	}
	return comments, nil
}
