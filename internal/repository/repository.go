// Package repository maps remote records to domain entities, keeps the local
// mirror in step with successful remote writes and derives the aggregates
// stored on events.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

// storeErr classifies a failed store call. Domain errors pass through.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrStore),
		domain.IsValidation(err):
		return err
	}
	return domain.NewStoreError(op, err)
}

func caller(ctx context.Context) (identity.Identity, error) {
	id, ok := identity.CallerFrom(ctx)
	if !ok {
		return identity.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// snapshots turns a document subscription into an entity subscription whose
// terminal error is a StoreError.
func snapshots[T any](op string, src *stream.Subscription[[]docstore.Document], conv func([]docstore.Document) []T) *stream.Subscription[[]T] {
	return stream.Run(context.Background(), func(ctx context.Context, emit stream.Emit[[]T]) error {
		defer src.Cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case docs, ok := <-src.Updates():
				if !ok {
					if err := src.Err(); err != nil {
						return storeErr(op, err)
					}
					return nil
				}
				if !emit(conv(docs)) {
					return nil
				}
			}
		}
	})
}
