// Package worker runs the periodic background jobs of the server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
)

type MirrorSyncer interface {
	SyncMirror(ctx context.Context) (repository.SyncResult, error)
}

// StartMirrorSync refreshes the mirror once immediately and then every
// interval until ctx ends. The returned channel closes when the loop exits.
func StartMirrorSync(ctx context.Context, s MirrorSyncer, interval time.Duration) <-chan struct{} {
	return every(ctx, interval, func(ctx context.Context) {
		start := time.Now()
		res, err := s.SyncMirror(ctx)
		if err != nil {
			slog.Error("mirror sync failed", "op", "worker.mirror_sync", "error", err)
			return
		}
		slog.Info("mirror sync completed",
			"events", res.Events,
			"comments", res.Comments,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	})
}

func every(ctx context.Context, interval time.Duration, job func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		job(ctx)
		for {
			select {
			case <-ticker.C:
				job(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}
