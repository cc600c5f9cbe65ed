// Package presenter holds the UI state behind the event and auth screens.
// Each intent sets the loading flag, calls the repository, then replaces
// the snapshot and posts a message that clears itself after a while.
package presenter

import (
	"context"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

const DefaultFlashDuration = 3 * time.Second

// holder guards a state snapshot S and fans out change signals.
type holder[S any] struct {
	mu        sync.Mutex
	state     S
	listeners map[int]chan struct{}
	nextID    int
	gen       uint64
	timer     *time.Timer
	flashFor  time.Duration
	clear     func(*S)
	done      chan struct{}
	closeOnce sync.Once
}

func newHolder[S any](flashFor time.Duration, clear func(*S)) *holder[S] {
	if flashFor <= 0 {
		flashFor = DefaultFlashDuration
	}
	return &holder[S]{
		listeners: make(map[int]chan struct{}),
		flashFor:  flashFor,
		clear:     clear,
		done:      make(chan struct{}),
	}
}

func (h *holder[S]) snapshot() S {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *holder[S]) update(f func(*S)) {
	h.mu.Lock()
	f(&h.state)
	h.signalLocked()
	h.mu.Unlock()
}

// flash applies f, which sets a message, and schedules the message to clear.
// A newer message cancels the pending clear of an older one.
func (h *holder[S]) flash(f func(*S)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f(&h.state)
	h.gen++
	gen := h.gen
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.flashFor, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.gen != gen {
			return
		}
		h.clear(&h.state)
		h.signalLocked()
	})
	h.signalLocked()
}

// clearNow drops any visible message immediately.
func (h *holder[S]) clearNow() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gen++
	if h.timer != nil {
		h.timer.Stop()
	}
	h.clear(&h.state)
	h.signalLocked()
}

func (h *holder[S]) signalLocked() {
	for _, ch := range h.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *holder[S]) listen() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan struct{}, 1)
	h.listeners[id] = ch
	return ch, func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// watch emits the current snapshot, then one snapshot per change burst,
// until ctx ends or the holder is closed.
func (h *holder[S]) watch(ctx context.Context) *stream.Subscription[S] {
	return stream.Run(ctx, func(ctx context.Context, emit stream.Emit[S]) error {
		changed, release := h.listen()
		defer release()
		if !emit(h.snapshot()) {
			return nil
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-h.done:
				return nil
			case <-changed:
				if !emit(h.snapshot()) {
					return nil
				}
			}
		}
	})
}

func (h *holder[S]) listenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

func (h *holder[S]) close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		if h.timer != nil {
			h.timer.Stop()
		}
		h.mu.Unlock()
		close(h.done)
	})
}
