// Package stream is a push-based, cancelable sequence of snapshots. A
// Subscription owns one producer goroutine; Cancel stops it and waits until
// the producer has released whatever it registered.
package stream

import (
	"context"
	"errors"
	"sync"
)

type Subscription[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Emit delivers a value to the subscriber. It returns false once the
// subscription is canceled; the producer must then return.
type Emit[T any] func(T) bool

// Run starts producer on its own goroutine. The producer must return when
// ctx is done. A non-nil error other than context.Canceled is reported by Err
// after Updates is closed.
func Run[T any](ctx context.Context, producer func(ctx context.Context, emit Emit[T]) error) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		updates: make(chan T),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.updates)
		defer cancel()

		err := producer(ctx, func(v T) bool {
			select {
			case s.updates <- v:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()
	return s
}

// Failed returns an already-terminated subscription carrying err.
func Failed[T any](err error) *Subscription[T] {
	return Run(context.Background(), func(context.Context, Emit[T]) error { return err })
}

func (s *Subscription[T]) Updates() <-chan T { return s.updates }

// Cancel stops the producer and blocks until it has exited.
func (s *Subscription[T]) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the producer has exited.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Map transforms every value of src. Canceling the result cancels src.
func Map[A, B any](src *Subscription[A], f func(A) B) *Subscription[B] {
	return Run(context.Background(), func(ctx context.Context, emit Emit[B]) error {
		defer src.Cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-src.Updates():
				if !ok {
					return src.Err()
				}
				if !emit(f(v)) {
					return nil
				}
			}
		}
	})
}

// Next waits for the next value. It returns the subscription's error, or
// ErrClosed, when the sequence ends first.
func Next[T any](ctx context.Context, s *Subscription[T]) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case v, ok := <-s.Updates():
		if !ok {
			if err := s.Err(); err != nil {
				return zero, err
			}
			return zero, ErrClosed
		}
		return v, nil
	}
}

var ErrClosed = errors.New("stream closed")
