// Package task provides typed handles for work started in the background.
package task

import (
	"context"

	"github.com/google/uuid"
)

// Handle is a future for a single asynchronous operation.
// The operation always runs to completion; Wait only stops waiting.
type Handle[T any] struct {
	ID   string
	done chan struct{}
	val  T
	err  error
}

// Go starts fn in a new goroutine and returns its handle.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Handle[T] {
	h := &Handle[T]{
		ID:   uuid.New().String(),
		done: make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		h.val, h.err = fn(ctx)
	}()
	return h
}

// Done is closed when the operation finished.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the operation finishes or ctx is done.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.val, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
