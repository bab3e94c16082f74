// Package future provides a single-assignment result that callbacks can wait on.
package future

import (
	"context"
	"sync"
)

// Chan is a future that completes once with a value of type T.
// It is safe for concurrent use; callbacks run in their own goroutine
// so a slow listener never blocks the completing side.
type Chan[T any] struct {
	done   chan struct{}
	once   sync.Once
	result T
}

// NewChan returns a new uncompleted Chan.
func NewChan[T any]() *Chan[T] {
	return &Chan[T]{done: make(chan struct{})}
}

// Completed returns a Chan already completed with result.
func Completed[T any](result T) *Chan[T] {
	return NewChan[T]().Complete(result)
}

// Complete sets the result once. Later calls have no effect.
func (f *Chan[T]) Complete(result T) *Chan[T] {
	f.once.Do(func() {
		f.result = result
		close(f.done)
	})
	return f
}

// ThenAccept registers callback to be run with the result once available.
// It returns immediately.
func (f *Chan[T]) ThenAccept(callback func(T)) *Chan[T] {
	go func() {
		<-f.done
		callback(f.result)
	}()
	return f
}

// Get blocks until the result is available.
func (f *Chan[T]) Get() T {
	<-f.done
	return f.result
}

// Wait is like Get but gives up when ctx is done.
func (f *Chan[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
