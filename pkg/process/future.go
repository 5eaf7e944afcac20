package process

import (
	"context"
	"fmt"
	"sync"
)

// Future is the eventual result of a function run on a process.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get waits for the result or for ctx to be done, whichever comes first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Async dispatches fn onto p and returns a future for its result. The
// future fails if fn cannot be dispatched, if ctx is done before fn gets
// its turn, or if fn panics.
func Async[T any](ctx context.Context, p *Process, fn func() T) *Future[T] {
	f := newFuture[T]()

	err := p.Dispatch(ctx, func() {
		if err := ctx.Err(); err != nil {
			var zero T
			f.resolve(zero, err)
			return
		}

		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.resolve(zero, fmt.Errorf("deferred call panicked: %v", r))
				// Let the process apply its panic policy as well.
				panic(r)
			}
		}()
		f.resolve(fn(), nil)
	})
	if err != nil {
		var zero T
		f.resolve(zero, err)
	}

	return f
}

// Defer binds fn to p. Each call of the returned function posts fn into
// p's queue and waits for the result. The value reflects every task
// dispatched to p before the call and may or may not reflect tasks
// dispatched concurrently with it.
func Defer[T any](p *Process, fn func() T) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Async(ctx, p, fn).Get(ctx)
	}
}

// Run dispatches fn onto p and waits for it to finish.
func Run(ctx context.Context, p *Process, fn func()) error {
	_, err := Async(ctx, p, func() struct{} {
		fn()
		return struct{}{}
	}).Get(ctx)
	return err
}
