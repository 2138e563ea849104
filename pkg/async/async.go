package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Future is the pending result of a function started with Go.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the function returns.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout is Await bounded by timeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Go runs fn(ctx, param) in its own goroutine. A context that is already
// done short-circuits to ctx.Err() without calling fn. A panic in fn is
// returned as ErrPanic.
func Go[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = call(ctx, param, fn)
	}()
	return f
}

// call runs fn and reports a panic as ErrPanic.
func call[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) (res U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx, param)
}

// Outcome is one settled future.
type Outcome[U any] struct {
	Value U
	Err   error
}

// Settle waits for every future and returns their outcomes in order. Unlike
// a fail-fast wait it never stops at the first error.
func Settle[U any](futures ...*Future[U]) []Outcome[U] {
	out := make([]Outcome[U], len(futures))
	for i, f := range futures {
		out[i].Value, out[i].Err = f.Await()
	}
	return out
}

// ForEach calls fn for every item with at most limit calls in flight and
// returns the joined errors, panics included as ErrPanic. Items not yet
// started when ctx is done are skipped and ctx.Err() is included once in
// the result.
func ForEach[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return errors.Join(append(errs, err)...)
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return errors.Join(append(errs, ctx.Err())...)
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(item T) {
			defer func() {
				<-sem
				wg.Done()
			}()
			_, err := call(ctx, item, func(ctx context.Context, item T) (struct{}, error) {
				return struct{}{}, fn(ctx, item)
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(item)
	}

	wg.Wait()
	return errors.Join(errs...)
}
