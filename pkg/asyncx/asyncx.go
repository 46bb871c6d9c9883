// Package asyncx holds the small set of generic concurrency helpers the
// service relies on: bounded retries, deadlines around blocking calls,
// lazy one-shot initialisation and an ordered worker pool.
package asyncx

import (
	"context"
	"sync"
	"time"
)

// ─── Retry ────────────────────────────────────────────────────────────────────

// Backoff describes a bounded exponential retry schedule.
type Backoff struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	// InitialDelay is the wait before the second attempt; it doubles after every failure.
	InitialDelay time.Duration
	// MaxDelay caps the doubled delay. Zero means uncapped.
	MaxDelay time.Duration
	// Retryable decides whether an error is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// RetryWithBackoff calls fn until it succeeds, the schedule is exhausted or
// an error is rejected by b.Retryable. The last error is returned as is.
// Respects context cancellation between retries.
func RetryWithBackoff[T any](ctx context.Context, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero  T
		err   error
		val   T
		delay = b.InitialDelay
	)
	attempts := b.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	for i := range attempts {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return zero, err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
				delay *= 2
				if b.MaxDelay > 0 && delay > b.MaxDelay {
					delay = b.MaxDelay
				}
			}
		}
	}
	return zero, err
}

// ─── Timeout ──────────────────────────────────────────────────────────────────

// WithTimeout runs fn with a deadline of d. A non-positive d runs fn with ctx unchanged.
// Returns context.DeadlineExceeded if fn does not finish in time.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type res struct {
		v   T
		err error
	}

	ch := make(chan res, 1)
	go func() {
		v, err := fn(ctx)
		ch <- res{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ─── Worker Pool ──────────────────────────────────────────────────────────────

// Pool processes items using at most workers goroutines and returns results
// in the original order. Returns the first error encountered.
func Pool[T any, R any](
	ctx context.Context,
	workers int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}

	type indexed struct {
		i    int
		item T
	}

	work := make(chan indexed, len(items))
	for i, item := range items {
		work <- indexed{i: i, item: item}
	}
	close(work)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for w := range work {
				select {
				case <-ctx.Done():
					errs[w.i] = ctx.Err()
					return
				default:
					results[w.i], errs[w.i] = fn(ctx, w.item)
				}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ─── Once ─────────────────────────────────────────────────────────────────────

// Once wraps fn so it executes at most once, regardless of how many goroutines
// call the returned function simultaneously. The first result, error included, is sticky.
func Once[T any](fn func() (T, error)) func() (T, error) {
	var (
		once sync.Once
		val  T
		err  error
	)
	return func() (T, error) {
		once.Do(func() {
			val, err = fn()
		})
		return val, err
	}
}
