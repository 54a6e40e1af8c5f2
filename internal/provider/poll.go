package provider

import (
	"context"
	"time"
)

// Poll defaults: 10 attempts 2 seconds apart, roughly the 20 seconds a
// wholesaler search usually needs.
const (
	DefaultPollAttempts = 10
	DefaultPollDelay    = 2 * time.Second
)

// Poll calls fetch up to attempts times, sleeping delay between attempts,
// until done reports a terminal result. Fetch errors propagate immediately —
// only "still processing" is retried. Exhausting the budget returns
// TimeoutError, never a partial result. The sleep is context-aware, so
// cancellation cuts a slow poll short.
func Poll[T any](ctx context.Context, fetch func(context.Context) (T, error), done func(T) bool, attempts int, delay time.Duration) (T, error) {
	var zero T

	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	if delay <= 0 {
		delay = DefaultPollDelay
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fetch(ctx)
		if err != nil {
			return zero, err
		}
		if done(result) {
			return result, nil
		}

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, &TimeoutError{Attempts: attempts}
}
