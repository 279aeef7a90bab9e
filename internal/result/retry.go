package result

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy controls transient-failure retry behavior.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	RetryableKinds    map[Kind]bool
}

// DefaultRetryPolicy retries transient inference and resource failures a few
// times with doubling backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableKinds: map[Kind]bool{
			KindInferenceFailed:       true,
			KindAudioGenerationFailed: true,
			KindFileReadError:         true,
			KindOutOfMemory:           true,
		},
	}
}

// WithRetry runs fn up to policy.MaxAttempts times. Only failures whose
// classified kind is in the retryable set trigger another attempt; the delay
// between attempts starts at InitialDelay and multiplies by
// BackoffMultiplier, capped at MaxDelay. The final failure is returned as an
// error result, never raised.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, name string, fn func(context.Context) (T, error)) Result[T] {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := policy.InitialDelay

	var lastErr error
	var lastKind Kind

	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return Ok(value)
		}

		lastErr = err
		lastKind = Classify(err)

		if !policy.RetryableKinds[lastKind] || attempt == attempts {
			break
		}

		slog.Warn("operation failed, retrying",
			slog.String("operation", name),
			slog.Int("attempt", attempt),
			slog.String("kind", string(lastKind)),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		if !sleepCtx(ctx, delay) {
			return Err[T](KindCancelled, ctx.Err())
		}

		delay = time.Duration(float64(delay) * policy.BackoffMultiplier)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return Err[T](lastKind, lastErr)
}

// sleepCtx waits for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
