package apperrors

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures the retry decorator described in §7.
type RetryConfig struct {
	Max          int           // maximum retry attempts after the first try
	DefaultDelay time.Duration // used when a KindRetryable exception carries no delay hint
	MaxDelay     time.Duration
	JitterFactor float64
}

// DefaultRetryConfig mirrors the teacher's exponential-backoff defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Max:          3,
		DefaultDelay: time.Second,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.25,
	}
}

// RetryableFunc is wrapped by Retry.
type RetryableFunc func(ctx context.Context) error

// Retry wraps fn, sleeping on a KindRetryable exception for the delay hint
// (or, without one, cfg.DefaultDelay doubled on each attempt) and retrying
// up to cfg.Max times. The delay is capped at cfg.MaxDelay and then
// jittered by up to ±cfg.JitterFactor. On exhaustion it raises
// KindMaxRetriesExceeded wrapping the last error, per §7.
func Retry(ctx context.Context, cfg RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.Max; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		fe := AsFrameworkError(err)
		if fe.Kind != KindRetryable {
			return err
		}

		if attempt == cfg.Max {
			break
		}

		delay := backoffDelay(attempt, cfg, fe.RetryAfterSeconds)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return &Error{
		Kind:    KindMaxRetriesExceeded,
		Message: "max retries exceeded",
		Err:     lastErr,
	}
}

func backoffDelay(attempt int, cfg RetryConfig, hintSeconds float64) time.Duration {
	base := cfg.DefaultDelay
	if hintSeconds > 0 {
		base = time.Duration(hintSeconds * float64(time.Second))
	} else {
		base = time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	}
	if cfg.MaxDelay > 0 && base > cfg.MaxDelay {
		base = cfg.MaxDelay
	}
	if cfg.JitterFactor > 0 {
		jitter := (rand.Float64()*2 - 1) * cfg.JitterFactor
		base = time.Duration(float64(base) * (1 + jitter))
	}
	if base < 0 {
		base = 0
	}
	return base
}
