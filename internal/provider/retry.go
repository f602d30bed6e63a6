package provider

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"taskforge/internal/domain"
)

// retryConfig bounds how an adapter retries ErrProviderTransient failures.
// Open Question decision (DESIGN.md): exponential backoff with full jitter,
// base 200ms, capped at 5s, up to MaxRetries retries after the first attempt. Idempotent generation
// requests only; tool invocations must not pass through this helper.
type retryConfig struct {
	MaxRetries int
	Base       time.Duration
	Cap        time.Duration
}

func defaultRetryConfig(maxRetries int) retryConfig {
	return retryConfig{MaxRetries: maxRetries, Base: 200 * time.Millisecond, Cap: 5 * time.Second}
}

// withRetry runs fn, retrying while it returns an error wrapping
// ErrProviderTransient, up to cfg.MaxRetries additional attempts.
func withRetry(ctx context.Context, cfg retryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, domain.ErrProviderTransient) {
			return lastErr
		}
		if attempt == cfg.MaxRetries {
			break
		}
		delay := backoff(cfg, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func backoff(cfg retryConfig, attempt int) time.Duration {
	d := cfg.Base << attempt
	if d > cfg.Cap {
		d = cfg.Cap
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
