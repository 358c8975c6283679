package downloader

import (
	"context"
	"time"

	"neat-backup/internal/logger"
)

// RetryConfig bounds the retry loop for transient failures.
type RetryConfig struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, Backoff: 2 * time.Second}
}

// Retry runs fn up to cfg.Attempts times, sleeping cfg.Backoff between
// attempts scaled linearly by attempt number. retryable decides whether an
// error is worth another attempt; permanent errors surface immediately.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error), retryable func(error) bool) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !retryable(err) {
			return zero, err
		}
		if attempt < cfg.Attempts {
			logger.Debug("attempt %d/%d failed: %v, retrying", attempt, cfg.Attempts, err)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.Backoff * time.Duration(attempt)):
			}
		}
	}
	return zero, lastErr
}
