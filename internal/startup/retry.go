// Package startup holds helpers for bringing the service up reliably.
package startup

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures the exponential backoff retry behavior.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64

	// Retryable decides whether an error is worth another attempt. Nil means IsTransient.
	Retryable func(error) bool
}

// DefaultRetryConfig returns defaults suited to opening local resources at boot.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		MaxAttempts:  5,
		Multiplier:   2.0,
	}
}

var transientIndicators = []string{
	"database is locked",
	"sqlite_busy",
	"address already in use",
	"connection refused",
	"i/o timeout",
	"resource temporarily unavailable",
}

// IsTransient reports whether err looks like a condition that clears on its own:
// a locked SQLite file, a port still held by a previous process, or a network timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) || errors.Is(err, syscall.EAGAIN) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range transientIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// WithRetry executes fn with exponential backoff while it fails with retryable errors.
// Other errors fail immediately.
func WithRetry(ctx context.Context, name string, cfg RetryConfig, fn func(context.Context) error, logger *zerolog.Logger) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("operation", name).Int("attempt", attempt).Msg("operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		logger.Warn().
			Err(err).
			Str("operation", name).
			Int("attempt", attempt).
			Int("maxAttempts", attempts).
			Dur("nextRetryIn", delay).
			Msg("transient error, will retry")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = nextDelay(delay, cfg)
	}

	logger.Error().Err(lastErr).Str("operation", name).Int("attempts", attempts).
		Msg("operation failed after all retries")
	return lastErr
}

func nextDelay(delay time.Duration, cfg RetryConfig) time.Duration {
	next := time.Duration(float64(delay) * cfg.Multiplier)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		next = cfg.MaxDelay
	}
	return next
}
