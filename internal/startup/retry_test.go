package startup

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"address in use", fmt.Errorf("listen: %w", syscall.EADDRINUSE), true},
		{"canceled", context.Canceled, false},
		{"permission", errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), "open", fastConfig(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		}, &logger)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), "open", fastConfig(), func(context.Context) error {
			calls++
			return errors.New("database is locked")
		}, &logger)
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors fail fast", func(t *testing.T) {
		calls := 0
		permanent := errors.New("no such table")
		err := WithRetry(context.Background(), "open", fastConfig(), func(context.Context) error {
			calls++
			return permanent
		}, &logger)
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("custom predicate", func(t *testing.T) {
		cfg := fastConfig()
		cfg.Retryable = func(error) bool { return true }
		calls := 0
		_ = WithRetry(context.Background(), "open", cfg, func(context.Context) error {
			calls++
			return errors.New("anything")
		}, &logger)
		assert.Equal(t, 3, calls)
	})

	t.Run("canceled context stops waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := fastConfig()
		cfg.InitialDelay = time.Hour
		err := WithRetry(ctx, "open", cfg, func(context.Context) error {
			cancel()
			return errors.New("database is locked")
		}, &logger)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
