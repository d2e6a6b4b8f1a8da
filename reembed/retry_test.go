package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyOp returns errEmbedUnavailable for its first n calls.
func flakyOp(n int) (func() error, *int) {
	calls := 0
	return func() error {
		calls++
		if calls <= n {
			return errEmbedUnavailable
		}
		return nil
	}, &calls
}

var errEmbedUnavailable = errors.New("embedding service unavailable")

func TestRetryWithBackoff(t *testing.T) {
	cases := map[string]struct {
		failures    int
		maxAttempts int
		wantErr     error
		wantCalls   int
	}{
		"first try":         {failures: 0, maxAttempts: 3, wantCalls: 1},
		"recovers":          {failures: 2, maxAttempts: 5, wantCalls: 3},
		"recovers on last":  {failures: 2, maxAttempts: 3, wantCalls: 3},
		"exhausted":         {failures: 10, maxAttempts: 3, wantErr: errEmbedUnavailable, wantCalls: 3},
		"single attempt":    {failures: 1, maxAttempts: 1, wantErr: errEmbedUnavailable, wantCalls: 1},
		"zero attempts":     {failures: 0, maxAttempts: 0, wantErr: ErrInvalidMaxAttempts, wantCalls: 0},
		"negative attempts": {failures: 0, maxAttempts: -2, wantErr: ErrInvalidMaxAttempts, wantCalls: 0},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			op, calls := flakyOp(tc.failures)
			err := RetryWithBackoff(context.Background(), op, tc.maxAttempts, time.Millisecond)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantCalls, *calls)
		})
	}
}

func TestRetryWithBackoff_DelaysDouble(t *testing.T) {
	op, calls := flakyOp(3)

	start := time.Now()
	err := RetryWithBackoff(context.Background(), op, 4, 10*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 4, *calls)
	// 10ms + 20ms + 40ms of waiting between the four attempts.
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
}

func TestRetryWithBackoff_Cancellation(t *testing.T) {
	t.Run("canceled between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls == 2 {
				cancel()
			}
			return errEmbedUnavailable
		}, 10, time.Millisecond)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
	})

	t.Run("deadline during backoff", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		op, calls := flakyOp(100)
		err := RetryWithBackoff(ctx, op, 10, time.Hour)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, *calls)
	})

	t.Run("already canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		op, calls := flakyOp(0)
		err := RetryWithBackoff(ctx, op, 3, time.Millisecond)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, *calls)
	})
}
