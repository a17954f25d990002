package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		JitterFraction: 0,
		sleep:          func(ctx context.Context, d time.Duration) error { return nil },
	}
}

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), instantPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("upstream flaked"), 503)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), instantPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, eris.New("bad request")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors are not retried")
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), instantPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewTransientError(eris.New("still down"), 500)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, instantPolicy(5), func(ctx context.Context) error {
		calls++
		cancel()
		return NewTransientError(eris.New("flaky"), 502)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation stops the loop")
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	p := instantPolicy(3)
	p.OnRetry = func(attempt int, err error) { attempts = append(attempts, attempt) }

	_ = Do(context.Background(), p, func(ctx context.Context) error {
		return NewTransientError(eris.New("flaky"), 429)
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestBackoffGrowth(t *testing.T) {
	p := Policy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
		JitterFraction: 0,
	}.withDefaults()

	assert.Equal(t, 100*time.Millisecond, p.backoff(0))
	assert.Equal(t, 200*time.Millisecond, p.backoff(1))
	assert.Equal(t, 400*time.Millisecond, p.backoff(2))
	assert.Equal(t, time.Second, p.backoff(5), "capped at MaxBackoff")
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("validation failed")))
	assert.True(t, IsTransient(NewTransientError(eris.New("rate limited"), 429)))
	assert.True(t, IsTransient(eris.Wrap(NewTransientError(eris.New("x"), 500), "outer")))
	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, RetryableStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 404, 422} {
		assert.False(t, RetryableStatus(code), "status %d", code)
	}
}
