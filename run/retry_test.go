package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/imagecat/ai"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetry(t *testing.T) {
	transient := errors.New("503 from upstream")

	tests := []struct {
		name      string
		attempts  int
		failFirst int
		permanent bool
		wantCalls int
		wantErr   error
	}{
		{name: "first try", attempts: 3, failFirst: 0, wantCalls: 1},
		{name: "eventual success", attempts: 3, failFirst: 2, wantCalls: 3},
		{name: "exhausted", attempts: 3, failFirst: 10, wantCalls: 3, wantErr: transient},
		{name: "single attempt", attempts: 1, failFirst: 10, wantCalls: 1, wantErr: transient},
		{name: "permanent", attempts: 5, failFirst: 10, permanent: true, wantCalls: 1, wantErr: ai.ErrInvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), fastPolicy(tt.attempts), func(context.Context) error {
				calls++
				if calls > tt.failFirst {
					return nil
				}
				if tt.permanent {
					return Permanent(ai.ErrInvalidCredential)
				}
				return transient
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestRetry_InvalidAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		calls := 0
		err := Retry(context.Background(), fastPolicy(n), func(context.Context) error {
			calls++
			return nil
		})
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Zero(t, calls)
	}
}

func TestRetry_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, fastPolicy(10), func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, fastPolicy(3), func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetry_AttemptTimeoutIsRetried(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, Timeout: 20 * time.Millisecond}
	calls := 0
	err := Retry(context.Background(), policy, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_NoTimeoutPassesParent(t *testing.T) {
	err := Retry(context.Background(), fastPolicy(1), func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Second, p.Delay(50))

	uncapped := RetryPolicy{BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 80*time.Millisecond, uncapped.Delay(4))
}

func TestConfig_Policy(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.policy()
	assert.Equal(t, cfg.MaxRetries, p.Attempts)
	assert.Equal(t, cfg.RetryDelay, p.BaseDelay)
	assert.Equal(t, cfg.APITimeout, p.Timeout)
	assert.Equal(t, maxRetryDelay, p.MaxDelay)
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	err := Permanent(ai.ErrMissingCredential)
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
	assert.Equal(t, ai.ErrMissingCredential.Error(), err.Error())
}
