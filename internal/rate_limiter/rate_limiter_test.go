package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stroytech/docvault/internal/config"
	"go.uber.org/zap"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		Enabled:              true,
		TimeFrame:            time.Minute,
		RequestsPerTimeFrame: 3,
	}, zap.NewNop().Sugar())

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("client-a")
		require.True(t, ok)
	}

	ok, retryAfter := rl.Allow("client-a")
	require.False(t, ok)
	require.Greater(t, retryAfter, time.Duration(0))

	// Other clients are tracked independently.
	ok, _ = rl.Allow("client-b")
	require.True(t, ok)
}

func TestAllowResetsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		Enabled:              true,
		TimeFrame:            20 * time.Millisecond,
		RequestsPerTimeFrame: 1,
	}, zap.NewNop().Sugar())

	ok, _ := rl.Allow("client-a")
	require.True(t, ok)
	ok, _ = rl.Allow("client-a")
	require.False(t, ok)

	time.Sleep(25 * time.Millisecond)
	ok, _ = rl.Allow("client-a")
	require.True(t, ok)
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{Enabled: false}, zap.NewNop().Sugar())

	for i := 0; i < 100; i++ {
		ok, _ := rl.Allow("client-a")
		require.True(t, ok)
	}
}
