package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryLimiter_ExceedsAfterMaxRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewMemoryLimiter(3, time.Hour)
	defer l.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
		require.NoError(t, err)
		assert.False(t, exceeded, "request %d should pass", i+1)
		require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "10.0.0.1", "login"))
	}

	exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.True(t, exceeded)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewMemoryLimiter(1, time.Hour)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "10.0.0.1", "login"))

	exceeded, _ := l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
	assert.True(t, exceeded)

	exceeded, _ = l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "register")
	assert.False(t, exceeded, "other purpose has its own bucket")

	exceeded, _ = l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.2", "login")
	assert.False(t, exceeded, "other ip has its own bucket")
}

func TestMemoryLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewMemoryLimiter(5, time.Minute)
	defer l.Close()

	require.NoError(t, l.RecordIPRequestWithPurpose(context.Background(), "10.0.0.1", "login"))
	require.Equal(t, 1, l.Len())

	l.cleanup(time.Now())
	assert.Equal(t, 1, l.Len(), "recently used bucket is kept")

	l.cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, l.Len())
}

func TestMemoryLimiter_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewMemoryLimiter(5, time.Minute)
	l.Close()
	l.Close()
}
