package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, cfg Config) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRedisLimiter(rdb, cfg), mr
}

// exerciseBudget checks the shared behaviour: max failures are allowed, the
// next check is limited, and reset restores the budget.
func exerciseBudget(t *testing.T, l Limiter) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(ctx, "alice"))
		require.NoError(t, l.Fail(ctx, "alice"))
	}
	assert.ErrorIs(t, l.Check(ctx, "alice"), ErrRateLimited)
	assert.ErrorIs(t, l.Fail(ctx, "alice"), ErrRateLimited)

	assert.NoError(t, l.Check(ctx, "bob"), "keys are independent")

	require.NoError(t, l.Reset(ctx, "alice"))
	assert.NoError(t, l.Check(ctx, "alice"))
}

func TestRedisLimiter_Budget(t *testing.T) {
	l, _ := newRedisLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Hour})
	exerciseBudget(t, l)
}

func TestRedisLimiter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLimiter(t, Config{MaxAttempts: 1, Cooldown: time.Minute})

	require.NoError(t, l.Fail(ctx, "alice"))
	assert.ErrorIs(t, l.Check(ctx, "alice"), ErrRateLimited)

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, l.Check(ctx, "alice"))
}

func TestRedisLimiter_BackendDown(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLimiter(t, Config{MaxAttempts: 1, Cooldown: time.Minute})
	mr.Close()

	err := l.Check(ctx, "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestLocalLimiter_Budget(t *testing.T) {
	exerciseBudget(t, NewLocalLimiter(Config{MaxAttempts: 3, Cooldown: time.Hour}))
}

func TestLocalLimiter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(Config{MaxAttempts: 2, Cooldown: time.Minute})
	l.now = func() time.Time { return now }

	require.NoError(t, l.Fail(ctx, "alice"))
	require.NoError(t, l.Fail(ctx, "alice"))
	assert.ErrorIs(t, l.Check(ctx, "alice"), ErrRateLimited)

	now = now.Add(59 * time.Second)
	assert.ErrorIs(t, l.Check(ctx, "alice"), ErrRateLimited, "no attempt comes back before the window closes")

	now = now.Add(2 * time.Second)
	assert.NoError(t, l.Check(ctx, "alice"))
	require.NoError(t, l.Fail(ctx, "alice"), "a new window opens")
}

func TestLocalLimiter_CheckDoesNotAllocate(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLimiter(Config{MaxAttempts: 3, Cooldown: time.Hour})

	for i := 0; i < 10000; i++ {
		require.NoError(t, l.Check(ctx, fmt.Sprintf("ghost%d", i)))
	}
	assert.Equal(t, 0, l.size())
}

func TestLocalLimiter_SweepDropsExpiredWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(Config{MaxAttempts: 3, Cooldown: time.Minute})
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		require.NoError(t, l.Fail(ctx, fmt.Sprintf("user%d", i)))
	}
	require.Equal(t, 100, l.size())

	now = now.Add(time.Minute)
	require.NoError(t, l.Fail(ctx, "fresh"))
	l.sweep(now)
	assert.Equal(t, 1, l.size())
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var l Limiter = Noop{}
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Fail(ctx, "alice"))
	}
	assert.NoError(t, l.Check(ctx, "alice"))
}
