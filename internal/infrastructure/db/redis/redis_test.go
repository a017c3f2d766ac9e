package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, Ping(context.Background(), client))

	mr.Close()
	assert.Error(t, Ping(context.Background(), client))
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestLoginAttempts(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	attempts := NewLoginAttempts(client, 3, time.Minute)

	for i := 0; i < 2; i++ {
		require.NoError(t, attempts.RecordFailure(ctx, "Alice"))
	}
	blocked, err := attempts.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, blocked, "below the threshold")

	require.NoError(t, attempts.RecordFailure(ctx, "alice"))
	blocked, err = attempts.Blocked(ctx, "ALICE")
	require.NoError(t, err)
	assert.True(t, blocked, "identifiers are case-insensitive")

	assert.Equal(t, time.Minute, mr.TTL("login:fail:alice"))

	mr.FastForward(time.Minute + time.Second)
	blocked, err = attempts.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, blocked, "lockout expires")
}

func TestLoginAttempts_CounterAlwaysExpires(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	attempts := NewLoginAttempts(client, 5, time.Minute)

	// a counter left behind without a TTL must not lock the account forever
	require.NoError(t, mr.Set("login:fail:carol", "4"))
	require.Zero(t, mr.TTL("login:fail:carol"))

	require.NoError(t, attempts.RecordFailure(ctx, "carol"))
	assert.Equal(t, time.Minute, mr.TTL("login:fail:carol"))

	mr.FastForward(30 * time.Second)
	require.NoError(t, attempts.RecordFailure(ctx, "carol"))
	assert.Equal(t, 30*time.Second, mr.TTL("login:fail:carol"), "later failures keep the original window")

	mr.FastForward(31 * time.Second)
	blocked, err := attempts.Blocked(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginAttempts_Reset(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	attempts := NewLoginAttempts(client, 1, time.Minute)

	require.NoError(t, attempts.RecordFailure(ctx, "bob"))
	blocked, _ := attempts.Blocked(ctx, "bob")
	require.True(t, blocked)

	require.NoError(t, attempts.Reset(ctx, "bob"))
	assert.False(t, mr.Exists("login:fail:bob"))
}

func TestLoginAttempts_Defaults(t *testing.T) {
	_, client := newTestClient(t)
	attempts := NewLoginAttempts(client, 0, 0)

	assert.EqualValues(t, defaultMaxFailures, attempts.maxFailures)
	assert.Equal(t, defaultLockout, attempts.lockout)
}

func TestLoginAttempts_RedisDown(t *testing.T) {
	mr, client := newTestClient(t)
	attempts := NewLoginAttempts(client, 3, time.Minute)
	mr.Close()

	_, err := attempts.Blocked(context.Background(), "alice")
	assert.Error(t, err)
	assert.Error(t, attempts.RecordFailure(context.Background(), "alice"))
}

func TestRateLimitStore(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRateLimitStore(client, 2, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		ok, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok, "third request in the window is denied")

	ok, _ = store.Allow("10.0.0.2")
	assert.True(t, ok, "identifiers are counted separately")

	mr.FastForward(time.Minute)
	ok, _ = store.Allow("10.0.0.1")
	assert.True(t, ok, "a new window starts after expiry")
}

func TestRateLimitStore_CounterAlwaysExpires(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRateLimitStore(client, 2, time.Minute, zerolog.Nop())

	require.NoError(t, mr.Set("ratelimit:10.0.0.3", "7"))

	ok, err := store.Allow("10.0.0.3")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:10.0.0.3"))

	for i := 0; i < 3; i++ {
		_, _ = store.Allow("10.0.0.3")
		assert.Positive(t, mr.TTL("ratelimit:10.0.0.3"))
	}

	mr.FastForward(time.Minute)
	ok, _ = store.Allow("10.0.0.3")
	assert.True(t, ok, "throttling ends with the window")
}

func TestRateLimitStore_FailsOpen(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRateLimitStore(client, 1, time.Minute, zerolog.Nop())
	mr.Close()

	ok, err := store.Allow("10.0.0.1")
	assert.NoError(t, err)
	assert.True(t, ok)
}
