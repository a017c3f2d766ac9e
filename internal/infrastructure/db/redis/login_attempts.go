package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures = 5
	defaultLockout     = 15 * time.Minute
)

// LoginAttempts counts failed logins per identifier. Once MaxFailures is
// reached the identifier stays blocked until the counter expires.
// Key format: login:fail:<lowercased identifier>
type LoginAttempts struct {
	client      *redis.Client
	maxFailures int64
	lockout     time.Duration
}

func NewLoginAttempts(client *redis.Client, maxFailures int, lockout time.Duration) *LoginAttempts {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &LoginAttempts{client: client, maxFailures: int64(maxFailures), lockout: lockout}
}

func (l *LoginAttempts) Blocked(ctx context.Context, identifier string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(identifier)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login attempts check: %w", err)
	}
	return n >= l.maxFailures, nil
}

// RecordFailure increments the counter; the lockout window starts at the
// first failure. INCR and EXPIRE NX travel in one MULTI so the key never
// outlives its window.
func (l *LoginAttempts) RecordFailure(ctx context.Context, identifier string) error {
	key := l.key(identifier)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.lockout)
		return nil
	})
	if err != nil {
		return fmt.Errorf("login attempts record: %w", err)
	}
	return nil
}

func (l *LoginAttempts) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, l.key(identifier)).Err()
}

func (l *LoginAttempts) key(identifier string) string {
	return "login:fail:" + strings.ToLower(identifier)
}
