package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimitStore is a fixed-window request counter shared by every instance.
// It satisfies echo's middleware.RateLimiterStore.
// Key format: ratelimit:<identifier>
type RateLimitStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
	log    zerolog.Logger
}

func NewRateLimitStore(client *redis.Client, limit int, window time.Duration, log zerolog.Logger) *RateLimitStore {
	return &RateLimitStore{client: client, limit: int64(limit), window: window, log: log}
}

// Allow counts the request against identifier's window. Redis failures let
// the request through.
func (s *RateLimitStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	count, err := s.hit(ctx, "ratelimit:"+identifier)
	if err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("rate limit store unavailable, allowing request")
		return true, nil
	}
	return count <= s.limit, nil
}

func (s *RateLimitStore) hit(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, s.window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rate limit hit: %w", err)
	}
	return incr.Val(), nil
}
