// Package redis provides a Redis-backed window store. This is the
// recommended store when more than one instance serves creation traffic.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tokengate/internal/ratelimit/ports"
)

const windowKeyPrefix = "tokengate:window:"

// Store keeps one sorted set per key, scored by event time in unix
// nanoseconds. Expired members are trimmed before every count.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.WindowStore = (*Store)(nil)

// New constructs a Redis window store. ttl bounds how long a key can outlive
// its newest event and should be at least the rolling window length.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) CountSince(ctx context.Context, key string, cutoff time.Time) (int, error) {
	k := windowKeyPrefix + key

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprintf("(%d", cutoff.UnixNano()))
	card := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count window events: %w", err)
	}

	return int(card.Val()), nil
}

func (s *Store) RecordEvent(ctx context.Context, key string, at time.Time) error {
	k := windowKeyPrefix + key

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, k, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, k, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record window event: %w", err)
	}
	return nil
}
