//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	redisstore "tokengate/internal/ratelimit/store/redis"
	"tokengate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *redisstore.Store
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = redisstore.New(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestCountSince() {
	ctx := context.Background()
	now := time.Now()

	s.Require().NoError(s.store.RecordEvent(ctx, "creator-a", now.Add(-30*time.Minute)))
	s.Require().NoError(s.store.RecordEvent(ctx, "creator-a", now.Add(-10*time.Minute)))
	s.Require().NoError(s.store.RecordEvent(ctx, "creator-a", now))
	s.Require().NoError(s.store.RecordEvent(ctx, "creator-b", now))

	count, err := s.store.CountSince(ctx, "creator-a", now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = s.store.CountSince(ctx, "creator-b", now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(1, count, "keys are independent")

	count, err = s.store.CountSince(ctx, "creator-missing", now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RedisStoreSuite) TestExpiredEventsAreTrimmed() {
	ctx := context.Background()
	now := time.Now()

	s.Require().NoError(s.store.RecordEvent(ctx, "creator-a", now.Add(-2*time.Hour)))
	s.Require().NoError(s.store.RecordEvent(ctx, "creator-a", now.Add(-time.Minute)))

	count, err := s.store.CountSince(ctx, "creator-a", now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(1, count)

	// The trim is persistent: a wider cutoff no longer sees the old event.
	count, err = s.store.CountSince(ctx, "creator-a", now.Add(-3*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *RedisStoreSuite) TestCutoffIsInclusive() {
	ctx := context.Background()
	at := time.Now().Truncate(time.Millisecond)

	s.Require().NoError(s.store.RecordEvent(ctx, "creator-a", at))

	count, err := s.store.CountSince(ctx, "creator-a", at)
	s.Require().NoError(err)
	s.Equal(1, count, "an event exactly at the cutoff counts")
}
