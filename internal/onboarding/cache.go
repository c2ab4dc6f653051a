package onboarding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shutterhub/api/internal/models"
)

const cacheKeyPrefix = "onboarding:status:"

// RedisStatusCache keeps recently read onboarding records in redis so the
// status poller doesn't hammer postgres. Cache problems degrade to a miss.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedisStatusCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStatusCache {
	return &RedisStatusCache{client: client, ttl: ttl, log: log}
}

func (c *RedisStatusCache) Get(ctx context.Context, partnerID string) (models.OnboardingRecord, bool) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+partnerID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Msg("onboarding cache read failed")
		}
		return models.OnboardingRecord{}, false
	}

	var record models.OnboardingRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		c.log.Warn().Err(err).Msg("onboarding cache entry corrupt")
		return models.OnboardingRecord{}, false
	}
	return record, true
}

func (c *RedisStatusCache) Set(ctx context.Context, partnerID string, record models.OnboardingRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+partnerID, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("onboarding cache write failed")
	}
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, partnerID string) {
	if err := c.client.Del(ctx, cacheKeyPrefix+partnerID).Err(); err != nil {
		c.log.Warn().Err(err).Msg("onboarding cache invalidate failed")
	}
}
