package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimlawless/whereami"
	"github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/internal/repository/redis/converter"
	"github.com/momenta-tech/go-backend/pkg/clients"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

// EngagementCacheRepo кэширует актуальный engagement-вектор момента с TTL.
// Источник истины — векторное хранилище, кэш ускоряет чтение ранжировщиком.
type EngagementCacheRepo struct {
	client *clients.RedisClient
	conv   converter.EngagementConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewEngagementCacheRepo(client *clients.RedisClient, conv converter.EngagementConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *EngagementCacheRepo {
	return &EngagementCacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// Set кэширует engagement-вектор момента, замещая предыдущий.
func (c *EngagementCacheRepo) Set(ctx context.Context, vec *domain.EngagementVector) error {
	data, err := json.Marshal(c.conv.ToRedisModel(vec))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.engagementKey(vec.MomentID), data, c.cfg.EngagementTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Get возвращает закэшированный engagement-вектор момента.
// Промах кэша — не ошибка: возвращается (nil, nil).
func (c *EngagementCacheRepo) Get(ctx context.Context, momentID string) (*domain.EngagementVector, error) {
	data, err := c.client.Client.Get(ctx, c.engagementKey(momentID)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.EngagementRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Invalid engagement cache entry for moment %s, dropping: %v", momentID, err)
		if delErr := c.client.Client.Del(context.Background(), c.engagementKey(momentID)).Err(); delErr != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), delErr))
		}
		return nil, nil
	}

	return c.conv.ToEntity(&model), nil
}

// engagementKey возвращает Redis-ключ engagement-вектора момента
func (c *EngagementCacheRepo) engagementKey(momentID string) string {
	return fmt.Sprintf("engagement:%s", momentID)
}
