package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jimlawless/whereami"
	"github.com/mercalog/go-backend/internal/cfg"
	"github.com/mercalog/go-backend/pkg/clients"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует списки значений каталога (бренды, категории).
// Любой сбой Redis логируется и деградирует в промах, не в ошибку вызывающего.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetList возвращает закэшированный список или nil при промахе.
func (c *CacheRepo) GetList(ctx context.Context, key string) ([]string, error) {
	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}

		c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Client.Del(context.Background(), key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil // cache miss
	}

	return values, nil
}

// SetList кэширует список с TTL каталога. Ошибки записи логируются и игнорируются.
func (c *CacheRepo) SetList(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		c.logger.Warnf("Failed to marshal list for caching (key: %s): %v", key, e.Wrap(whereami.WhereAmI(), err))
		return nil
	}

	if err := c.client.Client.Set(ctx, key, data, c.cfg.CatalogTTL).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// Invalidate удаляет перечисленные ключи из кэша.
func (c *CacheRepo) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}
