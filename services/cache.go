package services

import (
	"context"
	"encoding/json"
	"time"

	"formhub/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyLatest  = "templates:latest"
	cacheKeyPopular = "templates:popular"
)

// TemplateCache keeps the hot public template listings in Redis. A nil
// client disables caching; every lookup then falls through to the database.
type TemplateCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewTemplateCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TemplateCache {
	return &TemplateCache{redis: client, ttl: ttl, logger: logger}
}

func (c *TemplateCache) GetList(ctx context.Context, key string) ([]models.Template, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("template cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var templates []models.Template
	if err := json.Unmarshal([]byte(data), &templates); err != nil {
		c.logger.Warn("template cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return templates, true
}

func (c *TemplateCache) SetList(ctx context.Context, key string, templates []models.Template) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(templates)
	if err != nil {
		c.logger.Warn("template cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("template cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops both listings. Called after any write that can change
// template ordering or content.
func (c *TemplateCache) Invalidate(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKeyLatest, cacheKeyPopular).Err(); err != nil {
		c.logger.Warn("template cache invalidation failed", zap.Error(err))
	}
}
