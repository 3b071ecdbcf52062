package service

import (
	"context"
	"encoding/json"
	"time"

	"teranga/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const publicMenuCacheKey = "menu:public"

// MenuCache stores the rendered public menu. Errors are swallowed: a cache
// failure degrades to a database read, never to a failed request.
type MenuCache interface {
	Get(ctx context.Context) (*dto.PublicMenuResponse, bool)
	Set(ctx context.Context, menu *dto.PublicMenuResponse)
	Invalidate(ctx context.Context)
}

type redisMenuCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisMenuCache(rdb *redis.Client, ttl time.Duration) MenuCache {
	return &redisMenuCache{rdb: rdb, ttl: ttl}
}

func (c *redisMenuCache) Get(ctx context.Context) (*dto.PublicMenuResponse, bool) {
	cached, err := c.rdb.Get(ctx, publicMenuCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("menu cache: get failed")
		}
		return nil, false
	}
	var menu dto.PublicMenuResponse
	if err := json.Unmarshal(cached, &menu); err != nil {
		return nil, false
	}
	return &menu, true
}

func (c *redisMenuCache) Set(ctx context.Context, menu *dto.PublicMenuResponse) {
	b, err := json.Marshal(menu)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, publicMenuCacheKey, b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("menu cache: set failed")
	}
}

func (c *redisMenuCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, publicMenuCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("menu cache: invalidate failed")
	}
}

// noMenuCache is used when no cache is configured.
type noMenuCache struct{}

func (noMenuCache) Get(context.Context) (*dto.PublicMenuResponse, bool) { return nil, false }
func (noMenuCache) Set(context.Context, *dto.PublicMenuResponse)         {}
func (noMenuCache) Invalidate(context.Context)                           {}
