package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const lyricsKeyPrefix = "bt1qplayer:"

// LyricsCache stores raw lyrics lookups in redis.
type LyricsCache struct {
	client *redis.Client
}

// NewLyricsCache 创建歌词缓存
func NewLyricsCache() *LyricsCache {
	return &LyricsCache{client: RedisClient}
}

// GetCache returns nil data on a miss.
func (c *LyricsCache) GetCache(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}
	data, err := c.client.Get(ctx, lyricsKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (c *LyricsCache) SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if c.client == nil {
		return ErrNotInitialized
	}
	return c.client.Set(ctx, lyricsKeyPrefix+key, data, ttl).Err()
}
