package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

// Service is anything that can look up lyrics.
type Service interface {
	Lookup(ctx context.Context, artist, title string) ([]model.LyricLine, error)
}

// Cache stores raw lookup results. GetCache returns nil data on a miss.
type Cache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CachedService remembers lookups, including misses for a shorter time.
type CachedService struct {
	service     Service
	cache       Cache
	ttl         time.Duration
	negativeTTL time.Duration
}

func NewCachedService(service Service, cache Cache, ttl time.Duration) *CachedService {
	neg := ttl / 24
	if neg < time.Minute {
		neg = time.Minute
	}
	return &CachedService{service: service, cache: cache, ttl: ttl, negativeTTL: neg}
}

func cacheKey(artist, title string) string {
	return fmt.Sprintf("lyrics:%s:%s", strings.ToLower(strings.TrimSpace(artist)), strings.ToLower(strings.TrimSpace(title)))
}

func (c *CachedService) Lookup(ctx context.Context, artist, title string) ([]model.LyricLine, error) {
	key := cacheKey(artist, title)

	data, err := c.cache.GetCache(ctx, key)
	if err != nil {
		logger.Warn("lyrics cache read failed", logger.String("key", key), logger.ErrorField(err))
	}
	if data != nil {
		var lines []model.LyricLine
		if err := json.Unmarshal(data, &lines); err == nil {
			if len(lines) == 0 {
				return nil, ErrNotFound
			}
			return lines, nil
		}
	}

	lines, err := c.service.Lookup(ctx, artist, title)
	switch {
	case errors.Is(err, ErrNotFound):
		_ = c.cache.SetCache(ctx, key, []byte("[]"), c.negativeTTL)
		return nil, err
	case err != nil:
		return nil, err
	}

	if data, err := json.Marshal(lines); err == nil {
		if err := c.cache.SetCache(ctx, key, data, c.ttl); err != nil {
			logger.Warn("lyrics cache write failed", logger.String("key", key), logger.ErrorField(err))
		}
	}
	return lines, nil
}
