package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"Bt1QPlayer/config"
)

// RedisClient 是全局Redis客户端
var RedisClient *redis.Client

// ConnectRedis 初始化Redis连接
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// TestRedis runs a set/get/del round trip against the connected server.
func TestRedis(ctx context.Context) error {
	if RedisClient == nil {
		return ErrNotInitialized
	}

	const key, want = "bt1qplayer:check", "ok"
	if err := RedisClient.Set(ctx, key, want, time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set Redis key: %w", err)
	}
	val, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to get Redis key: %w", err)
	}
	if val != want {
		return fmt.Errorf("unexpected value from Redis: got %s", val)
	}
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete Redis key: %w", err)
	}
	return nil
}
