package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"Bt1QPlayer/cache"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写操作。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
		return check("Redis", checkRedis)
	},
}

func checkRedis(ctx context.Context) error {
	if err := cache.ConnectRedis(cfg); err != nil {
		return err
	}
	defer cache.CloseRedis()
	return cache.TestRedis(ctx)
}

func init() {
	rootCmd.AddCommand(redisCmd)
}

// withTimeout bounds a single connectivity check.
func withTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return fn(ctx)
}
