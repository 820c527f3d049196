package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"Bt1QPlayer/storage"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶检查",
	Long:  `连接 MinIO，确认分享存储桶存在并完成一次写入/读取/删除。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)
		return check("MinIO", checkMinio)
	},
}

func checkMinio(ctx context.Context) error {
	if err := storage.InitMinio(ctx, cfg); err != nil {
		return err
	}
	return storage.CheckMinio(ctx, cfg.MinioBucket)
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
