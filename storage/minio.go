package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"Bt1QPlayer/config"
	"Bt1QPlayer/logger"
)

var (
	minioClient *minio.Client
)

// InitMinio 初始化 MinIO 客户端，并确保存储桶存在
func InitMinio(ctx context.Context, cfg *config.Config) error {
	logger.Info("Connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.Bool("ssl", cfg.MinioUseSSL))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	return nil
}

// GetMinioClient 获取 MinIO 客户端实例
func GetMinioClient() *minio.Client {
	return minioClient
}

// CheckMinio writes, reads back and deletes a check object.
func CheckMinio(ctx context.Context, bucket string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	const key = "check/connection.txt"
	content := []byte("bt1qplayer connection check " + time.Now().Format(time.RFC3339))

	if _, err := minioClient.PutObject(ctx, bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain"}); err != nil {
		return fmt.Errorf("upload check object: %w", err)
	}
	obj, err := minioClient.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("read check object: %w", err)
	}
	got, err := io.ReadAll(obj)
	obj.Close()
	if err != nil {
		return fmt.Errorf("read check object: %w", err)
	}
	if !bytes.Equal(got, content) {
		return fmt.Errorf("check object content mismatch")
	}
	return minioClient.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}
