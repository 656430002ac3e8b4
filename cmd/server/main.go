package main

import (
	"context"
	"fmt"
	"log"

	"github.com/chastitela/meta-lv/internal/config"
	"github.com/chastitela/meta-lv/internal/db"
	"github.com/chastitela/meta-lv/internal/handler"
	"github.com/chastitela/meta-lv/internal/router"
	"github.com/chastitela/meta-lv/internal/storage"
	fsstorage "github.com/chastitela/meta-lv/internal/storage/fs"
	memorystorage "github.com/chastitela/meta-lv/internal/storage/memory"
	s3storage "github.com/chastitela/meta-lv/internal/storage/s3"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 初始化对象存储
	bucket, err := setupBucket(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	// 设置并运行 Gin 服务器
	api := handler.NewAPI(db.DB, bucket)
	r := router.SetupRouter(api, cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

func setupBucket(cfg config.AppConfig) (storage.Bucket, error) {
	switch cfg.StorageBackend {
	case "fs":
		return fsstorage.New(cfg.UploadDir, cfg.SiteBaseURL+cfg.UploadURLPath)
	case "memory":
		return memorystorage.New(cfg.SiteBaseURL + cfg.UploadURLPath), nil
	case "s3":
		return s3storage.New(context.Background(), s3storage.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
