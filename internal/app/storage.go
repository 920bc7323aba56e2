package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
)

const redisStatsInterval = 15 * time.Second

// newTileCache opens the configured store. The returned close function is
// never nil.
func newTileCache(ctx context.Context, cfg *config.Config, l logger.Logger) (cache.TileCache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case "filesystem":
		c, err := cache.NewFilesystemCache(cfg.Storage.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open tile directory: %w", err)
		}
		l.Info("using filesystem tile cache", "dir", cfg.Storage.Dir)
		return c, noop, nil

	case "sqlite":
		c, err := cache.NewSQLiteCache(cfg.SQLite.Path, l)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open sqlite tile cache: %w", err)
		}
		l.Info("using sqlite tile cache", "path", cfg.SQLite.Path)
		return c, c.Close, nil

	case "redis":
		c, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, noop, err
		}
		go reportRedisStats(ctx, c)
		l.Info("using redis tile cache", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return c, c.Close, nil

	case "s3":
		c, err := cache.NewS3Cache(ctx, cache.S3Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			UsePathStyle:    cfg.S3.UsePathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, noop, err
		}
		l.Info("using s3 tile cache", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
		return c, noop, nil

	case "memory":
		l.Warn("using in-memory tile cache, tiles are lost on restart")
		return cache.NewMapCache(), noop, nil
	}

	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func reportRedisStats(ctx context.Context, c *cache.RedisCache) {
	ticker := time.NewTicker(redisStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ReportPoolStats()
		}
	}
}
