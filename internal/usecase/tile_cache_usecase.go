package usecase

import (
	"context"
	"errors"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/render"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// UpstreamClient downloads one resolved tile.
type UpstreamClient interface {
	Get(ctx context.Context, target upstream.Target) ([]byte, error)
}

type FetchOptions struct {
	// Offline turns every miss into ErrOffline.
	Offline bool
	// HighlightFresh applies render.MarkFresh to just-fetched tiles.
	HighlightFresh bool
	// SingleFlight collapses concurrent misses for the same key into one
	// upstream request.
	SingleFlight bool
}

type TileCacheUseCase struct {
	cache  cache.TileCache
	router *upstream.Router
	client UpstreamClient
	opts   FetchOptions
	logger logger.Logger

	group singleflight.Group
}

func NewTileCacheUseCase(c cache.TileCache, router *upstream.Router, client UpstreamClient, opts FetchOptions, l logger.Logger) *TileCacheUseCase {
	return &TileCacheUseCase{
		cache:  c,
		router: router,
		client: client,
		opts:   opts,
		logger: l,
	}
}

// Fetch returns the tile from the store, or downloads and stores it first.
// Stored bytes are never marked; marking only affects the returned copy.
func (uc *TileCacheUseCase) Fetch(ctx context.Context, style, shard string, tile entity.Tile) (entity.CachedTile, error) {
	if _, err := uc.router.Style(style); err != nil {
		return entity.CachedTile{}, err
	}

	key := cache.TileCacheKey{Style: style, Tile: tile}

	data, ok, err := uc.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheReadErrors.Inc()
		uc.logger.Warn("cache read failed, treating as miss", "key", key.Path(), "error", err)
	case ok:
		metrics.CacheHits.WithLabelValues(style).Inc()
		uc.logger.Debug("tile already cached", "key", key.Path())
		return entity.CachedTile{Data: data, Freshness: entity.FromCache}, nil
	}
	metrics.CacheMisses.WithLabelValues(style).Inc()

	if uc.opts.Offline {
		return entity.CachedTile{}, &FetchError{Style: style, Tile: tile, Op: OpOffline, Err: ErrOffline}
	}

	var body []byte
	if uc.opts.SingleFlight {
		// The download is shared by every caller waiting on the key, so one
		// caller going away must not fail the others.
		v, err, shared := uc.group.Do(key.Path(), func() (any, error) {
			return uc.download(context.WithoutCancel(ctx), key, shard)
		})
		if err != nil {
			return entity.CachedTile{}, err
		}
		if shared {
			uc.logger.Debug("joined in-flight download", "key", key.Path())
		}
		body = v.([]byte)
	} else {
		body, err = uc.download(ctx, key, shard)
		if err != nil {
			return entity.CachedTile{}, err
		}
	}

	result := entity.CachedTile{Data: body, Freshness: entity.JustFetched}
	if uc.opts.HighlightFresh {
		result.Data, result.Marked = render.MarkFresh(body)
	}
	return result, nil
}

func (uc *TileCacheUseCase) download(ctx context.Context, key cache.TileCacheKey, shard string) ([]byte, error) {
	target, err := uc.router.Resolve(key.Style, uc.router.Shard(shard), key.Tile)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("downloading tile", "key", key.Path())

	body, err := uc.client.Get(ctx, target)
	if err != nil {
		fe := &FetchError{Style: key.Style, Tile: key.Tile, Op: upstream.OpRequest, Err: err}
		var upErr *upstream.Error
		if errors.As(err, &upErr) {
			fe.Op = upErr.Op
			fe.StatusCode = upErr.StatusCode
		}
		uc.logger.Warn("tile download failed", "key", key.Path(), "op", fe.Op, "error", err)
		return nil, fe
	}

	if err := uc.cache.Set(ctx, key, body); err != nil {
		metrics.CacheStoreErrors.Inc()
		uc.logger.Error("failed to cache tile", "key", key.Path(), "error", err)
		return nil, &CacheWriteError{Style: key.Style, Tile: key.Tile, Err: err}
	}
	metrics.CacheStores.Inc()

	return body, nil
}
