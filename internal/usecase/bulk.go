package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/jaennil/guide_helper/backend/tilecache/usecase"

type BulkResult struct {
	JobID    string
	Errors   int
	Existing int
	New      int
}

func (r BulkResult) String() string {
	return fmt.Sprintf("Errors: %d, existing tiles: %d, new tiles: %d", r.Errors, r.Existing, r.New)
}

// Total is the number of tiles visited.
func (r BulkResult) Total() int {
	return r.Errors + r.Existing + r.New
}

// StyleRouter is the part of the upstream router bulk jobs need.
type StyleRouter interface {
	HasStyle(name string) bool
	ShardAt(i int) string
}

type BulkPrecacheUseCase struct {
	fetcher TileFetcher
	router  StyleRouter
	maxZoom int
	logger  logger.Logger
}

func NewBulkPrecacheUseCase(fetcher TileFetcher, router StyleRouter, maxZoom int, l logger.Logger) *BulkPrecacheUseCase {
	return &BulkPrecacheUseCase{
		fetcher: fetcher,
		router:  router,
		maxZoom: maxZoom,
		logger:  l,
	}
}

// PrecacheUntilZoom fetches every tile of style from zoom 0 to zoom,
// restricted to tiles overlapping bbox when it is not nil. Tiles are visited
// by ascending zoom, then x, then y, one at a time. A failing tile is counted
// and the sweep goes on. Cancelling ctx does not stop the sweep.
func (uc *BulkPrecacheUseCase) PrecacheUntilZoom(ctx context.Context, style string, zoom int, bbox *entity.BBox) (BulkResult, error) {
	if !uc.router.HasStyle(style) {
		return BulkResult{}, fmt.Errorf("%w %q", upstream.ErrUnknownStyle, style)
	}
	if zoom < 0 || zoom > uc.maxZoom {
		return BulkResult{}, fmt.Errorf("%w: %d, max %d", ErrZoomTooDeep, zoom, uc.maxZoom)
	}

	result := BulkResult{JobID: uuid.NewString()}
	ctx = context.WithoutCancel(ctx)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "bulk.precache_until_zoom")
	defer span.End()

	area := "world"
	if bbox != nil {
		area = bbox.String()
	}
	span.SetAttributes(
		attribute.String("job.id", result.JobID),
		attribute.String("tile.style", style),
		attribute.Int("tile.max_zoom", zoom),
		attribute.String("bbox", area),
	)

	metrics.BulkJobs.WithLabelValues(style).Inc()
	uc.logger.Info("bulk precache started", "job_id", result.JobID, "style", style, "zoom", zoom, "bbox", area)
	start := time.Now()

	seq := 0
	for z := 0; z <= zoom; z++ {
		minX, minY, maxX, maxY := 0, 0, (1<<z)-1, (1<<z)-1
		if bbox != nil {
			minX, minY, maxX, maxY = bbox.TileRange(z)
		}

		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				tile, err := entity.NewTile(z, x, y)
				if err != nil {
					return result, err
				}
				if bbox != nil && !tile.Bound().Intersects(*bbox) {
					continue
				}

				uc.fetchOne(ctx, style, uc.router.ShardAt(seq), tile, &result)
				seq++
			}
		}
	}

	span.SetAttributes(
		attribute.Int("bulk.errors", result.Errors),
		attribute.Int("bulk.existing", result.Existing),
		attribute.Int("bulk.new", result.New),
	)
	uc.logger.Info("bulk precache finished", "job_id", result.JobID, "style", style, "result", result.String(), "duration", time.Since(start))

	return result, nil
}

func (uc *BulkPrecacheUseCase) fetchOne(ctx context.Context, style, shard string, tile entity.Tile, result *BulkResult) {
	t, err := uc.fetcher.Fetch(ctx, style, shard, tile)
	switch {
	case err != nil:
		result.Errors++
		metrics.BulkTiles.WithLabelValues("error").Inc()
		uc.logger.Warn("bulk precache tile failed", "job_id", result.JobID, "tile", tile.String(), "error", err)
	case t.Freshness == entity.FromCache:
		result.Existing++
		metrics.BulkTiles.WithLabelValues("existing").Inc()
	default:
		result.New++
		metrics.BulkTiles.WithLabelValues("new").Inc()
	}
}
