package usecase

import (
	"context"
	"testing"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkResult_String(t *testing.T) {
	r := BulkResult{Errors: 1, Existing: 2, New: 3}
	assert.Equal(t, "Errors: 1, existing tiles: 2, new tiles: 3", r.String())
	assert.Equal(t, 6, r.Total())
}

func TestPrecacheUntilZoom_FullSweep(t *testing.T) {
	f := newFakeUpstream(t)
	router := f.router(t)
	uc := NewTileCacheUseCase(cache.NewMapCache(), router, f.client(), FetchOptions{}, logger.NewNop())
	bulk := NewBulkPrecacheUseCase(uc, router, 14, logger.NewNop())

	first, err := bulk.PrecacheUntilZoom(context.Background(), "_", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Errors)
	assert.Equal(t, 0, first.Existing)
	assert.Equal(t, 1+4+16, first.New)
	assert.NotEmpty(t, first.JobID)

	second, err := bulk.PrecacheUntilZoom(context.Background(), "_", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 21, second.Existing)
	assert.Equal(t, 0, second.New)
	assert.NotEqual(t, first.JobID, second.JobID)

	assert.EqualValues(t, 21, f.requests.Load())
}

func TestPrecacheUntilZoom_OrderAndShards(t *testing.T) {
	f := &recordingFetcher{}
	bulk := NewBulkPrecacheUseCase(f, newFakeUpstream(t).router(t), 14, logger.NewNop())

	_, err := bulk.PrecacheUntilZoom(context.Background(), "_", 1, nil)
	require.NoError(t, err)

	calls := f.Calls()
	require.Len(t, calls, 5)
	want := []string{"0/0/0", "1/0/0", "1/0/1", "1/1/0", "1/1/1"}
	for i, c := range calls {
		assert.Equal(t, want[i], c.Tile.String())
		assert.Equal(t, []string{"a", "b", "c"}[i%3], c.Shard)
	}
}

func TestPrecacheUntilZoom_ContinuesOnError(t *testing.T) {
	f := &recordingFetcher{fail: func(tile entity.Tile) bool { return tile.Z == 1 }}
	bulk := NewBulkPrecacheUseCase(f, newFakeUpstream(t).router(t), 14, logger.NewNop())

	r, err := bulk.PrecacheUntilZoom(context.Background(), "_", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Errors)
	assert.Equal(t, 17, r.New)
	assert.Equal(t, 21, r.Total())
}

func TestPrecacheUntilZoom_BBox(t *testing.T) {
	f := &recordingFetcher{}
	bulk := NewBulkPrecacheUseCase(f, newFakeUpstream(t).router(t), 14, logger.NewNop())
	bbox := entity.MoscowBBox

	r, err := bulk.PrecacheUntilZoom(context.Background(), "_", 8, &bbox)
	require.NoError(t, err)

	calls := f.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, len(calls), r.Total())
	for _, c := range calls {
		assert.True(t, c.Tile.Bound().Intersects(bbox), "tile %s outside bbox", c.Tile)
	}

	full := 0
	for z := 0; z <= 8; z++ {
		full += entity.TilesAtZoom(z)
	}
	assert.Less(t, r.Total(), full)

	// one tile per level while the box fits inside a single tile
	perZoom := make(map[uint32]int)
	for _, c := range calls {
		perZoom[c.Tile.Z]++
	}
	assert.Equal(t, 1, perZoom[0])
	assert.Equal(t, 1, perZoom[1])
}

func TestPrecacheUntilZoom_Rejects(t *testing.T) {
	bulk := NewBulkPrecacheUseCase(&recordingFetcher{}, newFakeUpstream(t).router(t), 14, logger.NewNop())

	_, err := bulk.PrecacheUntilZoom(context.Background(), "nope", 1, nil)
	assert.ErrorIs(t, err, upstream.ErrUnknownStyle)

	_, err = bulk.PrecacheUntilZoom(context.Background(), "_", 15, nil)
	assert.ErrorIs(t, err, ErrZoomTooDeep)

	_, err = bulk.PrecacheUntilZoom(context.Background(), "_", -1, nil)
	assert.ErrorIs(t, err, ErrZoomTooDeep)
}

func TestPrecacheUntilZoom_IgnoresCancel(t *testing.T) {
	f := newFakeUpstream(t)
	router := f.router(t)
	uc := NewTileCacheUseCase(cache.NewMapCache(), router, f.client(), FetchOptions{}, logger.NewNop())
	bulk := NewBulkPrecacheUseCase(uc, router, 14, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := bulk.PrecacheUntilZoom(ctx, "_", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, r.New)
}
