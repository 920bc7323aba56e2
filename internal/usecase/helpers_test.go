package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves "tile:<path>" for every request and fails paths that
// contain failOn.
type fakeUpstream struct {
	srv      *httptest.Server
	requests atomic.Int64
	failOn   string
	delay    time.Duration
	body     []byte
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		if f.failOn != "" && strings.Contains(r.URL.Path, f.failOn) {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if f.body != nil {
			w.Write(f.body)
			return
		}
		w.Write([]byte("tile:" + r.URL.Path))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) router(t *testing.T) *upstream.Router {
	t.Helper()
	r, err := upstream.NewRouter([]config.Style{
		{Name: "_", URL: f.srv.URL + "/osm/{s}/{z}/{x}/{y}.png", Referer: true},
		{Name: "alt", URL: f.srv.URL + "/alt/{s}/{z}/{x}/{y}.png"},
	}, []string{"a", "b", "c"})
	require.NoError(t, err)
	return r
}

func (f *fakeUpstream) client() *upstream.Client {
	return upstream.NewClient(config.Upstream{
		UserAgent: "test",
		Timeout:   5 * time.Second,
	}, logger.NewNop())
}

func newUseCase(t *testing.T, f *fakeUpstream, store cache.TileCache, opts FetchOptions) *TileCacheUseCase {
	t.Helper()
	return NewTileCacheUseCase(store, f.router(t), f.client(), opts, logger.NewNop())
}

func mustTile(t *testing.T, z, x, y int) entity.Tile {
	t.Helper()
	tile, err := entity.NewTile(z, x, y)
	require.NoError(t, err)
	return tile
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 256, 256))))
	return buf.Bytes()
}

type brokenCache struct {
	cache.TileCache
	failGet bool
	failSet bool
}

func (b *brokenCache) Get(ctx context.Context, k cache.TileCacheKey) (cache.TileCacheValue, bool, error) {
	if b.failGet {
		return nil, false, errors.New("disk on fire")
	}
	return b.TileCache.Get(ctx, k)
}

func (b *brokenCache) Set(ctx context.Context, k cache.TileCacheKey, v cache.TileCacheValue) error {
	if b.failSet {
		return errors.New("disk full")
	}
	return b.TileCache.Set(ctx, k, v)
}

type fetchCall struct {
	Style string
	Shard string
	Tile  entity.Tile
}

// recordingFetcher records calls and reports tiles it has seen before as
// cached.
type recordingFetcher struct {
	mu    sync.Mutex
	calls []fetchCall
	seen  map[string]bool
	fail  func(entity.Tile) bool
}

func (r *recordingFetcher) Fetch(_ context.Context, style, shard string, tile entity.Tile) (entity.CachedTile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, fetchCall{Style: style, Shard: shard, Tile: tile})
	if r.fail != nil && r.fail(tile) {
		return entity.CachedTile{}, errors.New("upstream down")
	}

	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	key := style + "/" + tile.String()
	if r.seen[key] {
		return entity.CachedTile{Freshness: entity.FromCache}, nil
	}
	r.seen[key] = true
	return entity.CachedTile{Freshness: entity.JustFetched}, nil
}

func (r *recordingFetcher) Calls() []fetchCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fetchCall(nil), r.calls...)
}

type fixedShard string

func (s fixedShard) NextShard() string { return string(s) }
