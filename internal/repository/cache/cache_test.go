package cache

import (
	"context"
	"testing"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(style string, z, x, y uint32) TileCacheKey {
	return TileCacheKey{Style: style, Tile: entity.Tile{Z: z, X: x, Y: y}}
}

// testTileCache runs the behavior every TileCache backend must share.
func testTileCache(t *testing.T, c TileCache) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := c.Get(ctx, key("_", 3, 1, 2))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		k := key("_", 5, 10, 11)
		require.NoError(t, c.Set(ctx, k, TileCacheValue("png-bytes")))

		v, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, TileCacheValue("png-bytes"), v)
	})

	t.Run("styles are separate namespaces", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, key("matrix", 1, 0, 0), TileCacheValue("matrix")))
		require.NoError(t, c.Set(ctx, key("transportdark", 1, 0, 0), TileCacheValue("dark")))

		v, ok, err := c.Get(ctx, key("matrix", 1, 0, 0))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, TileCacheValue("matrix"), v)

		_, ok, err = c.Get(ctx, key("_", 1, 0, 0))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("overwrite replaces whole value", func(t *testing.T) {
		k := key("_", 2, 1, 1)
		require.NoError(t, c.Set(ctx, k, TileCacheValue("a much longer first value")))
		require.NoError(t, c.Set(ctx, k, TileCacheValue("short")))

		v, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, TileCacheValue("short"), v)
	})
}

func TestTileCacheKey_Path(t *testing.T) {
	assert.Equal(t, "transportdark/12/2475/1283.png", key("transportdark", 12, 2475, 1283).Path())
	assert.Equal(t, "_/0/0/0.png", key("_", 0, 0, 0).Path())
}

func TestMapCache(t *testing.T) {
	c := NewMapCache()
	testTileCache(t, c)
	assert.Equal(t, 4, c.Len())
}

func TestMapCache_StoresCopy(t *testing.T) {
	c := NewMapCache()
	data := TileCacheValue("abc")
	require.NoError(t, c.Set(context.Background(), key("_", 0, 0, 0), data))
	data[0] = 'z'

	v, _, _ := c.Get(context.Background(), key("_", 0, 0, 0))
	assert.Equal(t, TileCacheValue("abc"), v)
}
