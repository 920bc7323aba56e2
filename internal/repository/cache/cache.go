package cache

import (
	"context"
	"fmt"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
)

type TileCacheKey struct {
	Style string
	Tile  entity.Tile
}

// Path is the storage path of the key, {style}/{z}/{x}/{y}.png.
func (k TileCacheKey) Path() string {
	return fmt.Sprintf("%s/%d/%d/%d.png", k.Style, k.Tile.Z, k.Tile.X, k.Tile.Y)
}

type TileCacheValue []byte

// TileCache stores encoded tile images. Get returns (nil, false, nil) when
// the key has never been stored; any error is a genuine read failure.
type TileCache interface {
	Get(context.Context, TileCacheKey) (TileCacheValue, bool, error)
	Set(context.Context, TileCacheKey, TileCacheValue) error
}
