package usecase

import (
	"errors"
	"fmt"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
)

// OpOffline marks a miss that was not fetched because upstream access is off.
const OpOffline = "offline"

var (
	ErrOffline     = errors.New("tile is not cached and upstream fetching is disabled")
	ErrZoomTooDeep = errors.New("zoom is too deep for a bulk precache")
)

// FetchError is an upstream failure for one tile. StatusCode is set when the
// upstream answered with a non-success status.
type FetchError struct {
	Style      string
	Tile       entity.Tile
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch tile %s/%s: %v", e.Style, e.Tile, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CacheWriteError means the tile was downloaded but could not be stored.
// The downloaded bytes are discarded.
type CacheWriteError struct {
	Style string
	Tile  entity.Tile
	Err   error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("could not save tile %s/%s: %v", e.Style, e.Tile, e.Err)
}

func (e *CacheWriteError) Unwrap() error {
	return e.Err
}
