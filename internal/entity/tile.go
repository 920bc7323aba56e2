package entity

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest zoom level a Tile can address.
const MaxZoom = 30

var ErrInvalidTile = errors.New("invalid tile")

// Tile is a z/x/y slippy map address with 0 <= x, y < 2^z.
type Tile struct {
	Z uint32
	X uint32
	Y uint32
}

// NewTile validates the coordinates and builds a Tile.
func NewTile(z, x, y int) (Tile, error) {
	if z < 0 || z > MaxZoom {
		return Tile{}, fmt.Errorf("%w: zoom %d out of range 0..%d", ErrInvalidTile, z, MaxZoom)
	}

	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return Tile{}, fmt.Errorf("%w: %d/%d/%d, x and y must be in 0..%d", ErrInvalidTile, z, x, y, n-1)
	}

	return Tile{Z: uint32(z), X: uint32(x), Y: uint32(y)}, nil
}

func fromMaptile(t maptile.Tile) Tile {
	return Tile{Z: uint32(t.Z), X: t.X, Y: t.Y}
}

func (t Tile) maptile() maptile.Tile {
	return maptile.New(t.X, t.Y, maptile.Zoom(t.Z))
}

// Parent returns the tile one zoom level up that covers t. At zoom 0 there
// is no parent and ok is false.
func (t Tile) Parent() (Tile, bool) {
	if t.Z == 0 {
		return Tile{}, false
	}
	return fromMaptile(t.maptile().Parent()), true
}

// Children returns the four tiles at zoom+1 covering t.
func (t Tile) Children() [4]Tile {
	var children [4]Tile
	for i, c := range t.maptile().Children() {
		children[i] = fromMaptile(c)
	}
	return children
}

// Ancestors returns every parent of t ordered from zoom-1 down to zoom 0.
func (t Tile) Ancestors() []Tile {
	ancestors := make([]Tile, 0, t.Z)
	for p, ok := t.Parent(); ok; p, ok = p.Parent() {
		ancestors = append(ancestors, p)
	}
	return ancestors
}

// Bound returns the geographic rectangle covered by t.
func (t Tile) Bound() BBox {
	return BBox(t.maptile().Bound())
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// TilesAtZoom is the number of tiles in a full zoom level, 4^z.
func TilesAtZoom(z int) int {
	return 1 << (2 * z)
}
