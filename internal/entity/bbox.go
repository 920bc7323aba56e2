package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// BBox is a lon/lat rectangle.
type BBox orb.Bound

// MoscowBBox covers Moscow inside the MKAD ring road with some margin.
var MoscowBBox = NewBBox(37.3193, 55.4899, 37.9457, 55.9576)

func NewBBox(minLon, minLat, maxLon, maxLat float64) BBox {
	return BBox{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("bbox must have 4 comma separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bbox value %q: %w", p, err)
		}
		v[i] = f
	}

	b := NewBBox(v[0], v[1], v[2], v[3])
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return BBox{}, fmt.Errorf("bbox min corner must not exceed max corner")
	}
	if b.Min[0] < -180 || b.Max[0] > 180 || b.Min[1] < -90 || b.Max[1] > 90 {
		return BBox{}, fmt.Errorf("bbox out of lon/lat range")
	}

	return b, nil
}

func (b BBox) Intersects(other BBox) bool {
	return orb.Bound(b).Intersects(orb.Bound(other))
}

// TileRange returns the inclusive x and y ranges of the tiles at zoom z
// that may overlap b. Callers still need Intersects for an exact answer.
func (b BBox) TileRange(z int) (minX, minY, maxX, maxY int) {
	zoom := maptile.Zoom(z)
	topLeft := maptile.At(orb.Point{b.Min[0], clampLat(b.Max[1])}, zoom)
	bottomRight := maptile.At(orb.Point{b.Max[0], clampLat(b.Min[1])}, zoom)

	last := (1 << z) - 1
	return clamp(int(topLeft.X), last), clamp(int(topLeft.Y), last),
		clamp(int(bottomRight.X), last), clamp(int(bottomRight.Y), last)
}

// maxMercatorLat is the latitude where web mercator tiles end.
const maxMercatorLat = 85.05112877980659

func clampLat(lat float64) float64 {
	return math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
}

func clamp(v, last int) int {
	if v < 0 {
		return 0
	}
	if v > last {
		return last
	}
	return v
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}
