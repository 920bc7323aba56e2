package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/render"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	cacheControlImmutable = "max-age=604800, public, immutable"
	cacheControlNoStore   = "no-cache, no-store"

	sourceError = "error"
)

// Tile serves GET /:style/:shard/:zoom/:x/:y where y looks like "123.png".
// Only an unparsable y is answered with 400; every other failure becomes an
// error tile with status 200.
func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c)

	y, err := parseY(c.Param("y"))
	if err != nil {
		l.Debug("bad tile path", "path", c.Request.URL.Path, "error", err)
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	style := c.Param("style")

	tile, err := parseTile(c.Param("zoom"), c.Param("x"), y)
	if err != nil {
		h.respondWithErrorTile(c, err.Error())
		return
	}

	telemetry.SpanFromContext(c).SetAttributes(
		attribute.String("tile.style", style),
		attribute.String("tile.id", tile.String()),
	)

	t, err := h.tiles.Fetch(c.Request.Context(), style, c.Param("shard"), tile)
	if err != nil {
		l.Warn("serving error tile", "style", style, "tile", tile.String(), "error", err)
		h.respondWithErrorTile(c, err.Error())
		return
	}

	cacheControl := cacheControlImmutable
	if !t.Cacheable() {
		cacheControl = cacheControlNoStore
	}

	source := t.Freshness.String()
	metrics.TilesRequests.WithLabelValues(source).Inc()

	c.Header("Cache-Control", cacheControl)
	c.Header("X-Tile-Source", source)
	c.Data(http.StatusOK, "image/png", t.Data)

	if h.precacher != nil {
		h.precacher.Schedule(tile)
	}
}

func (h *Handler) respondWithErrorTile(c *gin.Context, message string) {
	telemetry.SpanFromContext(c).SetAttributes(attribute.String("tile.source", sourceError))

	metrics.TilesRequests.WithLabelValues(sourceError).Inc()
	metrics.ErrorTiles.Inc()

	c.Header("Cache-Control", cacheControlNoStore)
	c.Header("X-Tile-Source", sourceError)
	c.Data(http.StatusOK, "image/png", render.ErrorTile(message))
}

// parseY takes the part of the segment before the first dot.
func parseY(segment string) (int, error) {
	digits, _, _ := strings.Cut(segment, ".")
	y, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, &PathParseError{Segment: segment, Err: err}
	}
	return int(y), nil
}

func parseTile(zoom, x string, y int) (entity.Tile, error) {
	z, err := strconv.Atoi(zoom)
	if err != nil {
		return entity.Tile{}, fmt.Errorf("zoom %q is not a number", zoom)
	}
	tx, err := strconv.Atoi(x)
	if err != nil {
		return entity.Tile{}, fmt.Errorf("x %q is not a number", x)
	}
	return entity.NewTile(z, tx, y)
}
