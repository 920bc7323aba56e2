package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type TileFetcher interface {
	Fetch(ctx context.Context, style, shard string, tile entity.Tile) (entity.CachedTile, error)
}

type PrecacheScheduler interface {
	Schedule(tile entity.Tile)
}

type BulkPrecacher interface {
	PrecacheUntilZoom(ctx context.Context, style string, zoom int, bbox *entity.BBox) (usecase.BulkResult, error)
}

type StyleInfo struct {
	Name        string `json:"name"`
	Attribution string `json:"attribution,omitempty"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	tiles     TileFetcher
	precacher PrecacheScheduler
	bulk      BulkPrecacher
	styles    []StyleInfo
}

// NewHandler wires the endpoints. precacher may be nil to disable
// background warming.
func NewHandler(tiles TileFetcher, precacher PrecacheScheduler, bulk BulkPrecacher, styles []StyleInfo) *Handler {
	return &Handler{
		tiles:     tiles,
		precacher: precacher,
		bulk:      bulk,
		styles:    styles,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
