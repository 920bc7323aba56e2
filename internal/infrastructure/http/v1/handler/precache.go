package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
)

// PrecacheUntilZoom sweeps the whole world from zoom 0 to :zoom.
func (h *Handler) PrecacheUntilZoom(c *gin.Context) {
	h.bulkPrecache(c, nil)
}

func (h *Handler) PrecacheMoscowUntilZoom(c *gin.Context) {
	bbox := entity.MoscowBBox
	h.bulkPrecache(c, &bbox)
}

// PrecacheBBoxUntilZoom takes the area from ?bbox=minLon,minLat,maxLon,maxLat.
func (h *Handler) PrecacheBBoxUntilZoom(c *gin.Context) {
	raw := c.Query("bbox")
	if raw == "" {
		c.String(http.StatusBadRequest, ErrMissingBBox.Error())
		return
	}

	bbox, err := entity.ParseBBox(raw)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	h.bulkPrecache(c, &bbox)
}

func (h *Handler) bulkPrecache(c *gin.Context, bbox *entity.BBox) {
	l := requestLogger(c)

	zoom, err := strconv.Atoi(c.Param("zoom"))
	if err != nil {
		c.String(http.StatusBadRequest, "zoom must be a number")
		return
	}

	result, err := h.bulk.PrecacheUntilZoom(c.Request.Context(), c.Param("style"), zoom, bbox)
	switch {
	case errors.Is(err, upstream.ErrUnknownStyle):
		c.String(http.StatusNotFound, err.Error())
		return
	case errors.Is(err, usecase.ErrZoomTooDeep):
		c.String(http.StatusBadRequest, err.Error())
		return
	case err != nil:
		l.Error("bulk precache failed", "style", c.Param("style"), "zoom", zoom, "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	c.Header("X-Job-ID", result.JobID)
	c.String(http.StatusOK, result.String())
}
