package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const banner = "Slippy map tile server!"

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, "OK")
}

// Root answers with the banner and the attribution of every style.
func (h *Handler) Root(c *gin.Context) {
	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("\n")
	for _, s := range h.styles {
		if s.Attribution == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(s.Name)
		b.WriteString(": ")
		b.WriteString(s.Attribution)
	}
	c.String(http.StatusOK, b.String())
}

func (h *Handler) Styles(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "configured styles", h.styles)
}
