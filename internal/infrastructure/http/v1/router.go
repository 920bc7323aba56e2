package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	TelemetryEnabled bool
	ServiceName      string
}

func NewRouter(handler *handler.Handler, l logger.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if cfg.TelemetryEnabled {
		r.Use(telemetry.GinMiddleware(cfg.ServiceName))
	}

	r.Use(ginZapLogger(l))

	r.GET("/", handler.Root)
	r.GET("/healthz", handler.Healthz)
	r.GET("/styles", handler.Styles)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/precache-until-zoom/:style/:zoom", handler.PrecacheUntilZoom)
	r.GET("/precache-moscow-until-zoom/:style/:zoom", handler.PrecacheMoscowUntilZoom)
	r.GET("/precache-bbox-until-zoom/:style/:zoom", handler.PrecacheBBoxUntilZoom)

	r.GET("/:style/:shard/:zoom/:x/:y", handler.Tile)

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		latency := time.Since(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
			"source", c.Writer.Header().Get("X-Tile-Source"),
		)
	}
}
