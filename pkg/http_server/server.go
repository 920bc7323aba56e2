package http_server

import (
	"context"
	"net/http"

	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
)

// NewServer builds the HTTP server. The logger carried by ctx is made
// available to every request through logger.FromContext.
func NewServer(ctx context.Context, cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withLogger(logger.FromContext(ctx), handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func withLogger(l logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), l)))
	})
}
