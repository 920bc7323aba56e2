package http_server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestNewServer(t *testing.T) {
	l := logger.NewZapLogger("error")
	ctx := logger.WithLogger(context.Background(), l)

	var got logger.Logger
	srv := NewServer(ctx, config.Server{
		Port:        "3000",
		ReadTimeout: 15 * time.Second,
		IdleTimeout: time.Minute,
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.FromContext(r.Context())
	}))

	assert.Equal(t, ":3000", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, time.Minute, srv.IdleTimeout)

	srv.Handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, l, got)
}
