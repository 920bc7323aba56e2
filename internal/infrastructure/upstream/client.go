package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jaennil/guide_helper/backend/tilecache/upstream"

// Failure stages of an upstream request.
const (
	OpRequest = "request"
	OpStatus  = "status"
	OpRead    = "read"
)

// Error is returned by Client.Get. StatusCode is set for OpStatus.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	referer    string
	logger     logger.Logger
}

func NewClient(cfg config.Upstream, l logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		referer:   cfg.Referer,
		logger:    l,
	}
}

// Get downloads the tile at target. Every request carries the fixed
// User-Agent; styles that ask for it also get the Referer header required
// by the provider's tile usage policy.
func (c *Client) Get(ctx context.Context, target Target) ([]byte, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "upstream.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tile.style", target.Style)),
	)
	defer span.End()

	data, err := c.get(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.size", len(data)))
	return data, nil
}

func (c *Client) get(ctx context.Context, target Target) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return nil, &Error{Op: OpRequest, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	if target.Referer && c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	metrics.UpstreamRequests.WithLabelValues(target.Style).Inc()
	c.logger.Debug("fetching from upstream", "style", target.Style, "url", target.URL)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(target.Style).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(target.Style, OpRequest).Inc()
		return nil, &Error{Op: OpRequest, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		metrics.UpstreamErrors.WithLabelValues(target.Style, OpStatus).Inc()
		return nil, &Error{
			Op:         OpStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("upstream returned status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(target.Style, OpRead).Inc()
		return nil, &Error{Op: OpRead, Err: err}
	}

	c.logger.Debug("fetched tile from upstream", "style", target.Style, "size", len(data), "duration", time.Since(start))

	return data, nil
}
