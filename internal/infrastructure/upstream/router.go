package upstream

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
)

var ErrUnknownStyle = errors.New("unknown style")

// Target is a resolved upstream request for one tile.
type Target struct {
	Style   string
	URL     string
	Referer bool
}

// Router maps (style, shard, tile) to upstream URLs. It is built once from
// validated configuration and is read-only afterwards, apart from the
// round-robin shard counter.
type Router struct {
	styles map[string]config.Style
	order  []string
	shards []string

	counter atomic.Uint64
}

func NewRouter(styles []config.Style, shards []string) (*Router, error) {
	if len(styles) == 0 {
		return nil, errors.New("router needs at least one style")
	}
	if len(shards) == 0 {
		return nil, errors.New("router needs at least one shard")
	}

	r := &Router{
		styles: make(map[string]config.Style, len(styles)),
		order:  make([]string, 0, len(styles)),
		shards: slices.Clone(shards),
	}

	for _, s := range styles {
		if _, dup := r.styles[s.Name]; dup {
			return nil, fmt.Errorf("duplicate style %q", s.Name)
		}
		r.styles[s.Name] = s
		r.order = append(r.order, s.Name)
	}

	return r, nil
}

// Styles returns the configured style names in declaration order.
func (r *Router) Styles() []string {
	return slices.Clone(r.order)
}

func (r *Router) HasStyle(name string) bool {
	_, ok := r.styles[name]
	return ok
}

func (r *Router) Style(name string) (config.Style, error) {
	s, ok := r.styles[name]
	if !ok {
		return config.Style{}, fmt.Errorf("%w %q", ErrUnknownStyle, name)
	}
	return s, nil
}

// NextShard hands out shards round-robin, independent of tile identity.
func (r *Router) NextShard() string {
	n := r.counter.Add(1) - 1
	return r.shards[n%uint64(len(r.shards))]
}

// ShardAt returns the shard for the i-th item of a deterministic sequence.
func (r *Router) ShardAt(i int) string {
	return r.shards[i%len(r.shards)]
}

// Shard keeps a shard the client asked for when it is configured and
// picks the next round-robin shard otherwise.
func (r *Router) Shard(requested string) string {
	if slices.Contains(r.shards, requested) {
		return requested
	}
	return r.NextShard()
}

func (r *Router) Resolve(style, shard string, t entity.Tile) (Target, error) {
	s, err := r.Style(style)
	if err != nil {
		return Target{}, err
	}

	replacer := strings.NewReplacer(
		config.PlaceholderShard, shard,
		config.PlaceholderZoom, strconv.FormatUint(uint64(t.Z), 10),
		config.PlaceholderX, strconv.FormatUint(uint64(t.X), 10),
		config.PlaceholderY, strconv.FormatUint(uint64(t.Y), 10),
		config.PlaceholderToken, url.QueryEscape(s.Token),
	)

	return Target{
		Style:   s.Name,
		URL:     replacer.Replace(s.URL),
		Referer: s.Referer,
	}, nil
}

func (r *Router) ResolveURL(style, shard string, t entity.Tile) (string, error) {
	target, err := r.Resolve(style, shard, t)
	if err != nil {
		return "", err
	}
	return target.URL, nil
}
