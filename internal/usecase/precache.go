package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/metrics"
)

// TileFetcher is the fetch-through operation shared by the precache paths.
type TileFetcher interface {
	Fetch(ctx context.Context, style, shard string, tile entity.Tile) (entity.CachedTile, error)
}

// ShardPicker hands out upstream shards.
type ShardPicker interface {
	NextShard() string
}

type PrecacheKind string

const (
	PrecacheAncestor   PrecacheKind = "ancestor"
	PrecacheDescendant PrecacheKind = "descendant"
)

type PrecacheTask struct {
	Style string
	Tile  entity.Tile
	Kind  PrecacheKind
}

type PrecacheConfig struct {
	Workers   int
	QueueSize int
	// MaxPending caps the plans waiting for queue space at once. A plan that
	// finds no free slot is dropped whole.
	MaxPending int
	// Depth is how many zoom levels below the requested tile are warmed.
	Depth int
	// MaxZoom bounds descendant expansion.
	MaxZoom int
}

// Precacher warms the neighbourhood of served tiles in the background.
// Tasks go through a bounded queue drained by a fixed pool of workers; a
// full queue slows down the enqueuing goroutine, never the request. At most
// MaxPending plans wait on a full queue, later ones are dropped.
type Precacher struct {
	fetcher TileFetcher
	shards  ShardPicker
	styles  []string
	cfg     PrecacheConfig
	logger  logger.Logger

	queue     chan PrecacheTask
	enqueuers chan struct{}
	closing   chan struct{}
	once      sync.Once
	workers   sync.WaitGroup
	pending   sync.WaitGroup
	dropped   atomic.Int64
}

func NewPrecacher(fetcher TileFetcher, shards ShardPicker, styles []string, cfg PrecacheConfig, l logger.Logger) *Precacher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.MaxPending < 1 {
		cfg.MaxPending = 1
	}

	p := &Precacher{
		fetcher: fetcher,
		shards:  shards,
		styles:  styles,
		cfg:     cfg,
		logger:  l,
		queue:     make(chan PrecacheTask, cfg.QueueSize),
		enqueuers: make(chan struct{}, cfg.MaxPending),
		closing:   make(chan struct{}),
	}

	for range cfg.Workers {
		p.workers.Add(1)
		go p.work()
	}

	return p
}

// Plan lists the tiles warmed for tile: for every style, all ancestors from
// z-1 up to zoom 0, then descendants level by level down to Depth.
func (p *Precacher) Plan(tile entity.Tile) []PrecacheTask {
	ancestors := tile.Ancestors()
	descendants := p.descendants(tile)

	tasks := make([]PrecacheTask, 0, len(p.styles)*(len(ancestors)+len(descendants)))
	for _, style := range p.styles {
		for _, t := range ancestors {
			tasks = append(tasks, PrecacheTask{Style: style, Tile: t, Kind: PrecacheAncestor})
		}
		for _, t := range descendants {
			tasks = append(tasks, PrecacheTask{Style: style, Tile: t, Kind: PrecacheDescendant})
		}
	}
	return tasks
}

func (p *Precacher) descendants(tile entity.Tile) []entity.Tile {
	var out []entity.Tile
	level := []entity.Tile{tile}
	for d := 0; d < p.cfg.Depth; d++ {
		if int(tile.Z)+d+1 > p.cfg.MaxZoom {
			break
		}
		next := make([]entity.Tile, 0, len(level)*4)
		for _, t := range level {
			children := t.Children()
			next = append(next, children[:]...)
		}
		out = append(out, next...)
		level = next
	}
	return out
}

// Schedule returns immediately. The plan for tile is queued from a detached
// goroutine and fetched by the worker pool. When MaxPending plans are already
// waiting for queue space the plan is dropped.
func (p *Precacher) Schedule(tile entity.Tile) {
	select {
	case <-p.closing:
		return
	default:
	}

	tasks := p.Plan(tile)
	if len(tasks) == 0 {
		return
	}

	select {
	case p.enqueuers <- struct{}{}:
	default:
		p.dropped.Add(int64(len(tasks)))
		metrics.PrecacheDropped.Add(float64(len(tasks)))
		p.logger.Debug("precache backlog full, dropping plan", "tile", tile.String(), "tasks", len(tasks))
		return
	}
	p.pending.Add(len(tasks))

	p.logger.Debug("scheduling precache", "tile", tile.String(), "tasks", len(tasks))

	go func() {
		defer func() { <-p.enqueuers }()

		for i, task := range tasks {
			select {
			case p.queue <- task:
				metrics.PrecacheQueueDepth.Inc()
			case <-p.closing:
				for range tasks[i:] {
					p.pending.Done()
				}
				return
			}
		}
	}()
}

func (p *Precacher) work() {
	defer p.workers.Done()

	for {
		select {
		case <-p.closing:
			return
		case task := <-p.queue:
			metrics.PrecacheQueueDepth.Dec()
			p.run(task)
			p.pending.Done()
		}
	}
}

func (p *Precacher) run(task PrecacheTask) {
	metrics.PrecacheTasks.WithLabelValues(string(task.Kind)).Inc()

	_, err := p.fetcher.Fetch(context.Background(), task.Style, p.shards.NextShard(), task.Tile)
	if err != nil {
		metrics.PrecacheFailures.Inc()
		p.logger.Warn("precache failed", "style", task.Style, "tile", task.Tile.String(), "error", err)
	}
}

// Wait blocks until every scheduled task has been fetched or dropped by Close.
func (p *Precacher) Wait() {
	p.pending.Wait()
}

// Close stops the workers. Queued tasks that were not started are dropped.
func (p *Precacher) Close() {
	p.once.Do(func() {
		close(p.closing)
		p.workers.Wait()

		for {
			select {
			case <-p.queue:
				metrics.PrecacheQueueDepth.Dec()
				p.pending.Done()
			default:
				return
			}
		}
	})
}
