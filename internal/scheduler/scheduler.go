package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/robfig/cron/v3"
)

type BulkPrecacher interface {
	PrecacheUntilZoom(ctx context.Context, style string, zoom int, bbox *entity.BBox) (usecase.BulkResult, error)
}

type Config struct {
	// Schedule is a standard 5-field cron expression. Empty disables the
	// scheduler.
	Schedule string
	Styles   []string
	Zoom     int
}

// Scheduler runs bulk precache sweeps on a cron schedule. A sweep that is
// still running when the next one is due makes the next one skip.
type Scheduler struct {
	bulk   BulkPrecacher
	cfg    Config
	cron   *cron.Cron
	logger logger.Logger

	mu      sync.Mutex
	running bool
}

func New(bulk BulkPrecacher, cfg Config, l logger.Logger) *Scheduler {
	return &Scheduler{
		bulk:   bulk,
		cfg:    cfg,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: l,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Schedule == "" {
		s.logger.Info("precache schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.cfg.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule precache: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("precache scheduler started", "schedule", s.cfg.Schedule, "styles", s.cfg.Styles, "zoom", s.cfg.Zoom)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce sweeps every configured style in turn.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, style := range s.cfg.Styles {
		start := time.Now()
		result, err := s.bulk.PrecacheUntilZoom(ctx, style, s.cfg.Zoom, nil)
		if err != nil {
			s.logger.Error("scheduled precache failed", "style", style, "error", err)
			continue
		}
		s.logger.Info("scheduled precache completed",
			"style", style,
			"job_id", result.JobID,
			"result", result.String(),
			"duration", time.Since(start),
		)
	}
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("precache scheduler stopped")
}

func (s *Scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next sweep time, or nil when nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
