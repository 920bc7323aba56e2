package usecase

import (
	"context"
	"testing"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/entity"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrecacher(fetcher TileFetcher, styles []string) *Precacher {
	return NewPrecacher(fetcher, fixedShard("a"), styles, PrecacheConfig{
		Workers:    4,
		QueueSize:  8,
		MaxPending: 4,
		Depth:      2,
		MaxZoom:    19,
	}, logger.NewNop())
}

func TestPlan_Counts(t *testing.T) {
	p := newTestPrecacher(&recordingFetcher{}, []string{"_", "alt"})
	defer p.Close()

	tile := mustTile(t, 5, 10, 12)
	tasks := p.Plan(tile)

	// per style: 5 ancestors, 4 children, 16 grandchildren
	require.Len(t, tasks, 2*(5+20))

	var ancestors, descendants int
	for _, task := range tasks {
		switch task.Kind {
		case PrecacheAncestor:
			ancestors++
			assert.Less(t, task.Tile.Z, tile.Z)
		case PrecacheDescendant:
			descendants++
			assert.Greater(t, task.Tile.Z, tile.Z)
			assert.LessOrEqual(t, task.Tile.Z, tile.Z+2)
		}
	}
	assert.Equal(t, 10, ancestors)
	assert.Equal(t, 40, descendants)

	assert.Equal(t, "_", tasks[0].Style)
	assert.Equal(t, mustTile(t, 4, 5, 6), tasks[0].Tile)
	assert.Equal(t, mustTile(t, 0, 0, 0), tasks[4].Tile)
}

func TestPlan_ZoomZero(t *testing.T) {
	p := newTestPrecacher(&recordingFetcher{}, []string{"_"})
	defer p.Close()

	tasks := p.Plan(mustTile(t, 0, 0, 0))
	assert.Len(t, tasks, 20)
}

func TestPlan_MaxZoom(t *testing.T) {
	p := NewPrecacher(&recordingFetcher{}, fixedShard("a"), []string{"_"}, PrecacheConfig{
		Workers: 1, QueueSize: 1, Depth: 2, MaxZoom: 6,
	}, logger.NewNop())
	defer p.Close()

	assert.Len(t, p.Plan(mustTile(t, 6, 0, 0)), 6)
	assert.Len(t, p.Plan(mustTile(t, 5, 0, 0)), 5+4)
}

func TestSchedule_FetchesPlan(t *testing.T) {
	f := &recordingFetcher{}
	p := newTestPrecacher(f, []string{"_", "alt"})
	defer p.Close()

	tile := mustTile(t, 3, 1, 1)
	p.Schedule(tile)
	p.Wait()

	calls := f.Calls()
	assert.Len(t, calls, 2*(3+20))

	seen := make(map[string]bool)
	for _, c := range calls {
		assert.Equal(t, "a", c.Shard)
		seen[c.Style+"/"+c.Tile.String()] = true
	}
	assert.True(t, seen["_/0/0/0"])
	assert.True(t, seen["alt/5/4/4"])
	assert.False(t, seen["_/3/1/1"], "the requested tile itself is not re-fetched")
}

func TestSchedule_FailuresAreSwallowed(t *testing.T) {
	f := &recordingFetcher{fail: func(entity.Tile) bool { return true }}
	p := newTestPrecacher(f, []string{"_"})
	defer p.Close()

	p.Schedule(mustTile(t, 2, 0, 0))
	p.Wait()

	assert.Len(t, f.Calls(), 2+20)
}

func TestSchedule_AfterClose(t *testing.T) {
	f := &recordingFetcher{}
	p := newTestPrecacher(f, []string{"_"})
	p.Close()

	p.Schedule(mustTile(t, 2, 0, 0))
	p.Wait()

	assert.Empty(t, f.Calls())
}

// blockingFetcher holds every fetch until release is closed.
type blockingFetcher struct {
	recordingFetcher
	release chan struct{}
}

func (b *blockingFetcher) Fetch(ctx context.Context, style, shard string, tile entity.Tile) (entity.CachedTile, error) {
	<-b.release
	return b.recordingFetcher.Fetch(ctx, style, shard, tile)
}

func TestSchedule_DropsWhenBacklogFull(t *testing.T) {
	f := &blockingFetcher{release: make(chan struct{})}
	p := NewPrecacher(f, fixedShard("a"), []string{"_"}, PrecacheConfig{
		Workers: 1, QueueSize: 1, MaxPending: 1, Depth: 0, MaxZoom: 19,
	}, logger.NewNop())
	defer p.Close()

	// five ancestors: one in the worker, one queued, the enqueuer waits
	p.Schedule(mustTile(t, 5, 0, 0))
	p.Schedule(mustTile(t, 4, 0, 0))
	p.Schedule(mustTile(t, 3, 0, 0))

	assert.EqualValues(t, 4+3, p.dropped.Load())

	close(f.release)
	p.Wait()

	calls := f.Calls()
	assert.Len(t, calls, 5)
	for _, c := range calls {
		assert.Less(t, c.Tile.Z, uint32(5))
	}
}
