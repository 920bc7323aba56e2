package cache

import (
	"context"
	"sync"
)

type MapCache struct {
	m *TypedSyncMap
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k TileCacheKey) (TileCacheValue, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.(TileCacheValue), exists
}

func (c *TypedSyncMap) Store(k TileCacheKey, v TileCacheValue) {
	c.m.Store(k, v)
}

func (c *TypedSyncMap) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func NewMapCache() *MapCache {
	return &MapCache{
		m: &TypedSyncMap{},
	}
}

var _ TileCache = (*MapCache)(nil)

func (c *MapCache) Get(_ context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	v, exists := c.m.Load(k)
	return v, exists, nil
}

func (c *MapCache) Set(_ context.Context, k TileCacheKey, v TileCacheValue) error {
	stored := make(TileCacheValue, len(v))
	copy(stored, v)
	c.m.Store(k, stored)
	return nil
}

// Len returns the number of stored tiles.
func (c *MapCache) Len() int {
	return c.m.Len()
}
