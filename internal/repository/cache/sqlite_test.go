package cache

import (
	"path/filepath"
	"testing"

	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCache(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "tiles.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	testTileCache(t, c)
}

func TestSQLiteCache_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.db")

	c, err := NewSQLiteCache(path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = NewSQLiteCache(path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
