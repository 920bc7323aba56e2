package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilesystemCache keeps one file per tile under root, laid out as
// {root}/{style}/{z}/{x}/{y}.png. The directory tree is the only index.
type FilesystemCache struct {
	root string
}

func NewFilesystemCache(root string) (*FilesystemCache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FilesystemCache{
		root: root,
	}, nil
}

var _ TileCache = (*FilesystemCache)(nil)

func (c *FilesystemCache) Get(_ context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	content, err := os.ReadFile(c.keyToPath(k))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return content, true, nil
}

// Set replaces the whole file: data goes to a temp file in the target
// directory which is then renamed over the final path.
func (c *FilesystemCache) Set(_ context.Context, k TileCacheKey, v TileCacheValue) error {
	path := c.keyToPath(k)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return nil
}

func (c *FilesystemCache) keyToPath(k TileCacheKey) string {
	return filepath.Join(c.root, filepath.FromSlash(k.Path()))
}
