package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirBackend stores one "{key}.json" file per key under a directory.
type DirBackend struct {
	dir string
}

// NewDirBackend returns a backend rooted at dir. The directory must already exist.
func NewDirBackend(dir string) (*DirBackend, error) {
	if dir == "" {
		return nil, errors.New("cache dir is required")
	}
	return &DirBackend{dir: dir}, nil
}

// Path returns the file that holds key.
func (b *DirBackend) Path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// Get reads the file for key, returning nil when it does not exist.
func (b *DirBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Set replaces the file for key through a temp file in the same directory,
// so readers see either the previous content or the new one.
func (b *DirBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(b.dir, "."+key+".json.tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(value); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), b.Path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", b.Path(key), err)
	}
	return nil
}
