package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage implements Store using a directory on local disk.
type LocalStorage struct {
	dir string
	now func() time.Time
}

// NewLocalStorage creates a LocalStorage rooted at dir, creating it if it
// doesn't exist. An empty dir means "album_covers" in the working
// directory.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = "album_covers"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cover directory: %w", err)
	}
	return &LocalStorage{dir: dir, now: time.Now}, nil
}

// Dir returns the cover directory.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Put writes data to a new file and returns its name.
func (s *LocalStorage) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	ref := newRef(s.now())
	path := filepath.Join(s.dir, ref)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write cover: %w", err)
	}
	return ref, nil
}

// Get reads the cover file named ref.
func (s *LocalStorage) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if err := checkRef(ref); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}
	return data, nil
}

// Delete removes the cover file named ref.
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if err := checkRef(ref); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cover: %w", err)
	}
	return nil
}

// Purge removes every cover file, continuing past failures and returning
// the first error encountered.
func (s *LocalStorage) Purge(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("list covers: %w", err)
	}

	var firstErr error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		if e.IsDir() || !strings.HasPrefix(e.Name(), "album_cover_") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove cover %s: %w", e.Name(), err)
			}
		}
	}
	return firstErr
}
