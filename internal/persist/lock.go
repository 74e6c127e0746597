package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the data directory.
var ErrLocked = errors.New("data directory is in use by another instance")

// DirLock guards a data directory against concurrent bot instances.
type DirLock struct {
	lock *flock.Flock
	path string
}

// LockDir acquires an exclusive lock on dir without blocking.
func LockDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "tagbot.lock")
	l := flock.New(path)

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &DirLock{lock: l, path: path}, nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string { return l.path }

// Unlock releases the lock.
func (l *DirLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
