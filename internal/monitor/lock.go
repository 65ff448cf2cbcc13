package monitor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned when another monitor holds the lock of the watch root.
var ErrAlreadyRunning = errors.New("another monitor is already watching this directory")

// InstanceLock guards a watch root against concurrent monitors.
type InstanceLock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the lock file at path without blocking.
func AcquireLock(path string) (*InstanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	l := &InstanceLock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrAlreadyRunning)
	}

	return l, nil
}

func (l *InstanceLock) Path() string {
	return l.path
}

// Release unlocks the lock file.
func (l *InstanceLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
