//go:build windows

package lock

import (
	"os"
)

// Acquire takes an exclusive lock guarding logPath.
//
// On Windows, this is implemented by atomically creating the lock file. If
// the file already exists, the log is assumed to be in use by another store.
func Acquire(logPath string) (*Lock, error) {
	f, err := os.OpenFile(PathFor(logPath), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, ErrLocked
	}

	return &Lock{f: f}, nil
}

// Release removes the lock file from disk. It should be called exactly once
// for each successful Acquire.
func (l *Lock) Release() error {
	name := l.f.Name()
	if err := l.f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
