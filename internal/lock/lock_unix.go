//go:build unix

package lock

import (
	"fmt"
	"os"
	"syscall"
)

// Acquire takes an exclusive, non-blocking advisory lock guarding logPath.
//
// On Unix systems, this uses flock(2) on the lock file. If the lock cannot
// be acquired, the log is assumed to be in use by another store.
func Acquire(logPath string) (*Lock, error) {
	f, err := os.OpenFile(PathFor(logPath), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("lock: unable to open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrLocked
	}

	return &Lock{f: f}, nil
}

// Release drops the flock and closes the lock file. The file itself stays
// on disk.
func (l *Lock) Release() error {
	if err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("lock: unlock: %w", err)
	}
	return l.f.Close()
}
