// Package lock gives one process exclusive ownership of a log file.
//
// The lock lives in a sibling file named "<log>.lock". It is advisory: it
// only keeps out other processes that also take the lock.
package lock

import (
	"errors"
	"os"
)

const Suffix = ".lock"

// ErrLocked is returned when another store already owns the log file.
var ErrLocked = errors.New("lock: log file already in use by another caskdb instance")

// Lock is a held lock. It must stay open for as long as the log is in use.
type Lock struct {
	f *os.File
}

// PathFor returns the lock file path guarding logPath.
func PathFor(logPath string) string {
	return logPath + Suffix
}

// Path is the location of the lock file on disk.
func (l *Lock) Path() string {
	return l.f.Name()
}
