package lock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/0xRadioAc7iv/go-caskdb/internal/lock"
)

func TestLockFile(t *testing.T) {
	t.Run("second acquire fails while lock is held", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "data.db")

		l, err := lock.Acquire(logPath)
		if err != nil {
			t.Fatalf("could not take initial lock: %v", err)
		}
		defer l.Release()

		if _, err := lock.Acquire(logPath); !errors.Is(err, lock.ErrLocked) {
			t.Errorf("second acquire: got %v, want ErrLocked", err)
		}
	})

	t.Run("lock can be taken again after release", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "data.db")

		l, err := lock.Acquire(logPath)
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Release(); err != nil {
			t.Fatalf("release: %v", err)
		}

		l2, err := lock.Acquire(logPath)
		if err != nil {
			t.Fatalf("lock was supposed to be free: %v", err)
		}
		l2.Release()
	})

	t.Run("different logs do not conflict", func(t *testing.T) {
		dir := t.TempDir()

		a, err := lock.Acquire(filepath.Join(dir, "a.db"))
		if err != nil {
			t.Fatal(err)
		}
		defer a.Release()

		b, err := lock.Acquire(filepath.Join(dir, "b.db"))
		if err != nil {
			t.Fatalf("unrelated log was locked: %v", err)
		}
		b.Release()

		if a.Path() != filepath.Join(dir, "a.db"+lock.Suffix) {
			t.Errorf("unexpected lock path %s", a.Path())
		}
	})
}
