package appendlog

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T, opts ...Option) (*Log, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	l, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	t.Cleanup(func() {
		l.Close()
	})

	return l, path
}

func TestAppendReturnsOffsets(t *testing.T) {
	l, _ := openTestLog(t)

	chunks := [][]byte{[]byte("hello"), []byte(", "), []byte("world")}
	var want int64

	for _, c := range chunks {
		off, err := l.Append(c)
		if err != nil {
			t.Fatal(err)
		}
		if off != want {
			t.Fatalf("Append offset = %d, want %d", off, want)
		}
		want += int64(len(c))
	}

	if l.Size() != want {
		t.Errorf("Size() = %d, want %d", l.Size(), want)
	}
}

func TestBufferedBytesNeedFlush(t *testing.T) {
	l, _ := openTestLog(t, WithWriteBufferSize(1024))

	off, err := l.Append([]byte("buffered"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := l.ReadAt(off, 8); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("read before flush: got %v, want io.ErrUnexpectedEOF", err)
	}

	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}

	got, err := l.ReadAt(off, 8)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "buffered" {
		t.Fatalf("ReadAt = %q, want %q", got, "buffered")
	}
}

func TestSyncOnWrite(t *testing.T) {
	l, _ := openTestLog(t, WithSyncOnWrite(true))

	off, err := l.Append([]byte("durable"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := l.ReadAt(off, 7)
	if err != nil {
		t.Fatalf("read after synced append: %v", err)
	}
	if string(got) != "durable" {
		t.Fatalf("ReadAt = %q", got)
	}
}

func TestSyncFailureKeepsOffset(t *testing.T) {
	l, _ := openTestLog(t, WithSyncOnWrite(true))

	if _, err := l.Append([]byte("first")); err != nil {
		t.Fatal(err)
	}

	diskErr := errors.New("disk on fire")
	l.sync = func() error { return diskErr }

	off, err := l.Append([]byte("second"))
	if !errors.Is(err, ErrSync) || !errors.Is(err, diskErr) {
		t.Fatalf("Append with failing sync: got %v, want ErrSync wrapping the disk error", err)
	}
	if off != int64(len("first")) {
		t.Fatalf("offset = %d, want %d", off, len("first"))
	}

	// The bytes are in the file even though the sync failed.
	got, err := l.ReadAt(off, len("second"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("ReadAt = %q, want %q", got, "second")
	}

	// Once the disk recovers, the next flush retries the sync.
	l.sync = l.file.Sync
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush after recovery: %v", err)
	}
}

func TestReopenContinuesAtEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Append([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	l, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	off, err := l.Append([]byte("def"))
	if err != nil {
		t.Fatal(err)
	}
	if off != 3 {
		t.Fatalf("offset after reopen = %d, want 3", off)
	}

	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}

	all, err := io.ReadAll(l.NewReader())
	if err != nil {
		t.Fatal(err)
	}
	if string(all) != "abcdef" {
		t.Fatalf("log contents = %q, want %q", all, "abcdef")
	}
}

func TestNewReaderSkipsBufferedBytes(t *testing.T) {
	l, path := openTestLog(t)

	if err := os.WriteFile(path, []byte("on-disk"), 0644); err != nil {
		t.Fatal(err)
	}

	l2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()
	l.Close()

	if _, err := l2.Append([]byte("pending")); err != nil {
		t.Fatal(err)
	}

	all, err := io.ReadAll(l2.NewReader())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(all, []byte("on-disk")) {
		t.Fatalf("reader returned %q, want only flushed bytes", all)
	}
}

func TestCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.db")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Append([]byte("data")); err != nil {
		t.Fatal(err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := l.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second close: got %v, want ErrClosed", err)
	}

	if _, err := l.Append([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("append after close: got %v, want ErrClosed", err)
	}
	if _, err := l.ReadAt(0, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("read after close: got %v, want ErrClosed", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "data" {
		t.Fatalf("file contents after double close = %q, want %q", contents, "data")
	}
}
