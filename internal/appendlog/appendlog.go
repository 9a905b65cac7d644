// Package appendlog owns the single append-only log file of a store.
//
// Appends go through an in-process write buffer. A record is only visible
// to ReadAt once the buffer has been flushed, so readers call Flush before
// reading a location that may have been written recently.
package appendlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const DefaultWriteBufferSize = 64 * 1024

var (
	// ErrClosed is returned by every method once Close has been called.
	ErrClosed = errors.New("appendlog: log is closed")

	// ErrSync marks an fsync failure. The bytes already reached the file
	// and will be seen by the next replay; only their durability is
	// unknown.
	ErrSync = errors.New("appendlog: sync failed")
)

type config struct {
	writeBufferSize int
	syncOnWrite     bool
}

type Option func(*config)

// WithWriteBufferSize sets the size of the in-process write buffer.
func WithWriteBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.writeBufferSize = n
		}
	}
}

// WithSyncOnWrite makes every Append durable before it returns.
func WithSyncOnWrite(enabled bool) Option {
	return func(c *config) {
		c.syncOnWrite = enabled
	}
}

type Log struct {
	mu sync.Mutex // for file, writer, size, dirty and closed

	file   *os.File
	writer *bufio.Writer
	sync   func() error
	size   int64 // logical end of file, including buffered bytes
	dirty  bool  // bytes written since the last fsync

	syncOnWrite bool
	closed      bool
}

// Open opens or creates the log at path. Appends start at the current end
// of the file.
func Open(path string, opts ...Option) (*Log, error) {
	cfg := config{writeBufferSize: DefaultWriteBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("appendlog: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("appendlog: stat %s: %w", path, err)
	}

	return &Log{
		file:        f,
		writer:      bufio.NewWriterSize(f, cfg.writeBufferSize),
		sync:        f.Sync,
		size:        info.Size(),
		syncOnWrite: cfg.syncOnWrite,
	}, nil
}

// Append writes data at the end of the log and returns the offset of its
// first byte.
//
// Write errors are sticky: once an append fails every later append fails
// with the same error, so the log never continues past a partial record.
//
// With WithSyncOnWrite, an error wrapping ErrSync comes with a valid offset:
// the record is in the file and only the fsync failed.
func (l *Log) Append(data []byte) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrClosed
	}

	offset := l.size

	n, err := l.writer.Write(data)
	l.size += int64(n)
	if n > 0 {
		l.dirty = true
	}
	if err != nil {
		return 0, fmt.Errorf("appendlog: append at %d: %w", offset, err)
	}

	if l.syncOnWrite {
		if err := l.flushLocked(); err != nil {
			if errors.Is(err, ErrSync) {
				return offset, err
			}
			return 0, err
		}
	}

	return offset, nil
}

// Flush pushes buffered bytes to the file and forces them to stable storage.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	return l.flushLocked()
}

func (l *Log) flushLocked() error {
	if !l.dirty {
		return nil
	}

	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("appendlog: flush: %w", err)
	}
	if err := l.sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrSync, err)
	}

	l.dirty = false
	return nil
}

// ReadAt reads exactly length bytes starting at offset. Only flushed bytes
// are visible; a span reaching past them fails with io.ErrUnexpectedEOF.
func (l *Log) ReadAt(offset int64, length int) ([]byte, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	f := l.file
	l.mu.Unlock()

	buf := make([]byte, length)

	n, err := f.ReadAt(buf, offset)
	if n == length {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}

	return nil, fmt.Errorf("appendlog: read %d bytes at %d: %w", length, offset, err)
}

// NewReader returns a sequential reader over every byte currently on disk,
// starting at offset 0. Buffered appends are not included.
func (l *Log) NewReader() io.Reader {
	l.mu.Lock()
	defer l.mu.Unlock()

	end := l.size - int64(l.writer.Buffered())
	return bufio.NewReaderSize(io.NewSectionReader(l.file, 0, end), DefaultWriteBufferSize)
}

// Size is the logical length of the log, buffered bytes included.
func (l *Log) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.size
}

func (l *Log) Path() string {
	return l.file.Name()
}

// Close flushes, syncs and releases the file. Calling Close again returns
// ErrClosed and has no other effect.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	l.closed = true

	flushErr := l.flushLocked()
	if err := l.file.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("appendlog: close: %w", err)
	}

	return flushErr
}
