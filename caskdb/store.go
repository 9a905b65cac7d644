package caskdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-caskdb/internal/appendlog"
	"github.com/0xRadioAc7iv/go-caskdb/internal/keydir"
	"github.com/0xRadioAc7iv/go-caskdb/internal/lock"
	"github.com/0xRadioAc7iv/go-caskdb/internal/record"
)

// logFile is the part of *appendlog.Log a Store uses.
type logFile interface {
	Append(data []byte) (int64, error)
	Flush() error
	ReadAt(offset int64, length int) ([]byte, error)
	NewReader() io.Reader
	Size() int64
	Path() string
	Close() error
}

// Store is an open log file plus the key directory rebuilt from it.
//
// A Store is safe for concurrent use. Set and Delete hold the write lock
// across the append and the directory update, so the two are never seen
// apart. Get snapshots the directory entry under the read lock and reads
// the record outside it; records are never rewritten in place, so a
// location that was valid once stays valid.
type Store struct {
	mu sync.RWMutex // for keyDir + closed

	log    logFile
	lock   *lock.Lock
	keyDir keydir.KeyDir
	fileID uint32
	closed bool

	opts   *options
	logger *zap.Logger
	replay replayStats
}

// Stats is a point-in-time summary of a store.
type Stats struct {
	Keys               int
	LogSize            int64
	Index              string
	ReplayedRecords    int
	ReplayedTombstones int
	ReplayDuration     time.Duration
}

// Open opens the log at path, creating it if absent, and replays it to
// rebuild the key directory. A log that ends in the middle of a record is
// rejected with a *CorruptLogError.
func Open(path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.With(zap.String("path", path))

	if err := ensureDirectory(filepath.Dir(path), logger); err != nil {
		return nil, err
	}

	lk, err := lock.Acquire(path)
	if err != nil {
		logger.Error("could not lock log file", zap.Error(err))
		return nil, err
	}

	lg, err := appendlog.Open(path,
		appendlog.WithWriteBufferSize(o.writeBufferSize),
		appendlog.WithSyncOnWrite(o.syncOnWrite),
	)
	if err != nil {
		lk.Release()
		return nil, err
	}

	s := &Store{
		log:    lg,
		lock:   lk,
		keyDir: keydir.New(o.index),
		opts:   o,
		logger: logger,
	}

	if err := s.loadKeyDir(); err != nil {
		logger.Error("log replay failed", zap.Error(err))
		lg.Close()
		lk.Release()
		return nil, err
	}

	logger.Info("store opened",
		zap.Int("keys", s.keyDir.Len()),
		zap.Int("records", s.replay.records),
		zap.Int("tombstones", s.replay.tombstones),
		zap.Int64("bytes", s.replay.bytes),
		zap.Duration("replay", s.replay.duration),
		zap.Stringer("index", o.index),
	)

	return s, nil
}

func ensureDirectory(dir string, logger *zap.Logger) error {
	_, err := os.Stat(dir)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	logger.Info("log directory does not exist, creating it", zap.String("dir", dir))

	// 0 (special bit - ignored), 7 (rwx - owner), 5 (r-x - user group), 5 (r-x - others)
	return os.MkdirAll(dir, 0755)
}

// Set stores value under key. The write is buffered; it is durable once
// Flush or Close returns, or immediately with WithSyncOnWrite.
//
// With WithSyncOnWrite, an error wrapping appendlog.ErrSync means the record
// was written but not synced. The new value is visible, as it would be
// after a restart, and the error reports that its durability is unknown.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == "" {
		return ErrEmptyValue
	}

	timestamp := s.timestamp()

	encoded, err := record.Encode(timestamp, []byte(key), []byte(value))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	offset, err := s.log.Append(encoded)
	if err != nil && !errors.Is(err, appendlog.ErrSync) {
		return err
	}

	s.keyDir.Upsert(key, keydir.Entry{
		FileID:    s.fileID,
		Offset:    offset,
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
		Timestamp: timestamp,
	})

	return err
}

// Get returns the value stored under key. The boolean is false when the key
// does not exist; that is not an error.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", false, ErrClosed
	}
	entry, ok := s.keyDir.Lookup(key)
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	// The record may still be in the write buffer.
	if err := s.log.Flush(); err != nil {
		return "", false, translate(err)
	}

	rec, err := s.readRecord(entry)
	if err != nil {
		return "", false, err
	}
	if string(rec.Key) != key {
		return "", false, fmt.Errorf("caskdb: record at offset %d belongs to %q, not %q", entry.Offset, rec.Key, key)
	}

	return string(rec.Value), true, nil
}

// readRecord reads the header at the entry's offset, then the whole record
// the header describes.
func (s *Store) readRecord(entry keydir.Entry) (*record.Record, error) {
	headerBytes, err := s.log.ReadAt(entry.Offset, record.HeaderSizeBytes)
	if err != nil {
		return nil, translate(err)
	}

	header, err := record.DecodeHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	data, err := s.log.ReadAt(entry.Offset, int(header.RecordSize()))
	if err != nil {
		return nil, translate(err)
	}

	return record.Decode(data)
}

// Delete appends a tombstone for key and drops it from the directory. It
// reports false, and writes nothing, when the key does not exist. A sync
// failure is handled as in Set: the key is gone and the error is returned.
func (s *Store) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	if _, ok := s.keyDir.Lookup(key); !ok {
		return false, nil
	}

	encoded, err := record.EncodeRecord(record.NewTombstone(s.timestamp(), []byte(key)))
	if err != nil {
		return false, err
	}

	_, err = s.log.Append(encoded)
	if err != nil && !errors.Is(err, appendlog.ErrSync) {
		return false, err
	}
	s.keyDir.Remove(key)

	return true, err
}

// Flush makes every write so far durable.
func (s *Store) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return translate(s.log.Flush())
}

// Exists reports whether key has a live value. It does not touch the disk.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	_, ok := s.keyDir.Lookup(key)
	return ok
}

// Len is the number of live keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}
	return s.keyDir.Len()
}

// Keys lists every live key. The order is ascending for an ordered index
// and unspecified otherwise.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}

	keys := make([]string, 0, s.keyDir.Len())
	s.keyDir.Ascend(func(key string, _ keydir.Entry) bool {
		keys = append(keys, key)
		return true
	})

	return keys
}

// Range calls fn for every key in [start, end) in ascending order, stopping
// early if fn returns false. An empty end means no upper bound. The set of
// keys is a snapshot taken when Range starts.
func (s *Store) Range(start, end string, fn func(key, value string) bool) error {
	type located struct {
		key   string
		entry keydir.Entry
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	ranger, ok := s.keyDir.(keydir.Ranger)
	if !ok {
		s.mu.RUnlock()
		return ErrRangeUnsupported
	}
	var snapshot []located
	ranger.AscendRange(start, end, func(key string, e keydir.Entry) bool {
		snapshot = append(snapshot, located{key: key, entry: e})
		return true
	})
	s.mu.RUnlock()

	if len(snapshot) == 0 {
		return nil
	}

	if err := s.log.Flush(); err != nil {
		return translate(err)
	}

	for _, l := range snapshot {
		rec, err := s.readRecord(l.entry)
		if err != nil {
			return err
		}
		if !fn(l.key, string(rec.Value)) {
			return nil
		}
	}

	return nil
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Index:              s.opts.index.String(),
		ReplayedRecords:    s.replay.records,
		ReplayedTombstones: s.replay.tombstones,
		ReplayDuration:     s.replay.duration,
	}
	if !s.closed {
		st.Keys = s.keyDir.Len()
		st.LogSize = s.log.Size()
	}

	return st
}

func (s *Store) Path() string {
	return s.log.Path()
}

// Close flushes and closes the log and releases the file lock. The key
// directory is discarded. Closing twice returns ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.keyDir = nil

	logErr := s.log.Close()
	lockErr := s.lock.Release()

	if logErr != nil {
		s.logger.Error("error while closing the log", zap.Error(logErr))
		return logErr
	}
	if lockErr != nil {
		s.logger.Warn("error while releasing the lock", zap.Error(lockErr))
		return lockErr
	}

	s.logger.Info("store closed")
	return nil
}

func (s *Store) timestamp() uint32 {
	return uint32(s.opts.now().Unix())
}

// translate maps errors from a log closed underneath an operation to ErrClosed.
func translate(err error) error {
	if errors.Is(err, appendlog.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return ErrClosed
	}
	return err
}
