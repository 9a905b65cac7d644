package caskdb

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-caskdb/internal/keydir"
	"github.com/0xRadioAc7iv/go-caskdb/internal/record"
)

type replayStats struct {
	records    int
	tombstones int
	bytes      int64
	duration   time.Duration
}

// loadKeyDir replays the log from offset 0 to the end.
//
// Records are applied in append order, never by timestamp: a normal record
// upserts its key, a tombstone removes the key if it is present and is a
// no-op otherwise. Anything short of a complete record before the end of
// the file is a *CorruptLogError.
func (s *Store) loadKeyDir() error {
	started := time.Now()

	logSize := s.log.Size()
	r := s.log.NewReader()

	var offset int64
	header := make([]byte, record.HeaderSizeBytes)

	for {
		recordStartOffset := offset

		_, err := io.ReadFull(r, header)
		if err != nil {
			if err == io.EOF {
				break
			}
			if err == io.ErrUnexpectedEOF {
				return s.corrupt(recordStartOffset, fmt.Errorf("%w: incomplete header", record.ErrFormat))
			}
			return fmt.Errorf("caskdb: replay %s: %w", s.log.Path(), err)
		}

		h, err := record.DecodeHeader(header)
		if err != nil {
			return s.corrupt(recordStartOffset, err)
		}

		if recordStartOffset+h.RecordSize() > logSize {
			return s.corrupt(recordStartOffset, fmt.Errorf("%w: record of %d bytes runs past end of log", record.ErrFormat, h.RecordSize()))
		}

		data := make([]byte, h.RecordSize())
		copy(data, header)
		if _, err := io.ReadFull(r, data[record.HeaderSizeBytes:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return s.corrupt(recordStartOffset, fmt.Errorf("%w: truncated payload", record.ErrFormat))
			}
			return fmt.Errorf("caskdb: replay %s: %w", s.log.Path(), err)
		}

		rec, err := record.Decode(data)
		if err != nil {
			return s.corrupt(recordStartOffset, err)
		}

		key := string(rec.Key)

		if rec.IsTombstone() {
			s.keyDir.Remove(key)
			s.replay.tombstones++
		} else {
			s.keyDir.Upsert(key, keydir.Entry{
				FileID:    s.fileID,
				Offset:    recordStartOffset,
				KeySize:   rec.KeySize,
				ValueSize: rec.ValueSize,
				Timestamp: rec.Timestamp,
			})
		}

		s.replay.records++
		offset += h.RecordSize()
	}

	s.replay.bytes = offset
	s.replay.duration = time.Since(started)

	s.logger.Debug("log replayed",
		zap.Int("records", s.replay.records),
		zap.Int64("bytes", offset),
	)

	return nil
}

func (s *Store) corrupt(offset int64, err error) error {
	return &CorruptLogError{
		Path:   s.log.Path(),
		Offset: offset,
		Err:    err,
	}
}
