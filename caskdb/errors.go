package caskdb

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptLog matches every *CorruptLogError.
	ErrCorruptLog = errors.New("caskdb: corrupt log")

	// ErrClosed is returned by operations on a store after Close.
	ErrClosed = errors.New("caskdb: store is closed")

	// ErrEmptyKey is returned by Set for a zero-length key.
	ErrEmptyKey = errors.New("caskdb: key must not be empty")

	// ErrEmptyValue is returned by Set for a zero-length value. Empty values
	// are reserved for tombstones.
	ErrEmptyValue = errors.New("caskdb: value must not be empty")

	// ErrRangeUnsupported is returned by Range when the store was opened
	// with an unordered index.
	ErrRangeUnsupported = errors.New("caskdb: range scans need an ordered index")
)

// CorruptLogError reports a log that ends in the middle of a record. The
// store refuses to open until the file is repaired or truncated.
type CorruptLogError struct {
	Path   string
	Offset int64 // start of the record that could not be read
	Err    error
}

func (e *CorruptLogError) Error() string {
	return fmt.Sprintf("caskdb: corrupt log %s at offset %d: %v", e.Path, e.Offset, e.Err)
}

func (e *CorruptLogError) Unwrap() error {
	return e.Err
}

func (e *CorruptLogError) Is(target error) bool {
	return target == ErrCorruptLog
}
