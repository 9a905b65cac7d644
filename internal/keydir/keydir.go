// Package keydir holds the in-memory index that maps every live key to the
// location of its latest record in the log.
//
// A KeyDir never stores values, only locations, so its memory use grows
// with the number of keys rather than with the size of the data. It is
// rebuilt from the log on every open and is never persisted.
//
// Implementations are not safe for concurrent use; the owning store
// serializes access.
package keydir

import (
	"fmt"
	"strings"

	"github.com/0xRadioAc7iv/go-caskdb/internal/record"
)

// Entry represents the in-memory index entry for a single key.
type Entry struct {
	FileID    uint32 // Log file containing the record, always 0 for a single log
	Offset    int64  // Byte offset in the log where the record header starts
	KeySize   uint32 // Size of the key in bytes
	ValueSize uint32 // Size of the value in bytes
	Timestamp uint32 // Timestamp of the record in seconds
}

// RecordSize is the total size of the record on disk (header + key + value).
func (e Entry) RecordSize() int64 {
	return record.HeaderSizeBytes + int64(e.KeySize) + int64(e.ValueSize)
}

// KeyDir is the contract shared by every index implementation.
type KeyDir interface {
	// Upsert inserts or overwrites the entry for key. The last call wins.
	Upsert(key string, e Entry)
	// Remove deletes key and reports whether it was present.
	Remove(key string) bool
	// Lookup returns the entry for key, if any.
	Lookup(key string) (Entry, bool)
	// Len is the number of live keys.
	Len() int
	// Ascend calls fn for every key until fn returns false. Ordered
	// implementations visit keys in ascending order.
	Ascend(fn func(key string, e Entry) bool)
}

// Ranger is implemented by KeyDirs that can scan a key interval.
type Ranger interface {
	// AscendRange visits keys in [start, end) in ascending order. An empty
	// end means no upper bound.
	AscendRange(start, end string, fn func(key string, e Entry) bool)
}

type Kind int

const (
	KindHash Kind = iota
	KindOrdered
)

func (k Kind) String() string {
	switch k {
	case KindHash:
		return "hash"
	case KindOrdered:
		return "ordered"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts "hash", "ordered" or "btree" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hash", "map":
		return KindHash, nil
	case "ordered", "btree":
		return KindOrdered, nil
	default:
		return KindHash, fmt.Errorf("keydir: unknown index kind %q", s)
	}
}

// New returns an empty KeyDir of the given kind.
func New(kind Kind) KeyDir {
	switch kind {
	case KindOrdered:
		return NewOrdered(DefaultBTreeDegree)
	default:
		return NewHash()
	}
}

// Hash is the default KeyDir, a plain Go map.
type Hash map[string]Entry

func NewHash() Hash {
	return make(Hash)
}

func (h Hash) Upsert(key string, e Entry) {
	h[key] = e
}

func (h Hash) Remove(key string) bool {
	if _, ok := h[key]; !ok {
		return false
	}
	delete(h, key)
	return true
}

func (h Hash) Lookup(key string) (Entry, bool) {
	e, ok := h[key]
	return e, ok
}

func (h Hash) Len() int {
	return len(h)
}

func (h Hash) Ascend(fn func(key string, e Entry) bool) {
	for k, e := range h {
		if !fn(k, e) {
			return
		}
	}
}
