package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Timestamp (4) + KeySize (4) + ValueSize (4)
const HeaderSizeBytes = 12

var (
	// ErrFormat is returned when a byte span is too short for the header or
	// for the payload sizes the header declares.
	ErrFormat = errors.New("record: malformed or truncated record")

	// ErrTooLarge is returned when a key or value does not fit a 32-bit size field.
	ErrTooLarge = errors.New("record: key or value exceeds 4 GiB")
)

// Header is the fixed-width prefix of every record on disk.
type Header struct {
	Timestamp uint32 // Unix timestamp in seconds
	KeySize   uint32 // Length of Key in Bytes
	ValueSize uint32 // Length of Value in Bytes
}

// PayloadSize is the number of bytes following the header.
func (h Header) PayloadSize() int64 {
	return int64(h.KeySize) + int64(h.ValueSize)
}

// RecordSize is the number of bytes the whole record occupies on disk.
func (h Header) RecordSize() int64 {
	return HeaderSizeBytes + h.PayloadSize()
}

// IsTombstone reports whether the header belongs to a deletion marker.
func (h Header) IsTombstone() bool {
	return h.ValueSize == 0
}

type Record struct {
	Header
	Key   []byte
	Value []byte
}

// NewTombstone builds the deletion marker for key.
func NewTombstone(timestamp uint32, key []byte) *Record {
	return &Record{
		Header: Header{
			Timestamp: timestamp,
			KeySize:   uint32(len(key)),
			ValueSize: 0,
		},
		Key:   key,
		Value: nil,
	}
}

// Encode serializes a record as header||key||value.
//
// All header fields are little-endian. No padding or terminator is written,
// so len(result) == HeaderSizeBytes + len(key) + len(value).
func Encode(timestamp uint32, key, value []byte) ([]byte, error) {
	if uint64(len(key)) > math.MaxUint32 || uint64(len(value)) > math.MaxUint32 {
		return nil, ErrTooLarge
	}

	header := Header{
		Timestamp: timestamp,
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.RecordSize()))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	buf.Write(key)
	buf.Write(value)

	return buf.Bytes(), nil
}

// EncodeRecord is Encode for an already assembled Record. The size fields of
// r are recomputed from Key and Value.
func EncodeRecord(r *Record) ([]byte, error) {
	return Encode(r.Timestamp, r.Key, r.Value)
}

// DecodeHeader reads the fixed header from the start of data.
func DecodeHeader(data []byte) (Header, error) {
	var h Header

	if len(data) < HeaderSizeBytes {
		return h, fmt.Errorf("%w: header needs %d bytes, got %d", ErrFormat, HeaderSizeBytes, len(data))
	}

	if err := binary.Read(bytes.NewReader(data[:HeaderSizeBytes]), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	return h, nil
}

// Decode parses one record from the start of data. Bytes after the record
// are ignored. Key and Value are copies and do not alias data.
func Decode(data []byte) (*Record, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	payload := data[HeaderSizeBytes:]
	if int64(len(payload)) < h.PayloadSize() {
		return nil, fmt.Errorf("%w: payload needs %d bytes, got %d", ErrFormat, h.PayloadSize(), len(payload))
	}

	key := make([]byte, h.KeySize)
	copy(key, payload[:h.KeySize])

	value := make([]byte, h.ValueSize)
	copy(value, payload[h.KeySize:h.PayloadSize()])

	return &Record{
		Header: h,
		Key:    key,
		Value:  value,
	}, nil
}
