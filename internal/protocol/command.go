package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Command names understood by the server.
const (
	CmdPing   = "ping"
	CmdSet    = "set"
	CmdGet    = "get"
	CmdDelete = "delete"
	CmdExists = "exists"
	CmdCount  = "count"
	CmdList   = "list"
	CmdFlush  = "flush"
)

var ErrCommandTooLong = errors.New("protocol: command name longer than 255 bytes")

// Command represents a decoded client command received by the server.
//
// The meaning of Key and Val depends on the command type (e.g. GET, SET,
// DELETE); unused fields are empty.
type Command struct {
	Cmd string // Command name (e.g. "get", "set", "delete")
	Key string // Key argument (may be empty)
	Val string // Value argument (may be empty)
}

// EncodeCommand serializes a client command into its wire format.
//
// The command is encoded as:
//
//	<cmd_len:uint8><key_len:uint32><val_len:uint32><cmd><key><val>
//
// All integer fields are encoded using big-endian byte order.
func EncodeCommand(cmd, key, val string) ([]byte, error) {
	if len(cmd) > math.MaxUint8 {
		return nil, ErrCommandTooLong
	}

	buf := &bytes.Buffer{}
	buf.Grow(9 + len(cmd) + len(key) + len(val))

	buf.WriteByte(uint8(len(cmd)))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(key))); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(val))); err != nil {
		return nil, err
	}

	buf.WriteString(cmd)
	buf.WriteString(key)
	buf.WriteString(val)

	return buf.Bytes(), nil
}

// DecodeCommand reads and decodes one command from r, rejecting payloads
// larger than DefaultMaxFrameSize.
//
// It blocks until the full command has been read or an error occurs. A
// stream that ends cleanly between commands returns io.EOF.
func DecodeCommand(r io.Reader) (*Command, error) {
	return DecodeCommandLimit(r, DefaultMaxFrameSize)
}

// DecodeCommandLimit is DecodeCommand with an explicit payload limit. A
// command whose header announces more than limit bytes fails with
// ErrFrameTooLarge before its payload is read; the stream is then out of
// sync and should be closed.
func DecodeCommandLimit(r io.Reader, limit int64) (*Command, error) {
	var header struct {
		CmdLen uint8
		KeyLen uint32
		ValLen uint32
	}

	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, err
	}

	size := int64(header.CmdLen) + int64(header.KeyLen) + int64(header.ValLen)

	payload, err := readPayload(r, size, limit)
	if err != nil {
		return nil, err
	}

	keyStart := int(header.CmdLen)
	valStart := keyStart + int(header.KeyLen)

	return &Command{
		Cmd: string(payload[:keyStart]),
		Key: string(payload[keyStart:valStart]),
		Val: string(payload[valStart:]),
	}, nil
}
