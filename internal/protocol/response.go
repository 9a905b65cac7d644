package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type Status uint8

const (
	StatusOK    Status = iota // Body carries the result
	StatusNil                 // Key not found
	StatusError               // Body carries an error message
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNil:
		return "nil"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

type Response struct {
	Status Status
	Body   string
}

func OK(body string) *Response {
	return &Response{Status: StatusOK, Body: body}
}

func Nil() *Response {
	return &Response{Status: StatusNil}
}

func Error(err error) *Response {
	return &Response{Status: StatusError, Body: err.Error()}
}

// EncodeResponse serializes a response as
//
//	<status:uint8><body_len:uint32><body>
//
// with big-endian integers.
func EncodeResponse(resp *Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Grow(5 + len(resp.Body))

	buf.WriteByte(byte(resp.Status))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(resp.Body))); err != nil {
		return nil, err
	}
	buf.WriteString(resp.Body)

	return buf.Bytes(), nil
}

func DecodeResponse(r io.Reader) (*Response, error) {
	return DecodeResponseLimit(r, DefaultMaxFrameSize)
}

// DecodeResponseLimit rejects bodies larger than limit with
// ErrFrameTooLarge without reading them.
func DecodeResponseLimit(r io.Reader, limit int64) (*Response, error) {
	var header struct {
		Status  uint8
		BodyLen uint32
	}

	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, err
	}

	body, err := readPayload(r, int64(header.BodyLen), limit)
	if err != nil {
		return nil, err
	}

	return &Response{Status: Status(header.Status), Body: string(body)}, nil
}
