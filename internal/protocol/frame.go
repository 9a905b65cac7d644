package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameSize caps the payload of a single command or response.
const DefaultMaxFrameSize = 32 << 20

var ErrFrameTooLarge = errors.New("protocol: frame exceeds size limit")

// readPayload reads exactly size bytes from r. The buffer grows with the
// bytes actually received, so a header announcing a huge payload costs
// nothing until the peer sends it. A limit <= 0 disables the size check.
func readPayload(r io.Reader, size, limit int64) ([]byte, error) {
	if limit > 0 && size > limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, size, limit)
	}

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, size); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return buf.Bytes(), nil
}
