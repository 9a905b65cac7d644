package protocol_test

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/0xRadioAc7iv/go-caskdb/internal/protocol"
)

func TestEncodeDecodeResponse(t *testing.T) {
	tests := []struct {
		name     string
		response *protocol.Response
	}{
		{"simple response", protocol.OK("ok")},
		{"not found", protocol.Nil()},
		{"empty body", protocol.OK("")},
		{"error", protocol.Error(errors.New("caskdb: store is closed"))},
		{"multiline response", protocol.OK("line1\nline2\nline3")},
		{"unicode response", protocol.OK("こんにちは世界")},
		{"large response", protocol.OK(string(make([]byte, 2048)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			payload, err := protocol.EncodeResponse(tt.response)
			if err != nil {
				t.Fatalf("EncodeResponse failed: %v", err)
			}

			go func() {
				_, _ = client.Write(payload)
			}()

			resp, err := protocol.DecodeResponse(server)
			if err != nil {
				t.Fatalf("DecodeResponse failed: %v", err)
			}

			if *resp != *tt.response {
				t.Errorf("Response mismatch: got %+v, want %+v", resp, tt.response)
			}
		})
	}
}

func TestNilIsDistinctFromEmptyValue(t *testing.T) {
	nilPayload, _ := protocol.EncodeResponse(protocol.Nil())
	emptyPayload, _ := protocol.EncodeResponse(protocol.OK(""))

	if bytes.Equal(nilPayload, emptyPayload) {
		t.Fatal("not-found and empty body encode identically")
	}
}

func TestDecodeResponse_TruncatedPayload(t *testing.T) {
	payload, err := protocol.EncodeResponse(protocol.OK("hello world"))
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	_, err = protocol.DecodeResponse(bytes.NewReader(payload[:len(payload)/2]))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF on truncated response, got %v", err)
	}
}

func TestStatusString(t *testing.T) {
	if protocol.StatusNil.String() != "nil" || protocol.Status(9).String() != "Status(9)" {
		t.Fatal("unexpected Status strings")
	}
}

func TestDecodeResponse_OversizedFrame(t *testing.T) {
	header := []byte{byte(protocol.StatusOK), 0xff, 0xff, 0xff, 0xff}

	if _, err := protocol.DecodeResponse(bytes.NewReader(header)); !errors.Is(err, protocol.ErrFrameTooLarge) {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}

	payload, _ := protocol.EncodeResponse(protocol.OK("hello"))
	if _, err := protocol.DecodeResponseLimit(bytes.NewReader(payload), 4); !errors.Is(err, protocol.ErrFrameTooLarge) {
		t.Fatalf("limit 4: got %v, want ErrFrameTooLarge", err)
	}
}
