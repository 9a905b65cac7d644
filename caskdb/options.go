package caskdb

import (
	"time"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-caskdb/internal/appendlog"
	"github.com/0xRadioAc7iv/go-caskdb/internal/keydir"
)

type options struct {
	logger          *zap.Logger
	index           keydir.Kind
	syncOnWrite     bool
	writeBufferSize int
	now             func() time.Time
}

func defaultOptions() *options {
	return &options{
		logger:          zap.NewNop(),
		index:           keydir.KindHash,
		writeBufferSize: appendlog.DefaultWriteBufferSize,
		now:             time.Now,
	}
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIndex selects the key directory implementation. KindOrdered enables
// Range and sorted Keys.
func WithIndex(kind keydir.Kind) Option {
	return func(o *options) {
		o.index = kind
	}
}

// WithSyncOnWrite fsyncs the log after every Set and Delete.
func WithSyncOnWrite(enabled bool) Option {
	return func(o *options) {
		o.syncOnWrite = enabled
	}
}

func WithWriteBufferSize(n int) Option {
	return func(o *options) {
		o.writeBufferSize = n
	}
}

// WithClock replaces the source of record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
