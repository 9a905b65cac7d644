package server

import (
	"errors"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-caskdb/internal/protocol"
)

// Backend is the store operations the server exposes. *caskdb.Store
// satisfies it.
type Backend interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
	Delete(key string) (bool, error)
	Exists(key string) bool
	Len() int
	Keys() []string
	Flush() error
}

var errInvalidCommand = errors.New("invalid command")

// Handler executes wire commands against a Backend.
type Handler struct {
	backend      Backend
	logger       *zap.Logger
	maxFrameSize int64
}

type HandlerOption func(*Handler)

// WithMaxFrameSize bounds the payload of one incoming command. A client
// that announces a larger command gets an error response and is
// disconnected. Zero or less keeps protocol.DefaultMaxFrameSize.
func WithMaxFrameSize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxFrameSize = n
		}
	}
}

func NewHandler(backend Backend, logger *zap.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		backend:      backend,
		logger:       logger,
		maxFrameSize: protocol.DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ServeConn reads commands from conn until the client disconnects and
// writes one response per command.
func (h *Handler) ServeConn(conn net.Conn) {
	defer conn.Close()

	logger := h.logger.With(zap.Stringer("remote", conn.RemoteAddr()))
	logger.Debug("client connected")

	for {
		command, err := protocol.DecodeCommandLimit(conn, h.maxFrameSize)
		if err != nil {
			if errors.Is(err, protocol.ErrFrameTooLarge) {
				logger.Warn("rejecting oversized command", zap.Error(err))
				_ = h.reply(conn, protocol.Error(err))
				return
			}
			if err != io.EOF {
				logger.Debug("dropping connection", zap.Error(err))
			}
			logger.Debug("client disconnected")
			return
		}

		resp := h.Handle(command)
		if resp.Status == protocol.StatusError {
			logger.Warn("command failed",
				zap.String("cmd", command.Cmd),
				zap.String("error", resp.Body),
			)
		}

		if err := h.reply(conn, resp); err != nil {
			logger.Debug("client disconnected", zap.Error(err))
			return
		}
	}
}

// Handle runs a single command.
func (h *Handler) Handle(command *protocol.Command) *protocol.Response {
	switch strings.ToLower(command.Cmd) {
	case protocol.CmdPing:
		return protocol.OK("PONG!")
	case protocol.CmdSet:
		return h.handleSet(command.Key, command.Val)
	case protocol.CmdGet:
		return h.handleGet(command.Key)
	case protocol.CmdDelete:
		return h.handleDelete(command.Key)
	case protocol.CmdExists:
		return protocol.OK(strconv.FormatBool(h.backend.Exists(command.Key)))
	case protocol.CmdCount:
		return protocol.OK(strconv.Itoa(h.backend.Len()))
	case protocol.CmdList:
		return h.handleList()
	case protocol.CmdFlush:
		if err := h.backend.Flush(); err != nil {
			return protocol.Error(err)
		}
		return protocol.OK("ok")
	default:
		return protocol.Error(errInvalidCommand)
	}
}

func (h *Handler) handleSet(key, value string) *protocol.Response {
	if err := h.backend.Set(key, value); err != nil {
		return protocol.Error(err)
	}
	return protocol.OK("ok")
}

func (h *Handler) handleGet(key string) *protocol.Response {
	value, ok, err := h.backend.Get(key)
	if err != nil {
		return protocol.Error(err)
	}
	if !ok {
		return protocol.Nil()
	}
	return protocol.OK(value)
}

func (h *Handler) handleDelete(key string) *protocol.Response {
	deleted, err := h.backend.Delete(key)
	if err != nil {
		return protocol.Error(err)
	}
	if !deleted {
		return protocol.Nil()
	}
	return protocol.OK("ok")
}

// handleList returns the keys sorted and newline separated.
func (h *Handler) handleList() *protocol.Response {
	keys := h.backend.Keys()
	sort.Strings(keys)
	return protocol.OK(strings.Join(keys, "\n"))
}

func (h *Handler) reply(conn net.Conn, resp *protocol.Response) error {
	encoded, err := protocol.EncodeResponse(resp)
	if err != nil {
		h.logger.Error("error encoding response", zap.Error(err))
		return err
	}

	_, err = conn.Write(encoded)
	return err
}
