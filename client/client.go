package client

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-caskdb/internal/config"
	"github.com/0xRadioAc7iv/go-caskdb/internal/protocol"
)

// ServerError is an error reported by the server for a single command. The
// connection stays usable.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "caskdb server: " + e.Message
}

// Client is one connection to a server. It is safe for concurrent use;
// requests are sent one at a time.
type Client struct {
	mu              sync.Mutex
	conn            net.Conn
	timeout         time.Duration
	maxResponseSize int64
}

func Connect(opts ...Option) (*Client, error) {
	cfg := config.DefaultClient()

	for _, opt := range opts {
		opt(cfg)
	}

	conn, err := net.DialTimeout("tcp", cfg.Addr(), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:            conn,
		timeout:         cfg.Timeout,
		maxResponseSize: cfg.MaxResponseSize,
	}, nil
}

func (c *Client) Ping() error {
	_, err := c.expectOK(protocol.CmdPing, "", "")
	return err
}

func (c *Client) Set(key, value string) error {
	_, err := c.expectOK(protocol.CmdSet, key, value)
	return err
}

// Get returns the value for key. The boolean is false when the key does not
// exist.
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.Execute(protocol.CmdGet, key, "")
	if err != nil {
		return "", false, err
	}

	switch resp.Status {
	case protocol.StatusNil:
		return "", false, nil
	case protocol.StatusOK:
		return resp.Body, true, nil
	default:
		return "", false, responseError(resp)
	}
}

// Delete reports whether the key existed.
func (c *Client) Delete(key string) (bool, error) {
	resp, err := c.Execute(protocol.CmdDelete, key, "")
	if err != nil {
		return false, err
	}

	switch resp.Status {
	case protocol.StatusNil:
		return false, nil
	case protocol.StatusOK:
		return true, nil
	default:
		return false, responseError(resp)
	}
}

func (c *Client) Exists(key string) (bool, error) {
	body, err := c.expectOK(protocol.CmdExists, key, "")
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(body)
}

func (c *Client) Count() (int, error) {
	body, err := c.expectOK(protocol.CmdCount, "", "")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(body)
}

// List returns every key on the server in ascending order.
func (c *Client) List() ([]string, error) {
	body, err := c.expectOK(protocol.CmdList, "", "")
	if err != nil {
		return nil, err
	}
	if body == "" {
		return []string{}, nil
	}
	return strings.Split(body, "\n"), nil
}

// Flush asks the server to make every write so far durable.
func (c *Client) Flush() error {
	_, err := c.expectOK(protocol.CmdFlush, "", "")
	return err
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute sends a raw command and returns the server's response unchanged.
func (c *Client) Execute(cmd, key, value string) (*protocol.Response, error) {
	payload, err := protocol.EncodeCommand(cmd, key, value)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
	}

	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("client: send %s: %w", cmd, err)
	}

	resp, err := protocol.DecodeResponseLimit(c.conn, c.maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("client: read %s response: %w", cmd, err)
	}

	return resp, nil
}

func (c *Client) expectOK(cmd, key, value string) (string, error) {
	resp, err := c.Execute(cmd, key, value)
	if err != nil {
		return "", err
	}
	if resp.Status != protocol.StatusOK {
		return "", responseError(resp)
	}
	return resp.Body, nil
}

func responseError(resp *protocol.Response) error {
	if resp.Status == protocol.StatusError {
		return &ServerError{Message: resp.Body}
	}
	return &ServerError{Message: "unexpected " + resp.Status.String() + " response"}
}
