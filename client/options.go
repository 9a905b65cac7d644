package client

import (
	"time"

	"github.com/0xRadioAc7iv/go-caskdb/internal/config"
)

type Option func(*config.Client)

func WithHost(host string) Option {
	return func(c *config.Client) {
		c.Host = host
	}
}

func WithPort(port int) Option {
	return func(c *config.Client) {
		c.Port = port
	}
}

// WithTimeout bounds dialing and every request/response round trip. Zero
// disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *config.Client) {
		c.Timeout = d
	}
}

// WithMaxResponseSize bounds the body of one server response. A larger
// response fails with protocol.ErrFrameTooLarge and the client should be
// closed.
func WithMaxResponseSize(n int64) Option {
	return func(c *config.Client) {
		if n > 0 {
			c.MaxResponseSize = n
		}
	}
}
