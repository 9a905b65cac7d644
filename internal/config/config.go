// Package config holds the settings shared by the caskdb binaries and the
// client.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/0xRadioAc7iv/go-caskdb/internal/keydir"
	"github.com/0xRadioAc7iv/go-caskdb/internal/protocol"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 6969
	DefaultPath           = "./caskdb.db"
	DefaultLogLevel       = "info"
	DefaultWriteBufferKB  = 64
	DefaultClientTimeout  = 5 * time.Second
	DefaultConfigFilePath = "./caskdb.yml"
)

// Config configures a caskdb server.
type Config struct {
	Path            string
	Host            string
	Port            int
	LogLevel        string
	SyncOnWrite     bool
	Index           keydir.Kind
	WriteBufferSize int   // bytes
	MaxFrameSize    int64 // bytes
}

func Default() *Config {
	return &Config{
		Path:            DefaultPath,
		Host:            DefaultHost,
		Port:            DefaultPort,
		LogLevel:        DefaultLogLevel,
		Index:           keydir.KindHash,
		WriteBufferSize: DefaultWriteBufferKB * 1024,
		MaxFrameSize:    protocol.DefaultMaxFrameSize,
	}
}

// Parse reads YAML on top of the defaults. Keys missing from data keep
// their default value.
func Parse(data []byte) (*Config, error) {
	var aux struct {
		Path            string `yaml:"path"`
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		LogLevel        string `yaml:"log_level"`
		SyncOnWrite     string `yaml:"sync_on_write"`
		Index           string `yaml:"index"`
		WriteBufferSize int    `yaml:"write_buffer_kb"`
		MaxFrameSize    int64  `yaml:"max_frame_kb"`
	}

	if err := yaml.Unmarshal(data, &aux); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	c := Default()

	if aux.Path != "" {
		c.Path = aux.Path
	}
	if aux.Host != "" {
		c.Host = aux.Host
	}
	if aux.Port != 0 {
		c.Port = aux.Port
	}
	if aux.LogLevel != "" {
		c.LogLevel = aux.LogLevel
	}
	if aux.WriteBufferSize != 0 {
		c.WriteBufferSize = aux.WriteBufferSize * 1024
	}
	if aux.MaxFrameSize != 0 {
		c.MaxFrameSize = aux.MaxFrameSize * 1024
	}

	if aux.SyncOnWrite != "" {
		sync, err := strconv.ParseBool(aux.SyncOnWrite)
		if err != nil {
			return nil, fmt.Errorf("config: invalid value %q for sync_on_write", aux.SyncOnWrite)
		}
		c.SyncOnWrite = sync
	}

	kind, err := keydir.ParseKind(aux.Index)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.Index = kind

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Load parses the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return Parse(data)
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("config: path must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.WriteBufferSize <= 0 {
		return fmt.Errorf("config: invalid write buffer size %d", c.WriteBufferSize)
	}
	if c.MaxFrameSize <= 0 {
		return fmt.Errorf("config: invalid max frame size %d", c.MaxFrameSize)
	}
	return nil
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client configures a connection to a caskdb server.
type Client struct {
	Host            string
	Port            int
	Timeout         time.Duration
	MaxResponseSize int64
}

func DefaultClient() *Client {
	return &Client{
		Host:            DefaultHost,
		Port:            DefaultPort,
		Timeout:         DefaultClientTimeout,
		MaxResponseSize: protocol.DefaultMaxFrameSize,
	}
}

func (c *Client) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
