package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/caarlos0/env/v6"
)

// RedisConfig holds connection settings for the activity stream backend.
type RedisConfig struct {
	Enabled         bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host            string `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string `env:"REDIS_PORT" envDefault:"6379"`
	Password        string `env:"REDIS_PASSWORD"`
	Database        int    `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool   `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime string `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime string `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// GetAddr returns host:port
func (c RedisConfig) GetAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// RealtimeConfig holds configuration for the websocket feed.
type RealtimeConfig struct {
	// WebSocketPath is the prefix the per-collection feed is mounted under.
	WebSocketPath string `env:"WEBSOCKET_PATH" envDefault:"/ws/collections"`

	// ClientSendChannelBuffer is the per-connection event buffer. Events
	// are dropped for a client whose buffer is full.
	ClientSendChannelBuffer int `env:"CLIENT_SEND_CHANNEL_BUFFER" envDefault:"16"`
}

// Config holds all configuration for the playground module.
type Config struct {
	Redis    RedisConfig
	Realtime RealtimeConfig

	ActivityStreamMaxLen int64 `env:"ACTIVITY_STREAM_MAX_LEN" envDefault:"500"`
	DefaultPageSize      int   `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
	MaxPageSize          int   `env:"MAX_PAGE_SIZE" envDefault:"100"`
	EntryFilterMaxLen    int   `env:"ENTRY_FILTER_MAX_LEN" envDefault:"512"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load playground configuration from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.DefaultPageSize <= 0 || c.MaxPageSize <= 0 {
		return errors.New("page sizes must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return errors.New("default_page_size cannot exceed max_page_size")
	}
	if c.ActivityStreamMaxLen <= 0 {
		return errors.New("activity_stream_max_len must be positive")
	}
	if c.EntryFilterMaxLen <= 0 {
		return errors.New("entry_filter_max_len must be positive")
	}
	if c.Realtime.ClientSendChannelBuffer <= 0 {
		c.Realtime.ClientSendChannelBuffer = 16
	}
	return nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Host:            "localhost",
			Port:            "6379",
			MaxRetries:      3,
			PoolSize:        10,
			MinIdleConns:    2,
			ConnMaxIdleTime: "30m",
			ConnMaxLifetime: "1h",
		},
		Realtime: RealtimeConfig{
			WebSocketPath:           "/ws/collections",
			ClientSendChannelBuffer: 16,
		},
		ActivityStreamMaxLen: 500,
		DefaultPageSize:      10,
		MaxPageSize:          100,
		EntryFilterMaxLen:    512,
	}
}
