package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Framing modes understood by the receiver
const (
	FramingDelimited = "delimited"
	FramingRaw       = "raw"
)

// Config represents the follower configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Receiver ReceiverConfig `yaml:"receiver" json:"receiver"`
	Applier  ApplierConfig  `yaml:"applier" json:"applier"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	ZeroMQ   ZeroMQConfig   `yaml:"zeromq" json:"zeromq"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ReceiverConfig holds the TCP receiver settings
type ReceiverConfig struct {
	Address                string `yaml:"address" json:"address"`
	ChunkSize              int    `yaml:"chunk_size" json:"chunk_size"`
	Framing                string `yaml:"framing" json:"framing"`
	Delimiter              string `yaml:"delimiter" json:"delimiter"`
	MaxFrameSize           int    `yaml:"max_frame_size" json:"max_frame_size"`
	DialTimeoutMs          int    `yaml:"dial_timeout_ms" json:"dial_timeout_ms"`
	ReadTimeoutMs          int    `yaml:"read_timeout_ms" json:"read_timeout_ms"`
	ReconnectIntervalMs    int    `yaml:"reconnect_interval_ms" json:"reconnect_interval_ms"`
	MaxReconnectIntervalMs int    `yaml:"max_reconnect_interval_ms" json:"max_reconnect_interval_ms"`
	MaxAttempts            int    `yaml:"max_attempts" json:"max_attempts"`
}

// ApplierConfig holds the frame loop settings
type ApplierConfig struct {
	FrameRateHz int `yaml:"frame_rate_hz" json:"frame_rate_hz"`
}

// ServerConfig holds HTTP status server configuration.
// A port of 0 disables the server.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" json:"http_port"`
}

// ZeroMQConfig holds the orientation fan-out settings.
// An empty bind address disables publishing.
type ZeroMQConfig struct {
	PublishBindAddress string `yaml:"publish_bind_address" json:"publish_bind_address"`
	Topic              string `yaml:"topic" json:"topic"`
}

// Default returns the configuration used when no file is present.
// The receiver address matches the bridge's fixed endpoint.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Receiver: ReceiverConfig{
			Address:                "localhost:65432",
			ChunkSize:              1024,
			Framing:                FramingDelimited,
			Delimiter:              "#",
			MaxFrameSize:           4096,
			DialTimeoutMs:          2000,
			ReadTimeoutMs:          0,
			ReconnectIntervalMs:    500,
			MaxReconnectIntervalMs: 10000,
			MaxAttempts:            0,
		},
		Applier: ApplierConfig{
			FrameRateHz: 60,
		},
		Server: ServerConfig{
			HTTPPort: 8080,
		},
		ZeroMQ: ZeroMQConfig{
			Topic: "follower.orientation",
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// Fields missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Receiver.Address == "" {
		return fmt.Errorf("missing required field in config: receiver.address")
	}
	if c.Receiver.ChunkSize <= 0 {
		return fmt.Errorf("invalid value in config: receiver.chunk_size must be positive, got %d", c.Receiver.ChunkSize)
	}
	switch c.Receiver.Framing {
	case FramingRaw:
	case FramingDelimited:
		if c.Receiver.Delimiter == "" {
			return fmt.Errorf("missing required field in config: receiver.delimiter")
		}
		if c.Receiver.MaxFrameSize <= 0 {
			return fmt.Errorf("invalid value in config: receiver.max_frame_size must be positive, got %d", c.Receiver.MaxFrameSize)
		}
	default:
		return fmt.Errorf("invalid value in config: receiver.framing must be %q or %q, got %q",
			FramingDelimited, FramingRaw, c.Receiver.Framing)
	}
	if c.Receiver.ReconnectIntervalMs <= 0 {
		return fmt.Errorf("invalid value in config: receiver.reconnect_interval_ms must be positive, got %d", c.Receiver.ReconnectIntervalMs)
	}
	if c.Receiver.MaxReconnectIntervalMs < c.Receiver.ReconnectIntervalMs {
		return fmt.Errorf("invalid value in config: receiver.max_reconnect_interval_ms (%d) is below reconnect_interval_ms (%d)",
			c.Receiver.MaxReconnectIntervalMs, c.Receiver.ReconnectIntervalMs)
	}
	if c.Receiver.MaxAttempts < 0 || c.Receiver.ReadTimeoutMs < 0 || c.Receiver.DialTimeoutMs < 0 {
		return fmt.Errorf("invalid value in config: receiver timeouts and max_attempts cannot be negative")
	}
	if c.Applier.FrameRateHz <= 0 {
		return fmt.Errorf("invalid value in config: applier.frame_rate_hz must be positive, got %d", c.Applier.FrameRateHz)
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid value in config: server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.ZeroMQ.PublishBindAddress != "" && c.ZeroMQ.Topic == "" {
		return fmt.Errorf("missing required field in config: zeromq.topic")
	}
	return nil
}

// FrameInterval is the period between two applier polls
func (a ApplierConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(a.FrameRateHz)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// DialTimeout returns the dial timeout as a duration
func (r ReceiverConfig) DialTimeout() time.Duration { return millis(r.DialTimeoutMs) }

// ReadTimeout returns the per-read deadline, zero meaning none
func (r ReceiverConfig) ReadTimeout() time.Duration { return millis(r.ReadTimeoutMs) }

// ReconnectInterval returns the initial backoff
func (r ReceiverConfig) ReconnectInterval() time.Duration { return millis(r.ReconnectIntervalMs) }

// MaxReconnectInterval returns the backoff ceiling
func (r ReceiverConfig) MaxReconnectInterval() time.Duration { return millis(r.MaxReconnectIntervalMs) }
