package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Defaults for a relay process
const (
	DefaultPort           = 4000
	DefaultSendBuffer     = 256
	DefaultMaxMessageSize = 4096
)

// Ngrok configures the optional public tunnel
type Ngrok struct {
	Enabled   bool   `json:"enabled"`
	AuthToken string `json:"auth_token,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// Config holds the settings of a relay server process
type Config struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	Debug          bool     `json:"debug"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	SendBuffer     int      `json:"send_buffer"`
	MaxMessageSize int64    `json:"max_message_size"`
	Ngrok          Ngrok    `json:"ngrok"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		SendBuffer:     DefaultSendBuffer,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// Load reads a JSON file and overlays it on the defaults.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start a server
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("%w: send buffer must be positive, got %d", ErrInvalidConfig, c.SendBuffer)
	}
	if c.MaxMessageSize < 1 {
		return fmt.Errorf("%w: max message size must be positive, got %d", ErrInvalidConfig, c.MaxMessageSize)
	}
	for _, origin := range c.AllowedOrigins {
		if origin != "*" && !strings.Contains(origin, "://") {
			return fmt.Errorf("%w: origin %q must include a scheme", ErrInvalidConfig, origin)
		}
	}
	if c.Ngrok.Enabled && c.Ngrok.AuthToken == "" {
		return fmt.Errorf("%w: ngrok enabled without an auth token", ErrInvalidConfig)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ParseOrigins splits a comma-separated origin list, dropping blanks
func ParseOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
