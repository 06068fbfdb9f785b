// Package config loads dns-mcp configuration from defaults, TOML files,
// environment variables and command-line flags, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/dns-mcp/internal/common"
	"github.com/bobmcallan/dns-mcp/internal/telemetry"
)

// Supported transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig         `toml:"server"`
	Provider  ProviderConfig       `toml:"provider"`
	Logging   common.LoggingConfig `toml:"logging"`
	Telemetry telemetry.Config     `toml:"telemetry"`
}

// ServerConfig contains MCP server settings.
type ServerConfig struct {
	Name      string `toml:"name" env:"DNS_MCP_SERVER_NAME"`
	Transport string `toml:"transport" env:"DNS_MCP_TRANSPORT"`
	Host      string `toml:"host" env:"DNS_MCP_HOST"`
	Port      int    `toml:"port" env:"DNS_MCP_PORT"`
}

// Addr returns the host:port listen address for the HTTP transport.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderConfig contains settings for the upstream DNS data provider.
type ProviderConfig struct {
	BaseURL          string `toml:"base_url" env:"DNS_MCP_PROVIDER_URL"`
	Timeout          string `toml:"timeout" env:"DNS_MCP_PROVIDER_TIMEOUT"`
	MaxResponseBytes int64  `toml:"max_response_bytes" env:"DNS_MCP_MAX_RESPONSE_BYTES"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return defaultProviderTimeout
	}
	return d
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies DNS_MCP_* environment variable overrides to config.
// Unset variables leave the current value untouched.
func applyEnvOverrides(config *Config) error {
	if err := env.Parse(&config.Server); err != nil {
		return fmt.Errorf("invalid server environment: %w", err)
	}
	if err := env.Parse(&config.Provider); err != nil {
		return fmt.Errorf("invalid provider environment: %w", err)
	}
	if err := env.Parse(&config.Logging); err != nil {
		return fmt.Errorf("invalid logging environment: %w", err)
	}
	if err := env.Parse(&config.Telemetry); err != nil {
		return fmt.Errorf("invalid telemetry environment: %w", err)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, transport string, port int, host string) {
	if transport != "" {
		config.Server.Transport = transport
	}
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks that the configuration can be served.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Server.Transport) {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unsupported transport %q (want %s or %s)", c.Server.Transport, TransportStdio, TransportHTTP)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return fmt.Errorf("provider base_url must not be empty")
	}
	if c.Provider.MaxResponseBytes <= 0 {
		return fmt.Errorf("provider max_response_bytes must be positive, got %d", c.Provider.MaxResponseBytes)
	}
	if err := c.Logging.ValidateFormat(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}
