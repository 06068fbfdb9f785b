package config

import (
	"time"

	"github.com/bobmcallan/dns-mcp/internal/common"
)

// DefaultProviderURL is the HackerTarget DNS lookup endpoint.
const DefaultProviderURL = "https://api.hackertarget.com/dnslookup/"

const defaultProviderTimeout = 30 * time.Second

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "dns-mcp",
			Transport: TransportStdio,
			Host:      "localhost",
			Port:      4250,
		},
		Provider: ProviderConfig{
			BaseURL:          DefaultProviderURL,
			Timeout:          "30s",
			MaxResponseBytes: 1 << 20,
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Format:     common.FormatText,
			Outputs:    []string{"console"},
			FilePath:   "logs/dns-mcp.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
