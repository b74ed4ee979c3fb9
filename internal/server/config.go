// Package server implements the TernDB network surfaces: the HTTP API and
// the line-based TCP protocol, both backed by a shared engine.
package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loadable from a YAML file.
// Command-line flags override individual fields.
type Config struct {
	// HTTPAddr is the listen address for the REST API (default ":8311").
	HTTPAddr string `yaml:"http_addr"`
	// TCPAddr is the listen address for the line protocol (default ":8310").
	// Empty disables the TCP listener.
	TCPAddr string `yaml:"tcp_addr"`
	// DataDir is where the engine stores its AOF and snapshots.
	DataDir string `yaml:"data_dir"`
	// AuthToken, when set, is required as a Bearer token on every HTTP
	// request except /healthz and /metrics.
	AuthToken string `yaml:"auth_token"`
	// MaxResults caps materialized query results per request
	// (default 10000). Clients can ask for less, never more.
	MaxResults int `yaml:"max_results"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:   ":8311",
		TCPAddr:    ":8310",
		DataDir:    "./data",
		MaxResults: 10000,
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8311"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10000
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	return cfg, nil
}

// clampLimit bounds a client-requested limit by the configured maximum.
// Zero or negative requests get the maximum.
func (c Config) clampLimit(requested int) int {
	if requested <= 0 || requested > c.MaxResults {
		return c.MaxResults
	}
	return requested
}
