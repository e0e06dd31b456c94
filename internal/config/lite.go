// Package config provides configuration management for the interpreter servers.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external database: reference data lives in SQLite under DataDir.
type LiteConfig struct {
	// Data storage
	DataDir  string // Base directory for data files
	SeedFile string // Optional dataset file; empty uses the embedded dataset

	// Interpretation
	MatchPolicy string // strict or first
	CacheSize   int    // Reference row cache entries; 0 disables the cache

	// Transport settings
	Transport string // Transport type: stdio, http
	HTTPPort  int    // HTTP port (if transport is http)

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".pgx-interpreter")

	return &LiteConfig{
		DataDir:     dataDir,
		MatchPolicy: string(domain.MatchStrict),
		Transport:   "stdio",
		HTTPPort:    8080,
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("PGX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.SeedFile = os.Getenv("PGX_SEED_FILE")

	if v := os.Getenv("PGX_MATCH_POLICY"); v != "" {
		cfg.MatchPolicy = v
	}
	if v := os.Getenv("PGX_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CacheSize = n
		}
	}

	// Transport
	if v := os.Getenv("PGX_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("PGX_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	// Logging
	if v := os.Getenv("PGX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PGX_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// ReferenceDBPath returns the path to the reference SQLite database.
func (c *LiteConfig) ReferenceDBPath() string {
	return filepath.Join(c.DataDir, "reference.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// Logging returns the logging section equivalent of the lite settings.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	// stdout carries the stdio protocol stream.
	return domain.LoggingConfig{Level: c.LogLevel, Format: c.LogFormat, Output: "stderr"}
}

// Store returns the store section equivalent of the lite settings. The breaker uses
// the same defaults as the full server.
func (c *LiteConfig) Store() domain.StoreConfig {
	return domain.StoreConfig{
		Driver:      "sqlite",
		SQLitePath:  c.ReferenceDBPath(),
		MatchPolicy: c.MatchPolicy,
		Breaker: domain.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
		Cache: domain.ReferenceCacheConfig{Size: c.CacheSize, TTL: time.Hour},
	}
}
