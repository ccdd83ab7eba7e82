// Package config holds the runtime configuration for the card finder server.
//
// Configuration is layered: Default() provides the baseline, LoadFromFile
// overlays a JSON document, and ApplyEnv overlays CARD_FINDER_* environment
// variables. Validate must be called after the last layer is applied.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Matcher kinds accepted by MatchConfig.Matcher.
const (
	MatcherFLANN      = "flann"
	MatcherBruteForce = "bruteforce"
)

// Config holds the application configuration
type Config struct {
	Log    LogConfig    `json:"log"`
	Match  MatchConfig  `json:"match"`
	Server ServerConfig `json:"server"`
}

// LogConfig holds logging options
type LogConfig struct {
	Level string `json:"level"`
}

// MatchConfig holds the defaults applied when a caller omits thresholds
type MatchConfig struct {
	Threshold  float64 `json:"threshold"`
	MinMatches int     `json:"min_matches"`
	Matcher    string  `json:"matcher"`
}

// ServerConfig holds transport options
type ServerConfig struct {
	// MaxRequestBytes bounds a single JSON-RPC line on stdio. Requests carry
	// base64 images inline.
	MaxRequestBytes int    `json:"max_request_bytes"`
	HTTPAddr        string `json:"http_addr"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Match: MatchConfig{
			Threshold:  0.4,
			MinMatches: 4,
			Matcher:    MatcherFLANN,
		},
		Server: ServerConfig{
			MaxRequestBytes: 64 << 20,
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CARD_FINDER_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CARD_FINDER_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup("CARD_FINDER_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CARD_FINDER_THRESHOLD: %w", err)
		}
		c.Match.Threshold = f
	}
	if v, ok := lookup("CARD_FINDER_MIN_MATCHES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CARD_FINDER_MIN_MATCHES: %w", err)
		}
		c.Match.MinMatches = n
	}
	if v, ok := lookup("CARD_FINDER_MATCHER"); ok && v != "" {
		c.Match.Matcher = strings.ToLower(v)
	}
	if v, ok := lookup("CARD_FINDER_MAX_REQUEST_BYTES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CARD_FINDER_MAX_REQUEST_BYTES: %w", err)
		}
		c.Server.MaxRequestBytes = n
	}
	if v, ok := lookup("CARD_FINDER_HTTP_ADDR"); ok {
		c.Server.HTTPAddr = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if math.IsNaN(c.Match.Threshold) || c.Match.Threshold < 0 || c.Match.Threshold > 1 {
		return fmt.Errorf("default threshold must be between 0.0 and 1.0, got %v", c.Match.Threshold)
	}
	if c.Match.MinMatches < 1 {
		return fmt.Errorf("default min_matches must be at least 1, got %d", c.Match.MinMatches)
	}
	switch c.Match.Matcher {
	case MatcherFLANN, MatcherBruteForce:
	default:
		return fmt.Errorf("unknown matcher %q (want %s or %s)", c.Match.Matcher, MatcherFLANN, MatcherBruteForce)
	}
	if c.Server.MaxRequestBytes < 64*1024 {
		return fmt.Errorf("max_request_bytes must be at least 65536, got %d", c.Server.MaxRequestBytes)
	}
	return nil
}
