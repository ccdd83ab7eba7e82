package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.4, cfg.Match.Threshold)
	assert.Equal(t, 4, cfg.Match.MinMatches)
	assert.Equal(t, MatcherFLANN, cfg.Match.Matcher)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"match":{"threshold":0.7,"matcher":"bruteforce"}}`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Match.Threshold)
	assert.Equal(t, MatcherBruteForce, cfg.Match.Matcher)
	// untouched fields keep their defaults
	assert.Equal(t, 4, cfg.Match.MinMatches)
	assert.Equal(t, 64<<20, cfg.Server.MaxRequestBytes)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"CARD_FINDER_LOG_LEVEL":         "DEBUG",
		"CARD_FINDER_THRESHOLD":         "0.55",
		"CARD_FINDER_MIN_MATCHES":       "10",
		"CARD_FINDER_MATCHER":           "BruteForce",
		"CARD_FINDER_MAX_REQUEST_BYTES": "1048576",
		"CARD_FINDER_HTTP_ADDR":         ":9090",
	}))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.55, cfg.Match.Threshold)
	assert.Equal(t, 10, cfg.Match.MinMatches)
	assert.Equal(t, MatcherBruteForce, cfg.Match.Matcher)
	assert.Equal(t, 1048576, cfg.Server.MaxRequestBytes)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_ParseErrors(t *testing.T) {
	for _, key := range []string{"CARD_FINDER_THRESHOLD", "CARD_FINDER_MIN_MATCHES", "CARD_FINDER_MAX_REQUEST_BYTES"} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(envMap(map[string]string{key: "nope"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
		{"threshold below range", func(c *Config) { c.Match.Threshold = -0.1 }},
		{"threshold above range", func(c *Config) { c.Match.Threshold = 1.01 }},
		{"threshold NaN", func(c *Config) { c.Match.Threshold = math.NaN() }},
		{"min matches", func(c *Config) { c.Match.MinMatches = 0 }},
		{"matcher", func(c *Config) { c.Match.Matcher = "orb" }},
		{"request bytes", func(c *Config) { c.Server.MaxRequestBytes = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv_NaNThresholdFailsValidation(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.applyEnv(envMap(map[string]string{"CARD_FINDER_THRESHOLD": "NaN"})))
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
}
