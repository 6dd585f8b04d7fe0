package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "https://clob.polymarket.com", cfg.ClobBaseURL)
	assert.Equal(t, "https://data-api.polymarket.com", cfg.DataBaseURL)
	assert.Equal(t, "pm-ledger.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.QuotePollInterval)
	assert.Equal(t, 0.005, cfg.MinMargin)
	assert.Equal(t, "paper", cfg.ExecutionMode)
	assert.Equal(t, "console", cfg.StorageMode)
	assert.False(t, cfg.StreamEnabled)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("QUOTE_POLL_INTERVAL", "250ms")
	t.Setenv("ARB_MIN_MARGIN", "0.02")
	t.Setenv("MARKET_LIMIT", "0")
	t.Setenv("STREAM_ENABLED", "true")
	t.Setenv("SQLITE_PATH", "/tmp/fills.db")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.QuotePollInterval)
	assert.Equal(t, 0.02, cfg.MinMargin)
	assert.Equal(t, 0, cfg.MarketLimit)
	assert.True(t, cfg.StreamEnabled)
	assert.Equal(t, "/tmp/fills.db", cfg.SQLitePath)
}

func TestLoadFromEnvMalformedValuesFallBack(t *testing.T) {
	t.Setenv("QUOTE_POLL_INTERVAL", "soon")
	t.Setenv("ARB_MIN_MARGIN", "plenty")
	t.Setenv("MARKET_LIMIT", "many")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.QuotePollInterval)
	assert.Equal(t, 0.005, cfg.MinMargin)
	assert.Equal(t, 50, cfg.MarketLimit)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:           "8080",
			ClobBaseURL:        "https://clob.polymarket.com",
			GammaBaseURL:       "https://gamma-api.polymarket.com",
			QuotePollInterval:  5 * time.Second,
			MinMargin:          0.005,
			SizePerOutcome:     10,
			MarketLimit:        50,
			MarketPollInterval: time.Minute,
			SnapshotInterval:   time.Minute,
			ExecutionMode:      "paper",
			StorageMode:        "console",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid-config",
			mutate: func(_ *Config) {},
		},
		{
			name:    "empty-http-port",
			mutate:  func(c *Config) { c.HTTPPort = "" },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "zero-poll-interval",
			mutate:  func(c *Config) { c.QuotePollInterval = 0 },
			wantErr: "QUOTE_POLL_INTERVAL",
		},
		{
			name:    "margin-at-one",
			mutate:  func(c *Config) { c.MinMargin = 1.0 },
			wantErr: "ARB_MIN_MARGIN",
		},
		{
			name:    "negative-market-limit",
			mutate:  func(c *Config) { c.MarketLimit = -1 },
			wantErr: "MARKET_LIMIT",
		},
		{
			name:    "unknown-execution-mode",
			mutate:  func(c *Config) { c.ExecutionMode = "dry-run" },
			wantErr: "EXECUTION_MODE",
		},
		{
			name:    "unknown-storage-mode",
			mutate:  func(c *Config) { c.StorageMode = "redis" },
			wantErr: "STORAGE_MODE",
		},
		{
			name:    "live-mode-without-credentials",
			mutate:  func(c *Config) { c.ExecutionMode = "live" },
			wantErr: "live mode requires",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLiveModeWithCredentials(t *testing.T) {
	cfg := &Config{
		HTTPPort:           "8080",
		ClobBaseURL:        "https://clob.polymarket.com",
		GammaBaseURL:       "https://gamma-api.polymarket.com",
		QuotePollInterval:  5 * time.Second,
		MinMargin:          0.005,
		SizePerOutcome:     10,
		MarketPollInterval: time.Minute,
		SnapshotInterval:   time.Minute,
		ExecutionMode:      "live",
		StorageMode:        "console",
		APIKey:             "key",
		Secret:             "secret",
		Passphrase:         "phrase",
		PrivateKey:         "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	}
	require.NoError(t, cfg.Validate())
}
