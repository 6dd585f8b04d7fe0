package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket API
	ClobBaseURL  string
	DataBaseURL  string
	GammaBaseURL string
	WSURL        string

	// Credentials
	APIKey       string
	Secret       string
	Passphrase   string
	PrivateKey   string
	OwnerAddress string

	// Fill ledger
	SQLitePath        string
	RemoteRequestsSec float64
	RemoteTimeout     time.Duration

	// Quotes
	QuotePollInterval time.Duration
	StreamEnabled     bool

	// Market discovery
	MarketLimit        int
	MarketPollInterval time.Duration
	MetadataTTL        time.Duration

	// Portfolio snapshots
	SnapshotInterval time.Duration

	// Arbitrage detection
	MinMargin      float64
	SizePerOutcome float64

	// Execution
	ExecutionMode string

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Polymarket API defaults
		ClobBaseURL:  getEnvOrDefault("CLOB_BASE_URL", "https://clob.polymarket.com"),
		DataBaseURL:  getEnvOrDefault("DATA_BASE_URL", "https://data-api.polymarket.com"),
		GammaBaseURL: getEnvOrDefault("GAMMA_BASE_URL", "https://gamma-api.polymarket.com"),
		WSURL:        getEnvOrDefault("WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),

		// Credentials (no defaults)
		APIKey:       os.Getenv("POLYMARKET_API_KEY"),
		Secret:       os.Getenv("POLYMARKET_SECRET"),
		Passphrase:   os.Getenv("POLYMARKET_PASSPHRASE"),
		PrivateKey:   os.Getenv("POLYMARKET_PRIVATE_KEY"),
		OwnerAddress: os.Getenv("OWNER_ADDRESS"),

		// Fill ledger defaults
		SQLitePath:        getEnvOrDefault("SQLITE_PATH", "pm-ledger.db"),
		RemoteRequestsSec: getFloat64OrDefault("REMOTE_REQUESTS_PER_SEC", 5.0),
		RemoteTimeout:     getDurationOrDefault("REMOTE_TIMEOUT", 10*time.Second),

		// Quote defaults
		QuotePollInterval: getDurationOrDefault("QUOTE_POLL_INTERVAL", 5*time.Second),
		StreamEnabled:     getBoolOrDefault("STREAM_ENABLED", false),

		// Market discovery defaults
		MarketLimit:        getIntOrDefault("MARKET_LIMIT", 50),
		MarketPollInterval: getDurationOrDefault("MARKET_POLL_INTERVAL", time.Minute),
		MetadataTTL:        getDurationOrDefault("METADATA_TTL", 24*time.Hour),

		// Portfolio snapshot defaults
		SnapshotInterval: getDurationOrDefault("SNAPSHOT_INTERVAL", time.Minute),

		// Arbitrage defaults
		MinMargin:      getFloat64OrDefault("ARB_MIN_MARGIN", 0.005),
		SizePerOutcome: getFloat64OrDefault("ARB_SIZE_PER_OUTCOME", 10.0),

		// Execution defaults
		ExecutionMode: getEnvOrDefault("EXECUTION_MODE", "paper"),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "ledger"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "ledger123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "pm_ledger"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.ClobBaseURL == "" {
		return fmt.Errorf("CLOB_BASE_URL cannot be empty")
	}

	if c.GammaBaseURL == "" {
		return fmt.Errorf("GAMMA_BASE_URL cannot be empty")
	}

	if c.QuotePollInterval <= 0 {
		return fmt.Errorf("QUOTE_POLL_INTERVAL must be positive, got %s", c.QuotePollInterval)
	}

	if c.MinMargin < 0 || c.MinMargin >= 1.0 {
		return fmt.Errorf("ARB_MIN_MARGIN must be in [0, 1.0), got %f", c.MinMargin)
	}

	if c.SizePerOutcome <= 0 {
		return fmt.Errorf("ARB_SIZE_PER_OUTCOME must be positive, got %f", c.SizePerOutcome)
	}

	if c.MarketLimit < 0 {
		return fmt.Errorf("MARKET_LIMIT must be non-negative (0 = unlimited), got %d", c.MarketLimit)
	}

	if c.MarketPollInterval <= 0 {
		return fmt.Errorf("MARKET_POLL_INTERVAL must be positive, got %s", c.MarketPollInterval)
	}

	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("SNAPSHOT_INTERVAL must be positive, got %s", c.SnapshotInterval)
	}

	if c.ExecutionMode != "paper" && c.ExecutionMode != "live" {
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	if c.ExecutionMode == "live" {
		if c.APIKey == "" || c.Secret == "" || c.Passphrase == "" {
			return fmt.Errorf("live mode requires POLYMARKET_API_KEY, POLYMARKET_SECRET and POLYMARKET_PASSPHRASE")
		}
		if c.PrivateKey == "" {
			return fmt.Errorf("live mode requires POLYMARKET_PRIVATE_KEY")
		}
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
