package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"watchlist-trader/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Defaults returns a configuration that passes Validate.
func Defaults() *models.MConfig {
	return &models.MConfig{
		Name:     "watchlist-trader",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "info",
		GrpcHost: "127.0.0.1",
		GrpcPort: 50051,
		Backend: models.MBackendConfig{
			BaseURL:        "http://127.0.0.1:8000",
			RequestTimeout: 10,
			UserAgent:      "watchlist-trader/1.0",
		},
		Sync:         models.MSyncConfig{Mode: "push", PullIntervalSeconds: 2},
		Ledger:       models.MLedgerConfig{PollIntervalSeconds: 5},
		Subscription: models.MSubscriptionConfig{TestMode: "false"},
		Orders:       models.MOrdersConfig{SidePolicy: "implied"},
		Storage: models.MStorageConfig{
			Enabled: false,
			DBType:  "sqlite",
			DBPath:  "data/journal.db",
		},
		MockBroker: models.MMockBrokerConfig{
			Host:       "127.0.0.1",
			Port:       8000,
			Seed:       1,
			TickMillis: 1000,
			RiskBudget: 100,
		},
	}
}

// -----------------------------------------------------------------------------

// NewConfig reads the YAML file over the defaults, loads a .env file if one
// exists, applies WATCHLIST_* overrides and validates the result.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data on top of the defaults
	modelConfig := Defaults()
	if err := yaml.Unmarshal(data, modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	// 3. Environment overrides
	_ = godotenv.Load()
	applyEnvOverrides(modelConfig)

	config := &Config{MConfig: modelConfig}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Backend
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url cannot be empty")
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base_url: %q", c.Backend.BaseURL)
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Live data and ledger
	switch c.Sync.Mode {
	case "push", "pull":
	default:
		return fmt.Errorf("sync mode must be 'push' or 'pull', got %q", c.Sync.Mode)
	}
	if c.Sync.PullIntervalSeconds <= 0 {
		return fmt.Errorf("pull interval must be greater than 0")
	}
	if c.Ledger.PollIntervalSeconds <= 0 {
		return fmt.Errorf("ledger poll interval must be greater than 0")
	}

	switch strings.ToLower(c.Subscription.TestMode) {
	case "true", "false", "auto":
	default:
		return fmt.Errorf("subscription test_mode must be true, false or auto, got %q", c.Subscription.TestMode)
	}

	// Orders
	switch c.Orders.SidePolicy {
	case "implied", "free":
	default:
		return fmt.Errorf("orders side_policy must be 'implied' or 'free', got %q", c.Orders.SidePolicy)
	}
	if c.Orders.RiskBudget < 0 {
		return fmt.Errorf("risk budget cannot be negative")
	}

	// Journal
	if c.Storage.Enabled {
		switch c.Storage.DBType {
		case "sqlite":
			if c.Storage.DBPath == "" {
				return fmt.Errorf("database path cannot be empty for sqlite")
			}
		case "postgres":
			if c.Storage.DBConnectionString == "" {
				return fmt.Errorf("connection string cannot be empty for postgres")
			}
		default:
			return fmt.Errorf("unsupported database type: %q", c.Storage.DBType)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Derived values
// -----------------------------------------------------------------------------

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeout) * time.Second
}

func (c *Config) PullInterval() time.Duration {
	return time.Duration(c.Sync.PullIntervalSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Ledger.PollIntervalSeconds) * time.Second
}

// WatchlistStreamURL is the push endpoint, derived from base_url unless ws_url is set.
func (c *Config) WatchlistStreamURL() string {
	if c.Backend.WSURL != "" {
		return c.Backend.WSURL
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/watchlist"
	return u.String()
}
