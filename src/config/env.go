package config

import (
	"os"
	"strconv"

	"watchlist-trader/src/models"
)

// applyEnvOverrides overwrites fields whose WATCHLIST_* variable is set.
func applyEnvOverrides(cfg *models.MConfig) {
	setStr(&cfg.Name, "WATCHLIST_NAME")
	setStr(&cfg.Host, "WATCHLIST_HOST")
	setInt(&cfg.Port, "WATCHLIST_PORT")
	setStr(&cfg.LogLevel, "WATCHLIST_LOG_LEVEL")
	setStr(&cfg.LogFile.Path, "WATCHLIST_LOG_FILE")
	setInt(&cfg.GrpcPort, "WATCHLIST_GRPC_PORT")

	// Backend
	setStr(&cfg.Backend.BaseURL, "WATCHLIST_BACKEND_BASE_URL")
	setStr(&cfg.Backend.WSURL, "WATCHLIST_BACKEND_WS_URL")
	setInt(&cfg.Backend.RequestTimeout, "WATCHLIST_BACKEND_TIMEOUT")
	setStr(&cfg.Backend.Proxy, "WATCHLIST_BACKEND_PROXY")

	// Sync / ledger
	setStr(&cfg.Sync.Mode, "WATCHLIST_SYNC_MODE")
	setInt(&cfg.Sync.PullIntervalSeconds, "WATCHLIST_SYNC_PULL_INTERVAL_SECONDS")
	setInt(&cfg.Ledger.PollIntervalSeconds, "WATCHLIST_LEDGER_POLL_INTERVAL_SECONDS")
	setStr(&cfg.Subscription.TestMode, "WATCHLIST_TEST_MODE")

	// Orders
	setStr(&cfg.Orders.SidePolicy, "WATCHLIST_ORDERS_SIDE_POLICY")
	setFloat64(&cfg.Orders.RiskBudget, "WATCHLIST_ORDERS_RISK_BUDGET")

	// Storage
	setBool(&cfg.Storage.Enabled, "WATCHLIST_STORAGE_ENABLED")
	setStr(&cfg.Storage.DBType, "WATCHLIST_STORAGE_DB_TYPE")
	setStr(&cfg.Storage.DBPath, "WATCHLIST_STORAGE_DB_PATH")
	setStr(&cfg.Storage.DBConnectionString, "WATCHLIST_STORAGE_DSN")

	// Mock broker
	setInt(&cfg.MockBroker.Port, "WATCHLIST_MOCK_BROKER_PORT")
	setInt64(&cfg.MockBroker.Seed, "WATCHLIST_MOCK_BROKER_SEED")
}

// -----------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the variable is
// present and parses.
// -----------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
