package models

// MConfig Structure
type MConfig struct {
	Name         string              `yaml:"name"`
	Host         string              `yaml:"host"`
	Port         int                 `yaml:"port"`
	LogLevel     string              `yaml:"log_level"`
	LogFile      MLogFileConfig      `yaml:"log_file"`
	GrpcHost     string              `yaml:"grpc_host"`
	GrpcPort     int                 `yaml:"grpc_port"`
	Backend      MBackendConfig      `yaml:"backend"`
	Sync         MSyncConfig         `yaml:"sync"`
	Ledger       MLedgerConfig       `yaml:"ledger"`
	Subscription MSubscriptionConfig `yaml:"subscription"`
	Orders       MOrdersConfig       `yaml:"orders"`
	Storage      MStorageConfig      `yaml:"storage"`
	MockBroker   MMockBrokerConfig   `yaml:"mock_broker"`
}

// MLogFileConfig enables rotated file output next to stdout. Empty Path disables it.
type MLogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type MBackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	WSURL          string `yaml:"ws_url"` // derived from base_url when empty
	RequestTimeout int    `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
	Proxy          string `yaml:"proxy"`
}

type MSyncConfig struct {
	Mode                string `yaml:"mode"` // "push" or "pull"
	PullIntervalSeconds int    `yaml:"pull_interval_seconds"`
}

type MLedgerConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

type MSubscriptionConfig struct {
	TestMode string `yaml:"test_mode"` // "true", "false" or "auto"
}

type MOrdersConfig struct {
	SidePolicy string  `yaml:"side_policy"` // "implied" or "free"
	RiskBudget float64 `yaml:"risk_budget"` // 0 disables sizing
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MMockBrokerConfig struct {
	Host       string  `yaml:"host"`
	Port       int     `yaml:"port"`
	Seed       int64   `yaml:"seed"`
	TickMillis int     `yaml:"tick_millis"`
	RiskBudget float64 `yaml:"risk_budget"`
}
