// Package config defines the top-level configuration for the trend bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by TRENDBOT_* environment variables.
type Config struct {
	Binance  BinanceConfig  `toml:"binance"`
	Loop     LoopConfig     `toml:"loop"`
	Strategy StrategyConfig `toml:"strategy"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	TradeLog TradeLogConfig `toml:"trade_log"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BinanceConfig holds exchange endpoints and credentials.
type BinanceConfig struct {
	RESTHost string `toml:"rest_host"`
	WSHost   string `toml:"ws_host"`
	APIKey   string `toml:"api_key"`

	// APISecret is the plaintext secret. Alternatively set
	// encrypted_secret_path plus secret_password.
	APISecret           string `toml:"api_secret"`
	EncryptedSecretPath string `toml:"encrypted_secret_path"`
	SecretPassword      string `toml:"secret_password"`
}

// LoopConfig holds the control-loop timing parameters.
type LoopConfig struct {
	Symbol        string   `toml:"symbol"`
	KlineInterval string   `toml:"kline_interval"`
	Warmup        duration `toml:"warmup"`
	Cadence       duration `toml:"cadence"`
	OrderTimeout  duration `toml:"order_timeout"`
}

// StrategyConfig holds order-plan sizing parameters.
type StrategyConfig struct {
	NotionalPerOrder float64 `toml:"notional_per_order"`
	LadderRungs      int     `toml:"ladder_rungs"`
	LadderStepPct    float64 `toml:"ladder_step_pct"`
	QuoteOffsetPct   float64 `toml:"quote_offset_pct"`
	GridStepPct      float64 `toml:"grid_step_pct"`

	// PositionUpdates selects when intents mutate the tracked position:
	// "optimistic" applies every intent, "confirmed" only accepted ones.
	PositionUpdates string `toml:"position_updates"`
}

// PostgresConfig holds PostgreSQL connection parameters. Leave enabled=false
// to run without durable trade storage.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Leave enabled=false to run
// without the market cache and signal bus.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls trade-log archival from Postgres to S3.
type ArchiveConfig struct {
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// TradeLogConfig controls the local CSV trade log.
type TradeLogConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "500ms", "3s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Binance: BinanceConfig{
			RESTHost: "https://api.binance.com",
			WSHost:   "wss://stream.binance.com:9443",
		},
		Loop: LoopConfig{
			Symbol:        "BTCUSDT",
			KlineInterval: "1s",
			Warmup:        duration{3 * time.Second},
			Cadence:       duration{500 * time.Millisecond},
			OrderTimeout:  duration{5 * time.Second},
		},
		Strategy: StrategyConfig{
			NotionalPerOrder: 10,
			LadderRungs:      5,
			LadderStepPct:    0.001,
			QuoteOffsetPct:   0.001,
			GridStepPct:      0.002,
			PositionUpdates:  "optimistic",
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "trendbot",
			User:          "trendbot",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "trendbot-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		TradeLog: TradeLogConfig{
			Enabled: true,
			Dir:     "trade_logs",
		},
		Notify: NotifyConfig{
			Events: []string{"signal_flip", "order_failure", "feed_down"},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade": true,
	"paper": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, paper)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Binance credentials are required only when orders actually hit the
	// exchange.
	if strings.ToLower(c.Mode) == "trade" {
		if c.Binance.APIKey == "" {
			errs = append(errs, "binance: api_key is required for mode trade")
		}
		if c.Binance.APISecret == "" && c.Binance.EncryptedSecretPath == "" {
			errs = append(errs, "binance: either api_secret or encrypted_secret_path must be set for mode trade")
		}
		if c.Binance.EncryptedSecretPath != "" && c.Binance.SecretPassword == "" {
			errs = append(errs, "binance: secret_password is required when encrypted_secret_path is set")
		}
	}
	if c.Binance.RESTHost == "" {
		errs = append(errs, "binance: rest_host must not be empty")
	}
	if c.Binance.WSHost == "" {
		errs = append(errs, "binance: ws_host must not be empty")
	}

	// Loop
	if c.Loop.Symbol == "" {
		errs = append(errs, "loop: symbol must not be empty")
	}
	if c.Loop.KlineInterval == "" {
		errs = append(errs, "loop: kline_interval must not be empty")
	}
	if c.Loop.Cadence.Duration <= 0 {
		errs = append(errs, "loop: cadence must be > 0")
	}
	if c.Loop.Warmup.Duration < 0 {
		errs = append(errs, "loop: warmup must be >= 0")
	}
	if c.Loop.OrderTimeout.Duration <= 0 {
		errs = append(errs, "loop: order_timeout must be > 0")
	}

	// Strategy
	if c.Strategy.NotionalPerOrder <= 0 {
		errs = append(errs, "strategy: notional_per_order must be > 0")
	}
	if c.Strategy.LadderRungs < 1 {
		errs = append(errs, "strategy: ladder_rungs must be >= 1")
	}
	if c.Strategy.LadderStepPct <= 0 || c.Strategy.LadderStepPct >= 1 {
		errs = append(errs, "strategy: ladder_step_pct must be in (0, 1)")
	}
	if c.Strategy.QuoteOffsetPct <= 0 || c.Strategy.QuoteOffsetPct >= 1 {
		errs = append(errs, "strategy: quote_offset_pct must be in (0, 1)")
	}
	if c.Strategy.GridStepPct <= 0 || c.Strategy.GridStepPct >= 1 {
		errs = append(errs, "strategy: grid_step_pct must be in (0, 1)")
	}
	pu := strings.ToLower(c.Strategy.PositionUpdates)
	if pu != "optimistic" && pu != "confirmed" {
		errs = append(errs, fmt.Sprintf("strategy: position_updates must be \"optimistic\" or \"confirmed\", got %q", c.Strategy.PositionUpdates))
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3 archival needs Postgres as the source of rows.
	if c.S3.Enabled {
		if !c.Postgres.Enabled {
			errs = append(errs, "s3: archival requires postgres to be enabled")
		}
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be > 0")
		}
	}

	// Trade log
	if c.TradeLog.Enabled && c.TradeLog.Dir == "" {
		errs = append(errs, "trade_log: dir must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
