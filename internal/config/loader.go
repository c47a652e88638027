package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRENDBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRENDBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Binance ──
	setStr(&cfg.Binance.RESTHost, "TRENDBOT_BINANCE_REST_HOST")
	setStr(&cfg.Binance.WSHost, "TRENDBOT_BINANCE_WS_HOST")
	setStr(&cfg.Binance.APIKey, "TRENDBOT_BINANCE_API_KEY")
	setStr(&cfg.Binance.APISecret, "TRENDBOT_BINANCE_API_SECRET")
	setStr(&cfg.Binance.EncryptedSecretPath, "TRENDBOT_BINANCE_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Binance.SecretPassword, "TRENDBOT_BINANCE_SECRET_PASSWORD")

	// ── Loop ──
	setStr(&cfg.Loop.Symbol, "TRENDBOT_LOOP_SYMBOL")
	setStr(&cfg.Loop.KlineInterval, "TRENDBOT_LOOP_KLINE_INTERVAL")
	setDuration(&cfg.Loop.Warmup, "TRENDBOT_LOOP_WARMUP")
	setDuration(&cfg.Loop.Cadence, "TRENDBOT_LOOP_CADENCE")
	setDuration(&cfg.Loop.OrderTimeout, "TRENDBOT_LOOP_ORDER_TIMEOUT")

	// ── Strategy ──
	setFloat64(&cfg.Strategy.NotionalPerOrder, "TRENDBOT_STRATEGY_NOTIONAL_PER_ORDER")
	setInt(&cfg.Strategy.LadderRungs, "TRENDBOT_STRATEGY_LADDER_RUNGS")
	setFloat64(&cfg.Strategy.LadderStepPct, "TRENDBOT_STRATEGY_LADDER_STEP_PCT")
	setFloat64(&cfg.Strategy.QuoteOffsetPct, "TRENDBOT_STRATEGY_QUOTE_OFFSET_PCT")
	setFloat64(&cfg.Strategy.GridStepPct, "TRENDBOT_STRATEGY_GRID_STEP_PCT")
	setStr(&cfg.Strategy.PositionUpdates, "TRENDBOT_STRATEGY_POSITION_UPDATES")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "TRENDBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "TRENDBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TRENDBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TRENDBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TRENDBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TRENDBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TRENDBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TRENDBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TRENDBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TRENDBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TRENDBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "TRENDBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TRENDBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRENDBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRENDBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRENDBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRENDBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRENDBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "TRENDBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TRENDBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRENDBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRENDBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRENDBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRENDBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRENDBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRENDBOT_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setInt(&cfg.Archive.RetentionDays, "TRENDBOT_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "TRENDBOT_ARCHIVE_INTERVAL")

	// ── Trade log ──
	setBool(&cfg.TradeLog.Enabled, "TRENDBOT_TRADE_LOG_ENABLED")
	setStr(&cfg.TradeLog.Dir, "TRENDBOT_TRADE_LOG_DIR")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRENDBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRENDBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRENDBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRENDBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "TRENDBOT_MODE")
	setStr(&cfg.LogLevel, "TRENDBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
