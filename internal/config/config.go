package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process-wide startup configuration. It is loaded once in
// cmd/server and passed down by value/pointer -- it is not a
// substitute for the Configuration Manager, which owns the mutable,
// audited application/strategy configuration documents.
type Config struct {
	Environment string         `mapstructure:"environment" validate:"oneof=development staging production"`
	LogLevel    string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	NATS        NATSConfig     `mapstructure:"nats"`
	Database    DatabaseConfig `mapstructure:"database"`
	Mongo       MongoConfig    `mapstructure:"mongo"`
	DataManager DataManagerConfig `mapstructure:"data_manager"`
	Server      ServerConfig   `mapstructure:"server"`
	Signal      SignalConfig   `mapstructure:"signal"`
}

// NATSConfig addresses C1's subscription and C6's publication endpoints.
type NATSConfig struct {
	URL          string `mapstructure:"url" validate:"required"`
	Subject      string `mapstructure:"subject" validate:"required"`
	QueueGroup   string `mapstructure:"queue_group" validate:"required"`
	MaxReconnect int    `mapstructure:"max_reconnect" validate:"min=-1"`
	ReconnectWaitSeconds int `mapstructure:"reconnect_wait_seconds" validate:"min=1,max=60"`
}

// DatabaseConfig is the relational (PostgreSQL-shaped) tier used by both
// the History Loader (candle reads) and the Configuration Manager's tier-3
// fallback.
type DatabaseConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	User            string `mapstructure:"user" validate:"required"`
	Password        string `mapstructure:"password" validate:"required"`
	Name            string `mapstructure:"name" validate:"required"`
	SSLMode         string `mapstructure:"ssl_mode" validate:"oneof=disable require verify-ca verify-full"`
	MaxConnections  int    `mapstructure:"max_connections" validate:"min=1,max=100"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"min=1"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" validate:"min=60"`
}

// MongoConfig is the document-shaped tier-2 fallback store for configuration.
type MongoConfig struct {
	URI      string `mapstructure:"uri" validate:"required"`
	Database string `mapstructure:"database" validate:"required"`
}

// DataManagerConfig points at the tier-1 primary configuration store and
// the signal/audit publication endpoint.
type DataManagerConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	APITimeoutSecs int    `mapstructure:"api_timeout_seconds" validate:"min=1,max=60"`
}

// ServerConfig is the admin HTTP surface (pkg/api).
type ServerConfig struct {
	HTTPPort     int  `mapstructure:"http_port" validate:"min=1024,max=65535"`
	ReadTimeout  int  `mapstructure:"read_timeout" validate:"min=1"`
	WriteTimeout int  `mapstructure:"write_timeout" validate:"min=1"`
	EnableCORS   bool `mapstructure:"enable_cors"`
}

// SignalConfig carries the risk-enrichment and cache-TTL knobs spec.md §4
// and §4.7 name as environment-var startup defaults (tier 4 of the
// Configuration Manager's fallback chain).
type SignalConfig struct {
	SupportedSymbols      []string `mapstructure:"-"`
	SupportedTimeframes   []string `mapstructure:"-"`
	MinConfidence         float64  `mapstructure:"min_confidence" validate:"min=0,max=1"`
	MaxConfidence         float64  `mapstructure:"max_confidence" validate:"min=0,max=1"`
	DefaultStopLossPct    float64  `mapstructure:"default_stop_loss_pct" validate:"gt=0"`
	DefaultTakeProfitPct  float64  `mapstructure:"default_take_profit_pct" validate:"gt=0"`
	ATRStopLossMultiplier float64  `mapstructure:"atr_stop_loss_multiplier" validate:"gt=0"`
	ATRTakeProfitMultiplier float64 `mapstructure:"atr_take_profit_multiplier" validate:"gt=0"`
	ConfigCacheTTLSeconds int      `mapstructure:"config_cache_ttl_seconds" validate:"min=1"`
	PublisherEndpoint     string   `mapstructure:"publisher_endpoint"`
}

// Load reads .env then the process environment, applies defaults, and
// validates the result -- the same three-step shape the teacher's loader
// uses, generalized to this domain's variables.
func Load() (*Config, error) {
	if err := godotenv.Load("config/.env"); err != nil {
		if os.Getenv("ENVIRONMENT") == "" {
			fmt.Printf("Warning: No .env file found, using environment variables only\n")
		}
	}

	viper.SetConfigType("env")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.BindEnv("nats.url", "NATS_URL")
	viper.BindEnv("nats.subject", "NATS_CANDLE_SUBJECT")
	viper.BindEnv("nats.queue_group", "NATS_QUEUE_GROUP")
	viper.BindEnv("nats.max_reconnect", "NATS_MAX_RECONNECT")
	viper.BindEnv("nats.reconnect_wait_seconds", "NATS_RECONNECT_WAIT_SECONDS")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.max_connections", "DATABASE_MAX_CONNECTIONS")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.conn_max_lifetime", "DATABASE_CONN_MAX_LIFETIME")

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.database", "MONGO_DATABASE")

	viper.BindEnv("data_manager.base_url", "TA_BOT_API_ENDPOINT")
	viper.BindEnv("data_manager.api_timeout_seconds", "DATA_MANAGER_TIMEOUT_SECONDS")

	viper.BindEnv("server.http_port", "SERVER_HTTP_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.enable_cors", "SERVER_ENABLE_CORS")

	viper.BindEnv("signal.min_confidence", "MIN_CONFIDENCE")
	viper.BindEnv("signal.max_confidence", "MAX_CONFIDENCE")
	viper.BindEnv("signal.default_stop_loss_pct", "DEFAULT_STOP_LOSS_PCT")
	viper.BindEnv("signal.default_take_profit_pct", "DEFAULT_TAKE_PROFIT_PCT")
	viper.BindEnv("signal.atr_stop_loss_multiplier", "ATR_STOP_LOSS_MULTIPLIER")
	viper.BindEnv("signal.atr_take_profit_multiplier", "ATR_TAKE_PROFIT_MULTIPLIER")
	viper.BindEnv("signal.config_cache_ttl_seconds", "CONFIG_CACHE_TTL_SECONDS")
	viper.BindEnv("signal.publisher_endpoint", "TA_BOT_API_ENDPOINT")

	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Signal.SupportedSymbols = splitCSV(getEnvOrDefault("SUPPORTED_SYMBOLS", "BTCUSDT,ETHUSDT,ADAUSDT"), true)
	cfg.Signal.SupportedTimeframes = splitCSV(getEnvOrDefault("SUPPORTED_TIMEFRAMES", "15m,1h"), false)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate runs the struct tags above plus the cross-field checks
// validator tags alone cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Signal.MinConfidence >= c.Signal.MaxConfidence {
		return fmt.Errorf("signal.min_confidence (%v) must be less than signal.max_confidence (%v)", c.Signal.MinConfidence, c.Signal.MaxConfidence)
	}
	if len(c.Signal.SupportedSymbols) == 0 {
		return fmt.Errorf("signal.supported_symbols must not be empty")
	}
	return nil
}

// String masks secrets for safe inclusion in startup logs.
func (c *Config) String() string {
	masked := *c
	masked.Database.Password = "***"
	return fmt.Sprintf("%+v", masked)
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.subject", "candles.>")
	viper.SetDefault("nats.queue_group", "ta-signal-bot")
	viper.SetDefault("nats.max_reconnect", -1)
	viper.SetDefault("nats.reconnect_wait_seconds", 2)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "ta_signal_bot")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "ta_signal_bot")

	viper.SetDefault("data_manager.base_url", "http://localhost:9000")
	viper.SetDefault("data_manager.api_timeout_seconds", 1)

	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.read_timeout", 10)
	viper.SetDefault("server.write_timeout", 10)
	viper.SetDefault("server.enable_cors", true)

	viper.SetDefault("signal.min_confidence", 0.6)
	viper.SetDefault("signal.max_confidence", 0.95)
	viper.SetDefault("signal.default_stop_loss_pct", 0.02)
	viper.SetDefault("signal.default_take_profit_pct", 0.05)
	viper.SetDefault("signal.atr_stop_loss_multiplier", 2.0)
	viper.SetDefault("signal.atr_take_profit_multiplier", 3.0)
	viper.SetDefault("signal.config_cache_ttl_seconds", 60)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(raw string, upper bool) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if upper {
			p = strings.ToUpper(p)
		}
		out = append(out, p)
	}
	return out
}
