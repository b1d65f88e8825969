package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"CoinScope/internal/analytics"
)

// EnvPrefix prefixes every environment override. Keys are the upper-cased
// section and field names, e.g. COINSCOPE_SERVER_PORT or
// COINSCOPE_COINGECKO_REQUESTSPERMINUTE.
const EnvPrefix = "COINSCOPE"

// DatabaseConfig points at the Postgres database holding assets and prices.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" validate:"required"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout" validate:"gt=0"`
}

// RecorderConfig controls the local SQLite history of computed results.
type RecorderConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// CoinGeckoConfig configures the market data API.
type CoinGeckoConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	APIKey            string        `yaml:"api_key"`
	VsCurrency        string        `yaml:"vs_currency" validate:"required"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"min=1"`
	DaysBack          int           `yaml:"days_back" validate:"min=1"`
	EnableHourly      bool          `yaml:"enable_hourly"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
}

// ServerConfig configures the dashboard API.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	DefaultDays    int           `yaml:"default_days" validate:"min=1,max=3650"`
	MaxConcurrency int           `yaml:"max_concurrency" validate:"min=1"`
}

// ScheduleConfig holds cron expressions (with seconds) for background jobs.
type ScheduleConfig struct {
	GroupsCron string `yaml:"groups_cron" validate:"required"`
	ImportCron string `yaml:"import_cron" validate:"required"`
	DigestCron string `yaml:"digest_cron" validate:"required"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// TelegramConfig enables the digest and command bot when BotToken is set.
type TelegramConfig struct {
	BotToken   string `yaml:"bot_token"`
	ChatID     string `yaml:"chat_id" validate:"required_with=BotToken"`
	DigestSize int    `yaml:"digest_size" validate:"min=1"`
}

// LoggingConfig selects the zerolog level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig   `yaml:"database"`
	Recorder  RecorderConfig   `yaml:"recorder"`
	CoinGecko CoinGeckoConfig  `yaml:"coingecko"`
	Server    ServerConfig     `yaml:"server"`
	Schedule  ScheduleConfig   `yaml:"schedule"`
	Telegram  TelegramConfig   `yaml:"telegram"`
	Logging   LoggingConfig    `yaml:"logging"`
	Analytics analytics.Policy `yaml:"analytics" ignored:"true"`
	Proxy     string           `yaml:"proxy"`
}

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
		},
		Recorder: RecorderConfig{SQLitePath: "data/coinscope.db"},
		CoinGecko: CoinGeckoConfig{
			BaseURL:           "https://api.coingecko.com/api/v3",
			VsCurrency:        "usd",
			RequestsPerMinute: 30,
			DaysBack:          365,
			EnableHourly:      true,
			Timeout:           20 * time.Second,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 20 * time.Second,
			DefaultDays:    90,
			MaxConcurrency: 8,
		},
		Schedule: ScheduleConfig{
			GroupsCron: "0 0 1 * * 1",
			ImportCron: "0 30 1 * * *",
			DigestCron: "0 0 8 * * *",
		},
		Telegram:  TelegramConfig{DigestSize: 10},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Analytics: analytics.DefaultPolicy(),
	}
}

// Load reads config from a YAML file, then applies .env and environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env only fills variables the environment does not already define.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Names shared with the import scripts.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the analytics policy.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("invalid analytics policy: %w", err)
	}
	return nil
}

// Addr is the dashboard listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
