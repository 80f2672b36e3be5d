// Package config loads the configuration of the sbk tool.
//
// Values are layered: built-in defaults, then the YAML file, then the
// variables of a .env file and of the environment (STOCKBOOK_*). Command line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/stockbook/logger"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	DataDir        string  `yaml:"data_dir"`
	Currency       string  `yaml:"currency"`
	CommissionRate float64 `yaml:"commission_rate"`

	Log     logger.Config `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	History HistoryConfig `yaml:"history"`
	Market  MarketConfig  `yaml:"market"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`

	// Warnings lists the environment values that could not be parsed and
	// were ignored.
	Warnings []string `yaml:"-"`
}

type StorageConfig struct {
	// Locations replaces the default primary and backup files, in priority
	// order. Relative paths are resolved against the data directory.
	Locations       []string      `yaml:"locations"`
	PostgresDSN     string        `yaml:"postgres_dsn"`
	PostgresKey     string        `yaml:"postgres_key"`
	ArchiveInterval time.Duration `yaml:"archive_interval"`
	ArchiveKeep     int           `yaml:"archive_keep"`
}

type HistoryConfig struct {
	File          string `yaml:"file"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

type MarketConfig struct {
	// Provider is a comma separated list of gateways tried in order:
	// eodhd, alpaca, jsonquote.
	Provider  string          `yaml:"provider"`
	Timeout   time.Duration   `yaml:"timeout"`
	EODHD     EODHDConfig     `yaml:"eodhd"`
	Alpaca    AlpacaConfig    `yaml:"alpaca"`
	JSONQuote JSONQuoteConfig `yaml:"jsonquote"`
	Redis     RedisConfig     `yaml:"redis"`
}

type EODHDConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Exchange string `yaml:"exchange"`
	CacheDir string `yaml:"cache_dir"`
}

type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

type JSONQuoteConfig struct {
	PriceURL  string `yaml:"price_url"`
	PricePath string `yaml:"price_path"`
	YieldURL  string `yaml:"yield_url"`
	YieldPath string `yaml:"yield_path"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // no quote cache if empty
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	// File is a node exporter textfile; no metrics are written if empty.
	File string `yaml:"file"`
}

type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DefaultDataDir returns ~/.stockbook, or .stockbook if there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stockbook"
	}
	return filepath.Join(home, ".stockbook")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:        DefaultDataDir(),
		Currency:       "USD",
		CommissionRate: 0.001,
		Log: logger.Config{
			Level:      logger.DefaultLevel,
			MaxSizeMB:  logger.DefaultMaxSizeMB,
			MaxBackups: logger.DefaultMaxBackups,
		},
		Storage: StorageConfig{
			PostgresKey:     "default",
			ArchiveInterval: 24 * time.Hour,
			ArchiveKeep:     7,
		},
		History: HistoryConfig{File: "history.json"},
		Market: MarketConfig{
			Provider: "jsonquote",
			Timeout:  10 * time.Second,
			Redis:    RedisConfig{TTL: 5 * time.Minute},
		},
		Watch: WatchConfig{Interval: 15 * time.Minute},
	}
}

// Load returns the configuration read from the YAML file at path, then
// from envFile and the environment. An empty path or envFile is skipped, so
// is a missing envFile.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if envFile != "" {
		// godotenv never overrides variables already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", envFile, err)
		}
	}
	cfg.loadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// env is the prefix of the environment variables.
const env = "STOCKBOOK_"

func (c *Config) loadFromEnv() {
	c.DataDir = c.getString("DATA_DIR", c.DataDir)
	c.Currency = c.getString("CURRENCY", c.Currency)
	c.CommissionRate = c.getFloat("COMMISSION_RATE", c.CommissionRate)
	c.Log.Level = c.getString("LOG_LEVEL", c.Log.Level)
	c.Log.File = c.getString("LOG_FILE", c.Log.File)

	c.Storage.PostgresDSN = c.getString("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.ArchiveInterval = c.getDuration("ARCHIVE_INTERVAL", c.Storage.ArchiveInterval)
	c.Storage.ArchiveKeep = c.getInt("ARCHIVE_KEEP", c.Storage.ArchiveKeep)
	c.History.ClickHouseDSN = c.getString("CLICKHOUSE_DSN", c.History.ClickHouseDSN)

	c.Market.Provider = c.getString("PROVIDER", c.Market.Provider)
	c.Market.Timeout = c.getDuration("TIMEOUT", c.Market.Timeout)
	c.Market.EODHD.APIKey = c.getString("EODHD_API_KEY", c.Market.EODHD.APIKey)
	c.Market.Alpaca.APIKey = c.getString("ALPACA_API_KEY", c.Market.Alpaca.APIKey)
	c.Market.Alpaca.APISecret = c.getString("ALPACA_API_SECRET", c.Market.Alpaca.APISecret)
	c.Market.Redis.Addr = c.getString("REDIS_ADDR", c.Market.Redis.Addr)
	c.Market.Redis.Password = c.getString("REDIS_PASSWORD", c.Market.Redis.Password)

	c.Metrics.File = c.getString("METRICS_FILE", c.Metrics.File)
	c.Watch.Interval = c.getDuration("WATCH_INTERVAL", c.Watch.Interval)
}

func (c *Config) getString(key, def string) string {
	if v, ok := os.LookupEnv(env + key); ok && v != "" {
		return v
	}
	return def
}

// lookup returns the value of key, parsed with parse, or def with a warning
// when the value cannot be parsed.
func lookup[T any](c *Config, key string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(env + key)
	if !ok || v == "" {
		return def
	}
	p, err := parse(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s%s=%q ignored: %v", env, key, v, err))
		return def
	}
	return p
}

func (c *Config) getInt(key string, def int) int { return lookup(c, key, def, strconv.Atoi) }

func (c *Config) getFloat(key string, def float64) float64 {
	return lookup(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (c *Config) getDuration(key string, def time.Duration) time.Duration {
	return lookup(c, key, def, time.ParseDuration)
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		errs = append(errs, fmt.Errorf("invalid commission_rate %v: must be in [0, 1)", c.CommissionRate))
	}
	if c.Storage.ArchiveKeep < 0 {
		errs = append(errs, fmt.Errorf("invalid archive_keep %d", c.Storage.ArchiveKeep))
	}
	for _, p := range c.Providers() {
		switch p {
		case "eodhd", "alpaca", "jsonquote":
		default:
			errs = append(errs, fmt.Errorf("unknown market provider %q", p))
		}
	}
	return errors.Join(errs...)
}

// Providers returns the market providers in order.
func (c *Config) Providers() []string {
	var res []string
	for _, p := range strings.Split(c.Market.Provider, ",") {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}

// Path resolves p against the data directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
