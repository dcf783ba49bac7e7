// Package config loads the dashboard configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/yahoo"
)

// PathEnv names the variable holding the config file path when none is given.
const PathEnv = "TREASURY_CONFIG"

var ErrNoEntities = errors.New("no entities configured")

type Config struct {
	Env        string     `yaml:"env" env:"TREASURY_ENV"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Quotes     Quotes     `yaml:"quotes"`
	Dashboard  Dashboard  `yaml:"dashboard"`
	Log        Log        `yaml:"log"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"TREASURY_HTTP_ADDRESS"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"TREASURY_HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"TREASURY_HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"TREASURY_HTTP_SHUTDOWN_TIMEOUT"`
}

// Quotes configures the market data source.
type Quotes struct {
	BaseURL string        `yaml:"base_url" env:"TREASURY_QUOTES_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TREASURY_QUOTES_TIMEOUT"`
	// CacheTTL how long successful lookups are reused, 0 disables caching
	CacheTTL time.Duration `yaml:"cache_ttl" env:"TREASURY_QUOTES_CACHE_TTL"`
}

type Dashboard struct {
	Currencies  []treasury.Currency `yaml:"currencies" env:"TREASURY_CURRENCIES" env-separator:","`
	Base        treasury.Currency   `yaml:"base" env:"TREASURY_BASE"`
	HistoryDays int                 `yaml:"history_days" env:"TREASURY_HISTORY_DAYS"`
	Entities    []treasury.Position `yaml:"entities"`
	// FallbackRates replaces the built-in fallback table when set, keyed like "EURUSD".
	FallbackRates map[string]treasury.Rate `yaml:"fallback_rates"`
}

type Log struct {
	Level  string `yaml:"level" env:"TREASURY_LOG_LEVEL"`
	Format string `yaml:"format" env:"TREASURY_LOG_FORMAT"`
}

// Default returns the built-in configuration: the four reference entities in
// USD, EUR, GBP and ZAR, reported in USD.
func Default() *Config {
	return &Config{
		Env: "local",
		HTTPServer: HTTPServer{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Quotes: Quotes{
			BaseURL:  yahoo.ApiUrlBase,
			Timeout:  5 * time.Second,
			CacheTTL: time.Minute,
		},
		Dashboard: Dashboard{
			Currencies:  []treasury.Currency{"USD", "EUR", "GBP", "ZAR"},
			Base:        "USD",
			HistoryDays: 30,
			Entities: []treasury.Position{
				{Entity: "South Africa HQ", Currency: "ZAR", Amount: 5_000_000},
				{Entity: "DRC Operations", Currency: "USD", Amount: 250_000},
				{Entity: "European Office", Currency: "EUR", Amount: 100_000},
				{Entity: "UK Branch", Currency: "GBP", Amount: 75_000},
			},
		},
		Log: Log{
			Level:  "info",
			Format: "logfmt",
		},
	}
}

// Load reads the configuration. A .env file in the working directory is loaded into the
// environment first when present. path falls back to $TREASURY_CONFIG; without a file only
// the environment overrides the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(PathEnv)
	}

	cfg := Default()
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config %v: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// normalise upper-cases every currency code.
func (c *Config) normalise() {
	for i, cur := range c.Dashboard.Currencies {
		c.Dashboard.Currencies[i] = treasury.ParseCurrency(string(cur))
	}
	c.Dashboard.Base = treasury.ParseCurrency(string(c.Dashboard.Base))
	for i, p := range c.Dashboard.Entities {
		c.Dashboard.Entities[i].Currency = treasury.ParseCurrency(string(p.Currency))
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	d := c.Dashboard
	if len(d.Currencies) == 0 {
		return errors.New("no currencies configured")
	}
	if !slices.Contains(d.Currencies, d.Base) {
		return fmt.Errorf("base %q is not a configured currency", d.Base)
	}
	if d.HistoryDays <= 0 {
		return fmt.Errorf("history_days must be positive, got %v", d.HistoryDays)
	}
	if len(d.Entities) == 0 {
		return ErrNoEntities
	}
	for i, p := range d.Entities {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("entity %v: %w", i, err)
		}
	}
	for symbol, r := range d.FallbackRates {
		if r <= 0 {
			return fmt.Errorf("fallback rate %v must be positive, got %v", symbol, r)
		}
	}
	if c.Quotes.Timeout <= 0 {
		return fmt.Errorf("quotes.timeout must be positive, got %v", c.Quotes.Timeout)
	}
	if c.Quotes.CacheTTL < 0 {
		return fmt.Errorf("quotes.cache_ttl must not be negative, got %v", c.Quotes.CacheTTL)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "logfmt", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
