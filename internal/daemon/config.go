// Package daemon loads configuration and runs the signal service: the HTTP
// API, the rescore worker, and the periodic sweep.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/productlobby/signal/internal/app/signal"
)

// Config is the top-level config.toml.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Signal  signal.Config `toml:"signal"`
	Rescore RescoreConfig `toml:"rescore"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	RequestTimeout string `toml:"request_timeout"`
	RateLimitRPM   int    `toml:"rate_limit_rpm"` // 0 disables rate limiting
	RateLimitBurst int    `toml:"rate_limit_burst"`
}

// StorageConfig selects the campaign store.
type StorageConfig struct {
	Driver   string `toml:"driver"` // "sqlite" or "postgres"
	Dir      string `toml:"dir"`    // sqlite directory, defaults to the home dir
	DSN      string `toml:"dsn"`    // postgres connection string
	MaxConns int    `toml:"max_conns"`
	RedisURL string `toml:"redis_url"` // empty runs the sweep without a distributed lock
}

// RescoreConfig controls background recomputation.
type RescoreConfig struct {
	Enabled       bool   `toml:"enabled"`
	Interval      string `toml:"interval"`
	Workers       int    `toml:"workers"`
	BoostInterval string `toml:"boost_interval"`
	JobTimeout    string `toml:"job_timeout"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "text"
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultConfig returns the configuration used when config.toml is absent.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ReadTimeout:    "10s",
			WriteTimeout:   "30s",
			RequestTimeout: "15s",
			RateLimitRPM:   300,
			RateLimitBurst: 50,
		},
		Storage: StorageConfig{
			Driver:   DriverSQLite,
			MaxConns: 10,
		},
		Signal: signal.DefaultConfig(),
		Rescore: RescoreConfig{
			Enabled:       true,
			Interval:      "15m",
			Workers:       4,
			BoostInterval: "1m",
			JobTimeout:    "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Home returns $PRODUCTLOBBY_HOME or ~/.productlobby.
func Home() string {
	if env := os.Getenv("PRODUCTLOBBY_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".productlobby")
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// Load reads path over the defaults, applies environment overrides, and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return Config{}, fmt.Errorf("parse %s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PRODUCTLOBBY_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PRODUCTLOBBY_API_PORT: %w", err)
		}
		c.API.Port = port
	}
	if v := os.Getenv("PRODUCTLOBBY_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
		c.Storage.Driver = DriverPostgres
	}
	if v := os.Getenv("PRODUCTLOBBY_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	return nil
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	for name, v := range map[string]string{
		"api.read_timeout":       c.API.ReadTimeout,
		"api.write_timeout":      c.API.WriteTimeout,
		"api.request_timeout":    c.API.RequestTimeout,
		"rescore.interval":       c.Rescore.Interval,
		"rescore.boost_interval": c.Rescore.BoostInterval,
		"rescore.job_timeout":    c.Rescore.JobTimeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.API.RateLimitRPM < 0 {
		return fmt.Errorf("api.rate_limit_rpm must not be negative")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver %q: want %q or %q", c.Storage.Driver, DriverSQLite, DriverPostgres)
	}

	if c.Rescore.Enabled && c.Rescore.Workers < 1 {
		return fmt.Errorf("rescore.workers must be at least 1")
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q: want json or text", c.Log.Format)
	}

	if err := c.Signal.Validate(); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// SQLiteDir is the directory holding the sqlite database.
func (s StorageConfig) SQLiteDir() string {
	if s.Dir != "" {
		return s.Dir
	}
	return Home()
}

// parseDuration accepts Go duration strings ("30s", "15m"). Durations must be positive.
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

// duration returns s parsed, or def when s is empty or invalid. Validate
// has already rejected invalid values for a loaded config.
func duration(s string, def time.Duration) time.Duration {
	d, err := parseDuration(s)
	if err != nil {
		return def
	}
	return d
}
