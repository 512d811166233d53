package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8080)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverSQLite)
	}
	if !cfg.Rescore.Enabled {
		t.Error("Rescore.Enabled should be true by default")
	}
	if cfg.Rescore.Interval != "15m" {
		t.Errorf("Rescore.Interval = %q, want %q", cfg.Rescore.Interval, "15m")
	}
	if cfg.Signal.Thresholds.Trending != 20 {
		t.Errorf("Signal.Thresholds.Trending = %v, want 20", cfg.Signal.Thresholds.Trending)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[api]
port = 9090

[signal.thresholds]
trending = 25.0

[rescore]
enabled = false
interval = "5m"

[log]
format = "text"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, untouched keys should keep defaults", cfg.API.Host)
	}
	if cfg.Signal.Thresholds.Trending != 25 {
		t.Errorf("Trending = %v, want 25", cfg.Signal.Thresholds.Trending)
	}
	if cfg.Signal.Thresholds.NotifyBrand != 40 {
		t.Errorf("NotifyBrand = %v, want default 40", cfg.Signal.Thresholds.NotifyBrand)
	}
	if cfg.Rescore.Enabled {
		t.Error("Rescore.Enabled should be false")
	}
	if got := duration(cfg.Rescore.Interval, 0); got != 5*time.Minute {
		t.Errorf("Rescore.Interval = %s, want 5m", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_API_PORT", "7070")
	t.Setenv("PRODUCTLOBBY_STORAGE_DSN", "postgres://localhost/productlobby")
	t.Setenv("PRODUCTLOBBY_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port = %d, want 7070", cfg.API.Port)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("Storage.Driver = %q, a DSN should select postgres", cfg.Storage.Driver)
	}
	if cfg.Storage.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Storage.RedisURL = %q", cfg.Storage.RedisURL)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[api]\nprot = 1\n", "unknown keys"},
		{"bad toml", "[api\n", "parse"},
		{"bad duration", "[rescore]\ninterval = \"soon\"\n", "rescore.interval"},
		{"zero duration", "[api]\nread_timeout = \"0s\"\n", "api.read_timeout"},
		{"bad driver", "[storage]\ndriver = \"mysql\"\n", "storage.driver"},
		{"postgres without dsn", "[storage]\ndriver = \"postgres\"\n", "storage.dsn"},
		{"no workers", "[rescore]\nworkers = 0\n", "rescore.workers"},
		{"bad log format", "[log]\nformat = \"xml\"\n", "log.format"},
		{"bad weights", "[signal.weights]\nlobby = -1.0\n", "signal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_BadEnvPort(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_API_PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestHome(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_HOME", "/srv/productlobby")
	if got := Home(); got != "/srv/productlobby" {
		t.Errorf("Home() = %q", got)
	}
	if got := ConfigPath(); got != filepath.Join("/srv/productlobby", "config.toml") {
		t.Errorf("ConfigPath() = %q", got)
	}
	if got := (StorageConfig{}).SQLiteDir(); got != "/srv/productlobby" {
		t.Errorf("SQLiteDir() = %q, want home", got)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{" 2h ", 2 * time.Hour},
		{"", time.Minute}, // Default
		{"-5s", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := duration(tt.input, time.Minute); got != tt.want {
				t.Errorf("duration(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
