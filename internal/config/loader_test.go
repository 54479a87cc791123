package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var courtKeys = []string{
	"COURT_HOST",
	"COURT_PORT",
	"COURT_SNAPSHOT_BACKEND",
	"COURT_SNAPSHOT_PATH",
	"COURT_SQLITE_PATH",
	"COURT_POSTGRES_DSN",
	"COURT_USERS_FILE",
	"COURT_VIEW_CACHE_TTL",
	"COURT_CONN_TIMEOUT",
	"COURT_MAX_REQUEST_BYTES",
	"COURT_WEEKLY_REFRESH",
	"COURT_REFRESH_INTERVAL",
	"COURT_TIMEZONE",
	"COURT_LOG_LEVEL",
}

// unsetCourtEnv removes every COURT_ variable for the duration of the test.
func unsetCourtEnv(t *testing.T) {
	t.Helper()
	for _, key := range courtKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unsetCourtEnv(t)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.Addr() != "127.0.0.1:60000" {
			t.Fatalf("expected default address 127.0.0.1:60000, got %s", cfg.Addr())
		}
		if cfg.SnapshotBackend != "json" || cfg.SnapshotPath != "court_schedule.json" {
			t.Fatalf("unexpected snapshot defaults: %q %q", cfg.SnapshotBackend, cfg.SnapshotPath)
		}
		if cfg.SQLitePath != "court_schedule.db" {
			t.Fatalf("unexpected sqlite path: %q", cfg.SQLitePath)
		}
		if cfg.ViewCacheTTL != 5*time.Second || cfg.ConnTimeout != 30*time.Second {
			t.Fatalf("unexpected durations: ttl=%s timeout=%s", cfg.ViewCacheTTL, cfg.ConnTimeout)
		}
		if cfg.MaxRequestBytes != 65536 {
			t.Fatalf("expected max request bytes 65536, got %d", cfg.MaxRequestBytes)
		}
		if cfg.WeeklyRefresh || cfg.RefreshInterval != time.Minute {
			t.Fatalf("unexpected refresh defaults: %v %s", cfg.WeeklyRefresh, cfg.RefreshInterval)
		}
		if cfg.Location != time.Local || cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("unexpected location or level: %v %v", cfg.Location, cfg.LogLevel)
		}
	})

	t.Run("parses every variable", func(t *testing.T) {
		unsetCourtEnv(t)
		t.Setenv("COURT_HOST", "0.0.0.0")
		t.Setenv("COURT_PORT", "6000")
		t.Setenv("COURT_SNAPSHOT_BACKEND", "SQLite")
		t.Setenv("COURT_SNAPSHOT_PATH", "/tmp/court.json")
		t.Setenv("COURT_SQLITE_PATH", "/tmp/court.db")
		t.Setenv("COURT_USERS_FILE", "/etc/court/users.yaml")
		t.Setenv("COURT_VIEW_CACHE_TTL", "0s")
		t.Setenv("COURT_CONN_TIMEOUT", "0")
		t.Setenv("COURT_MAX_REQUEST_BYTES", "1024")
		t.Setenv("COURT_WEEKLY_REFRESH", "true")
		t.Setenv("COURT_REFRESH_INTERVAL", "30s")
		t.Setenv("COURT_TIMEZONE", "UTC")
		t.Setenv("COURT_LOG_LEVEL", "debug")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.Addr() != "0.0.0.0:6000" {
			t.Fatalf("unexpected address %s", cfg.Addr())
		}
		if cfg.SnapshotBackend != "sqlite" {
			t.Fatalf("expected normalised backend sqlite, got %q", cfg.SnapshotBackend)
		}
		if cfg.SnapshotPath != "/tmp/court.json" || cfg.SQLitePath != "/tmp/court.db" {
			t.Fatalf("unexpected paths: %q %q", cfg.SnapshotPath, cfg.SQLitePath)
		}
		if cfg.UsersFile != "/etc/court/users.yaml" {
			t.Fatalf("unexpected users file %q", cfg.UsersFile)
		}
		if cfg.ViewCacheTTL != 0 || cfg.ConnTimeout != 0 {
			t.Fatalf("expected zero durations to be accepted, got %s %s", cfg.ViewCacheTTL, cfg.ConnTimeout)
		}
		if cfg.MaxRequestBytes != 1024 {
			t.Fatalf("expected max request bytes 1024, got %d", cfg.MaxRequestBytes)
		}
		if !cfg.WeeklyRefresh || cfg.RefreshInterval != 30*time.Second {
			t.Fatalf("unexpected refresh settings: %v %s", cfg.WeeklyRefresh, cfg.RefreshInterval)
		}
		if cfg.Location.String() != "UTC" || cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("unexpected location or level: %v %v", cfg.Location, cfg.LogLevel)
		}
	})

	t.Run("errors when postgres dsn is missing", func(t *testing.T) {
		unsetCourtEnv(t)
		t.Setenv("COURT_SNAPSHOT_BACKEND", "postgres")

		_, err := Load("")
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: COURT_POSTGRES_DSN"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("collects invalid values", func(t *testing.T) {
		unsetCourtEnv(t)
		t.Setenv("COURT_PORT", "70000")
		t.Setenv("COURT_SNAPSHOT_BACKEND", "redis")
		t.Setenv("COURT_VIEW_CACHE_TTL", "-1s")
		t.Setenv("COURT_REFRESH_INTERVAL", "0s")
		t.Setenv("COURT_MAX_REQUEST_BYTES", "0")
		t.Setenv("COURT_WEEKLY_REFRESH", "sometimes")
		t.Setenv("COURT_TIMEZONE", "Mars/Olympus")
		t.Setenv("COURT_LOG_LEVEL", "verbose")

		_, err := Load("")
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{
			"COURT_PORT",
			"COURT_SNAPSHOT_BACKEND",
			"COURT_VIEW_CACHE_TTL",
			"COURT_REFRESH_INTERVAL",
			"COURT_MAX_REQUEST_BYTES",
			"COURT_WEEKLY_REFRESH",
			"COURT_TIMEZONE",
			"COURT_LOG_LEVEL",
		} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in error %q", key, err.Error())
			}
		}
	})
}

func TestLoader_EnvFile(t *testing.T) {

	t.Run("reads values from the file without overriding the environment", func(t *testing.T) {
		unsetCourtEnv(t)
		t.Setenv("COURT_HOST", "10.0.0.1")

		path := filepath.Join(t.TempDir(), ".env")
		content := "COURT_HOST=192.168.0.1\nCOURT_PORT=7000\nCOURT_SNAPSHOT_BACKEND=none\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.Host != "10.0.0.1" {
			t.Fatalf("expected environment to win, got host %q", cfg.Host)
		}
		if cfg.Port != 7000 || cfg.SnapshotBackend != "none" {
			t.Fatalf("expected file values, got port=%d backend=%q", cfg.Port, cfg.SnapshotBackend)
		}
	})

	t.Run("ignores a missing file", func(t *testing.T) {
		unsetCourtEnv(t)

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
		if err != nil {
			t.Fatalf("expected missing env file to be ignored, got %v", err)
		}
		if cfg.Port != 60000 {
			t.Fatalf("expected default port, got %d", cfg.Port)
		}
	})
}

func TestParsePort(t *testing.T) {
	t.Parallel()

	if port, err := ParsePort(" 8080 "); err != nil || port != 8080 {
		t.Fatalf("ParsePort returned %d, %v", port, err)
	}
	for _, value := range []string{"", "abc", "0", "-1", "65536"} {
		if _, err := ParsePort(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}
