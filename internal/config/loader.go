package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/court-scheduler/internal/logging"
	"github.com/example/court-scheduler/internal/persistence"
)

// Config captures environment driven configuration values for the court server.
type Config struct {
	Host            string
	Port            int
	SnapshotBackend string
	SnapshotPath    string
	SQLitePath      string
	PostgresDSN     string
	UsersFile       string
	ViewCacheTTL    time.Duration
	ConnTimeout     time.Duration
	MaxRequestBytes int
	WeeklyRefresh   bool
	RefreshInterval time.Duration
	Location        *time.Location
	LogLevel        slog.Level
}

// Addr returns the host:port the server listens on.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            60000,
		SnapshotBackend: persistence.BackendJSON,
		SnapshotPath:    "court_schedule.json",
		SQLitePath:      "court_schedule.db",
		ViewCacheTTL:    5 * time.Second,
		ConnTimeout:     30 * time.Second,
		MaxRequestBytes: 64 * 1024,
		RefreshInterval: time.Minute,
		Location:        time.Local,
		LogLevel:        slog.LevelInfo,
	}
}

// Load parses configuration values from the process environment after
// applying envFile, when it exists. Variables already present in the
// environment win over the file.
//
// Optional fields fall back to defaults. Every missing or invalid entry is
// reported in a single error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := Default()
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if host := env("COURT_HOST"); host != "" {
		cfg.Host = host
	}

	if portValue := env("COURT_PORT"); portValue != "" {
		port, err := ParsePort(portValue)
		if err != nil {
			invalid = append(invalid, "COURT_PORT")
		} else {
			cfg.Port = port
		}
	}

	if backendValue := env("COURT_SNAPSHOT_BACKEND"); backendValue != "" {
		backend, err := persistence.ParseBackend(backendValue)
		if err != nil {
			invalid = append(invalid, "COURT_SNAPSHOT_BACKEND")
		} else {
			cfg.SnapshotBackend = backend
		}
	}

	if path := env("COURT_SNAPSHOT_PATH"); path != "" {
		cfg.SnapshotPath = path
	}
	if path := env("COURT_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	cfg.PostgresDSN = env("COURT_POSTGRES_DSN")
	if cfg.SnapshotBackend == persistence.BackendPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "COURT_POSTGRES_DSN")
	}

	cfg.UsersFile = env("COURT_USERS_FILE")

	durations := []struct {
		key      string
		target   *time.Duration
		positive bool
	}{
		{key: "COURT_VIEW_CACHE_TTL", target: &cfg.ViewCacheTTL},
		{key: "COURT_CONN_TIMEOUT", target: &cfg.ConnTimeout},
		{key: "COURT_REFRESH_INTERVAL", target: &cfg.RefreshInterval, positive: true},
	}
	for _, d := range durations {
		value := env(d.key)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed < 0 || (d.positive && parsed == 0) {
			invalid = append(invalid, d.key)
			continue
		}
		*d.target = parsed
	}

	if sizeValue := env("COURT_MAX_REQUEST_BYTES"); sizeValue != "" {
		size, err := strconv.Atoi(sizeValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "COURT_MAX_REQUEST_BYTES")
		} else {
			cfg.MaxRequestBytes = size
		}
	}

	if refreshValue := env("COURT_WEEKLY_REFRESH"); refreshValue != "" {
		enabled, err := strconv.ParseBool(refreshValue)
		if err != nil {
			invalid = append(invalid, "COURT_WEEKLY_REFRESH")
		} else {
			cfg.WeeklyRefresh = enabled
		}
	}

	if tz := env("COURT_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "COURT_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if levelValue := env("COURT_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "COURT_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// ParsePort validates a TCP port given as text.
func ParsePort(value string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", value, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
