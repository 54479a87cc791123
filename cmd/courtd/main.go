package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/config"
	httptransport "github.com/example/court-scheduler/internal/http"
	"github.com/example/court-scheduler/internal/logging"
	"github.com/example/court-scheduler/internal/persistence"
	"github.com/example/court-scheduler/internal/persistence/jsonfile"
	"github.com/example/court-scheduler/internal/persistence/postgres"
	"github.com/example/court-scheduler/internal/persistence/sqlite"
	"github.com/example/court-scheduler/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	var envFile, usersFile string

	root := &cobra.Command{
		Use:   "courtd [host] [port]",
		Short: "Run the tennis court reservation server",
		Long: "Serve the weekly court schedule over TCP. Host and port default to " +
			"COURT_HOST and COURT_PORT; positional arguments override them.",
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := applyArgs(&cfg, args); err != nil {
				return err
			}
			if usersFile != "" {
				cfg.UsersFile = usersFile
			}

			logger := logging.NewJSONLogger(stdout, cfg.LogLevel)
			if err := run(cmd.Context(), cfg, logger, nil); err != nil {
				logger.Error("server encountered error", "error", err)
				return err
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file with COURT_* variables")
	root.Flags().StringVar(&usersFile, "users", "", "YAML file with the user table (overrides COURT_USERS_FILE)")

	root.AddCommand(newHashPasswordCommand())
	return root
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print an argon2id hash for the users file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := application.CreatePasswordHash(args[0], application.DefaultArgon2idParams)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func applyArgs(cfg *config.Config, args []string) error {
	if len(args) > 0 && args[0] != "" {
		cfg.Host = args[0]
	}
	if len(args) > 1 {
		port, err := config.ParsePort(args[1])
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	return nil
}

// run wires the services and serves until ctx ends. A nil listener binds cfg.Addr().
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, ln net.Listener) error {
	creds, err := config.LoadUsers(cfg.UsersFile)
	if err != nil {
		return err
	}
	directory, err := application.NewUserDirectory(creds)
	if err != nil {
		return fmt.Errorf("invalid user table: %w", err)
	}

	store, closeStore, err := openSnapshotStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close snapshot store", "error", cerr)
		}
	}()

	sessions := application.NewSessionStore(nil)
	authService := application.NewAuthServiceWithLogger(directory, sessions, time.Now, logger)
	reservationService := application.NewReservationServiceWithLogger(store, cfg.ViewCacheTTL, logger)
	restored := reservationService.Restore(ctx)
	logger.Info("schedule restored", "reservations", restored, "backend", cfg.SnapshotBackend)

	if cfg.WeeklyRefresh {
		refresher := application.NewWeeklyRefresher(reservationService, time.Now, cfg.Location, cfg.RefreshInterval, logger)
		refresher.Start(ctx)
		defer refresher.Stop()
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Admin:        httptransport.NewAdminHandler(reservationService, authService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Sessions:     authService,
		Middleware:   []httptransport.Middleware{httptransport.RequestLogger(logger)},
		Logger:       logger,
	})

	srv, err := server.New(router, server.Config{
		ConnTimeout:     cfg.ConnTimeout,
		MaxRequestBytes: cfg.MaxRequestBytes,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	if ln == nil {
		ln, err = net.Listen("tcp", cfg.Addr())
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
		}
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	logger.Info("court server listening", "addr", ln.Addr().String(), "users", len(directory.Usernames()))

	select {
	case <-ctx.Done():
	case err := <-served:
		if err != nil && !errors.Is(err, server.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}
	if err := <-served; err != nil && !errors.Is(err, server.ErrServerClosed) {
		return err
	}
	return nil
}

// openSnapshotStore builds the configured backend and applies its migrations.
func openSnapshotStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (application.SnapshotStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SnapshotBackend {
	case persistence.BackendJSON:
		store, err := jsonfile.New(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using json snapshot", "path", store.Path())
		return store, noop, nil

	case persistence.BackendSQLite:
		store, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLitePath))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		version, err := store.Migrate(ctx)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("using sqlite snapshot", "path", cfg.SQLitePath, "schema_version", version)
		return store, store.Close, nil

	case persistence.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		version, err := store.Migrate(ctx)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("using postgres snapshot", "schema_version", version)
		return store, store.Close, nil

	case persistence.BackendNone:
		logger.Info("snapshots disabled")
		return persistence.Discard, noop, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", persistence.ErrUnknownBackend, cfg.SnapshotBackend)
	}
}
