package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/promibe/poshbot/internal/api"
	"github.com/promibe/poshbot/internal/lockfile"
	"github.com/promibe/poshbot/internal/store"
)

// shutdownTimeout bounds how long in-flight requests get on shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("Poshbotd failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Poshbotd exited successfully")
}

// Config holds environment configuration.
type Config struct {
	APIAddr string
	DBDSN   string
}

// Flags holds command line flag values.
type Flags struct {
	apiAddr *string
	dbDSN   *string
}

// initializeLogger sets up structured logging with the level taken from the
// environment.
func initializeLogger() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("POSHBOT_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and a
// .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		APIAddr: os.Getenv("POSHBOT_API_ADDR"),
		DBDSN:   os.Getenv("POSHBOT_DB_DSN"),
	}
	if config.DBDSN == "" {
		config.DBDSN = os.Getenv("DATABASE_URL")
		if config.DBDSN != "" {
			slog.Debug("Using DATABASE_URL as POSHBOT_DB_DSN", "dsn_set", true)
		}
	}

	slog.Debug("environment variables loaded",
		"POSHBOT_API_ADDR", config.APIAddr,
		"POSHBOT_DB_DSN_SET", config.DBDSN != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		apiAddr: flag.String("api-addr", config.APIAddr, "API server address (overrides $POSHBOT_API_ADDR)"),
		dbDSN:   flag.String("db-dsn", config.DBDSN, "database DSN, SQLite path or PostgreSQL URL (overrides $POSHBOT_DB_DSN or $DATABASE_URL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"apiAddr", *flags.apiAddr,
		"dbDSN_set", *flags.dbDSN != "")

	return flags
}

// buildStore selects a storage backend from the DSN: PostgreSQL for
// connection strings, SQLite for file paths, in-memory when no DSN is
// configured.
func buildStore(dsn string) (store.Store, error) {
	if dsn == "" {
		slog.Info("No database DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Info("Detected PostgreSQL DSN, using PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Info("Detected SQLite DSN, using SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// run starts the API server and blocks until a termination signal arrives.
func run(flags Flags) error {
	dsn := *flags.dbDSN
	if dsn != "" && store.DetectDSNType(dsn) == "sqlite" {
		lock, err := lockfile.Acquire(filepath.Dir(dsn))
		if err != nil {
			return fmt.Errorf("failed to lock database directory: %w", err)
		}
		defer lock.Release()
	}

	st, err := buildStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to build store: %w", err)
	}
	defer st.Close()

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	srv := api.NewServer(st, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Termination signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return <-errCh
}
