// Package main implements the userfile API server: user records with file
// uploads, a cache-aside file lookup and background image processing.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/userfile-api/internal/config"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/phrazzld/userfile-api/internal/platform/postgres"
)

// options are the command-line flags.
type options struct {
	// migrate runs a goose command ("up", "down", "status") and exits.
	migrate string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.migrate, "migrate", "", "run a migration command (up, down, status) and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	switch opts.migrate {
	case "", postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus:
	default:
		return options{}, fmt.Errorf("invalid -migrate value %q: want up, down or status", opts.migrate)
	}
	return opts, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "userfile-api: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"cache_backend", cfg.Cache.Backend,
		"task_backend", cfg.Task.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer closeDB(db, log)
		return postgres.Migrate(ctx, db, opts.migrate, log)
	}

	if err := postgres.Migrate(ctx, db, postgres.MigrateUp, log); err != nil {
		closeDB(db, log)
		return err
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		closeDB(db, log)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

func closeDB(db interface{ Close() error }, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("error closing database connection", "error", err)
	}
}
