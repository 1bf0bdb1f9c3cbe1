package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/dbsettings/internal/config"
	"github.com/rezkam/dbsettings/internal/infrastructure/observability"
	"github.com/rezkam/dbsettings/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/dbsettings/internal/instrument"
	"github.com/rezkam/dbsettings/internal/secret"
	"github.com/rezkam/dbsettings/internal/settings"
	"github.com/rezkam/dbsettings/internal/validation"
)

func main() {
	if err := run(); err != nil {
		// slog may not be initialised if config fails
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	skipConnect := flag.Bool("skip-connect", false, "Resolve the database URL without opening a connection")
	allowInt := flag.Bool("allow-int", false, "Accept integer parameter values in addition to strings")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration via OTEL_* env vars (endpoint, headers, resource attributes)
	providers, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		// Use a timeout to prevent hanging if collector is unreachable
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown telemetry providers", "error", err)
		}
	}()
	slog.SetDefault(providers.Logger)

	slog.InfoContext(ctx, "resolving database settings",
		"develop_mode", cfg.DevelopMode,
		"secret_backend", cfg.Secrets.Backend,
		"scheme", cfg.Database.Scheme,
	)

	provider, err := secret.New(ctx, cfg.DevelopMode, cfg.Secrets)
	if err != nil {
		return fmt.Errorf("failed to create secret provider: %w", err)
	}

	mode := validation.StringOnly
	if *allowInt {
		mode = validation.StringOrInt
	}

	dbSettings := instrument.Profiled(cfg.ProfilerMode, os.Stdout,
		settings.NewDatabaseSettings(cfg.Database.Scheme, provider, validation.NewParameterValidator(mode), settings.EnvDefaults))

	s, err := instrument.TimedValue(ctx, "settings.NewSettings", func(ctx context.Context) (*settings.Settings, error) {
		return settings.NewSettings(ctx, dbSettings)
	})
	if err != nil {
		newCleanup(provider, nil)()
		return fmt.Errorf("failed to resolve database settings: %w", err)
	}

	slog.InfoContext(ctx, "database settings resolved", "url", maskPassword(s.DatabaseURL()))

	if *skipConnect {
		newCleanup(provider, nil)()
		return nil
	}

	engine, err := instrument.TimedValue(ctx, "postgres.NewEngine", func(ctx context.Context) (*postgres.Engine, error) {
		return postgres.NewEngine(ctx, s.DatabaseURL(), postgres.PoolConfig{
			PoolSize:      cfg.Database.PoolSize,
			MaxOverflow:   cfg.Database.MaxOverflow,
			Recycle:       cfg.Database.PoolRecycle,
			PrePing:       cfg.Database.PrePing,
			MigrationsDir: cfg.Database.MigrationsDir,
		})
	})
	if err != nil {
		newCleanup(provider, nil)()
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer newCleanup(provider, engine)()

	slog.InfoContext(ctx, "database engine ready", "driver", engine.Driver())

	return nil
}

// maskPassword masks the password in a connection string for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		// If parsing fails, fall back to full redaction to be safe
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
