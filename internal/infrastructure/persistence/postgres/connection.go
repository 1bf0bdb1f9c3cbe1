package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite" // SQLite driver for local and test URLs
)

// Drivers an Engine can be backed by.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	PoolSize      int           // Persistent connections (default: 5)
	MaxOverflow   int           // Extra connections allowed under load (default: 10)
	Recycle       time.Duration // Connection max lifetime (default: 5s)
	PrePing       bool          // Ping every connection before handing it out
	MigrationsDir string        // Optional goose migrations applied after the probe
}

// Engine is an open, pooled database handle. Exactly one of Pool and DB is set,
// depending on Driver.
type Engine struct {
	driver string
	pool   *pgxpool.Pool
	db     *sql.DB
}

// Driver returns DriverPostgres or DriverSQLite.
func (e *Engine) Driver() string {
	return e.driver
}

// Pool returns the PostgreSQL connection pool, or nil for SQLite engines.
func (e *Engine) Pool() *pgxpool.Pool {
	return e.pool
}

// DB returns the database/sql handle, or nil for PostgreSQL engines.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// Ping checks out a connection and verifies the server answers.
func (e *Engine) Ping(ctx context.Context) error {
	if e.pool != nil {
		return e.pool.Ping(ctx)
	}
	return e.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (e *Engine) Close() error {
	if e.pool != nil {
		e.pool.Close()
		return nil
	}
	return e.db.Close()
}

// OpenFunc opens an engine without probing it.
type OpenFunc func(ctx context.Context) (*Engine, error)

// NewEngine opens a pooled engine for url, probes it, and applies migrations
// when cfg.MigrationsDir is set. Connectivity failures are translated into
// domain database errors.
func NewEngine(ctx context.Context, url string, cfg PoolConfig) (*Engine, error) {
	open := WithHealthCheck(func(ctx context.Context) (*Engine, error) {
		return Open(ctx, url, cfg)
	})

	engine, err := open(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.MigrationsDir != "" {
		if err := RunMigrations(ctx, engine, cfg.MigrationsDir); err != nil {
			if closeErr := engine.Close(); closeErr != nil {
				slog.ErrorContext(ctx, "failed to close engine after migration failure", "error", closeErr)
			}
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return engine, nil
}

// Open creates the pool for url without contacting the server. URLs whose
// scheme starts with "sqlite" open a SQLite database; anything else is
// handed to pgx.
func Open(ctx context.Context, url string, cfg PoolConfig) (*Engine, error) {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return nil, fmt.Errorf("invalid database url: missing scheme")
	}

	// Driver suffixes like "+asyncpg" or "+aiosqlite" name client libraries,
	// not protocols.
	base, _, _ := strings.Cut(scheme, "+")

	if base == DriverSQLite {
		return openSQLite(rest, cfg)
	}
	return openPostgres(ctx, base+"://"+rest, cfg)
}

func openPostgres(ctx context.Context, dsn string, cfg PoolConfig) (*Engine, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Configure connection pool with defaults if not set
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 5
	}
	overflow := cfg.MaxOverflow
	if overflow < 0 {
		overflow = 0
	}
	recycle := cfg.Recycle
	if recycle <= 0 {
		recycle = 5 * time.Second
	}

	poolConfig.MaxConns = int32(poolSize + overflow)
	poolConfig.MaxConnLifetime = recycle
	poolConfig.MaxConnIdleTime = recycle

	if cfg.PrePing {
		poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
			return conn.Ping(ctx) == nil
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &Engine{driver: DriverPostgres, pool: pool}, nil
}

func openSQLite(rest string, cfg PoolConfig) (*Engine, error) {
	// sqlite:///relative.db and sqlite:////absolute.db
	path := strings.TrimPrefix(rest, "/")
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize + max(cfg.MaxOverflow, 0))
		db.SetMaxIdleConns(cfg.PoolSize)
	}
	if cfg.Recycle > 0 && path != ":memory:" {
		db.SetConnMaxLifetime(cfg.Recycle)
	}

	return &Engine{driver: DriverSQLite, db: db}, nil
}
