package config

import "time"

// DefaultScheme is the URL scheme used by every deployed environment.
const DefaultScheme = "postgresql+asyncpg"

// DatabaseConfig holds connection URL and pool configuration.
// The connection parameters themselves (DB_HOST, DB_PORT, ...) are resolved
// through the secret provider, not here.
type DatabaseConfig struct {
	Scheme string `env:"DATABASE_SCHEME" default:"postgresql+asyncpg" validate:"required"`

	PoolSize    int           `env:"DB_POOL_SIZE" default:"5" validate:"min=1"`
	MaxOverflow int           `env:"DB_MAX_OVERFLOW" default:"10" validate:"min=0"`
	PoolRecycle time.Duration `env:"DB_POOL_RECYCLE" default:"5s" validate:"min=0"`
	PrePing     bool          `env:"DB_POOL_PRE_PING" default:"true"`

	// MigrationsDir, when set, is applied with goose right after the pool is probed.
	MigrationsDir string `env:"DB_MIGRATIONS_DIR"`
}
