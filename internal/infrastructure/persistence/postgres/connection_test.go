package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_PostgresPoolSettings(t *testing.T) {
	engine, err := Open(context.Background(), "postgresql+asyncpg://u:p@localhost:5432/d", PoolConfig{
		PoolSize:    5,
		MaxOverflow: 10,
		Recycle:     5 * time.Second,
		PrePing:     true,
	})
	require.NoError(t, err)
	defer engine.Close()

	require.NotNil(t, engine.Pool())
	assert.Nil(t, engine.DB())
	assert.Equal(t, DriverPostgres, engine.Driver())

	cfg := engine.Pool().Config()
	assert.Equal(t, int32(15), cfg.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.MaxConnLifetime)
	assert.NotNil(t, cfg.BeforeAcquire)
	assert.Equal(t, "localhost", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), cfg.ConnConfig.Port)
	assert.Equal(t, "u", cfg.ConnConfig.User)
	assert.Equal(t, "p", cfg.ConnConfig.Password)
	assert.Equal(t, "d", cfg.ConnConfig.Database)
}

func TestOpen_PostgresDefaults(t *testing.T) {
	engine, err := Open(context.Background(), "postgresql://u:p@localhost:5432/d", PoolConfig{})
	require.NoError(t, err)
	defer engine.Close()

	cfg := engine.Pool().Config()
	assert.Equal(t, int32(5), cfg.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.MaxConnLifetime)
	assert.Nil(t, cfg.BeforeAcquire)
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "not a url", PoolConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing scheme")

	_, err = Open(context.Background(), "postgresql://u:p@h:notaport/d", PoolConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse connection string")
}

func TestNewEngine_SQLiteMemory(t *testing.T) {
	ctx := context.Background()

	engine, err := NewEngine(ctx, "sqlite+aiosqlite:///:memory:", PoolConfig{})
	require.NoError(t, err)
	defer engine.Close()

	assert.Equal(t, DriverSQLite, engine.Driver())
	require.NotNil(t, engine.DB())
	assert.Nil(t, engine.Pool())
	require.NoError(t, engine.Ping(ctx))
}

func TestNewEngine_SQLiteMigrations(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	migration := `-- +goose Up
CREATE TABLE connection_checks (id INTEGER PRIMARY KEY, checked_at TEXT NOT NULL);

-- +goose Down
DROP TABLE connection_checks;
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_connection_checks.sql"), []byte(migration), 0o600))

	dbPath := filepath.Join(t.TempDir(), "app.db")
	engine, err := NewEngine(ctx, "sqlite:///"+dbPath, PoolConfig{PoolSize: 2, MigrationsDir: dir})
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.DB().ExecContext(ctx, "INSERT INTO connection_checks (checked_at) VALUES ('now')")
	require.NoError(t, err)

	var count int
	require.NoError(t, engine.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM connection_checks").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewEngine_MigrationFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_broken.sql"), []byte("-- +goose Up\nTHIS IS NOT SQL;\n"), 0o600))

	_, err := NewEngine(context.Background(), "sqlite:///:memory:", PoolConfig{MigrationsDir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}

// TestNewEngine_Postgres runs against a real server when DBSETTINGS_TEST_DSN is set.
func TestNewEngine_Postgres(t *testing.T) {
	dsn := os.Getenv("DBSETTINGS_TEST_DSN")
	if dsn == "" {
		t.Skip("DBSETTINGS_TEST_DSN not set, skipping PostgreSQL tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engine, err := NewEngine(ctx, dsn, PoolConfig{PrePing: true})
	require.NoError(t, err)
	defer engine.Close()

	var one int
	require.NoError(t, engine.Pool().QueryRow(ctx, "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}
