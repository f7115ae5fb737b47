package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	accountsyncmigrations "github.com/goliatone/go-accountsync/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DatabaseConfig satisfies the go-persistence-bun config contract.
type DatabaseConfig struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
	// Migrate applies the embedded migrations after opening.
	Migrate bool
}

func (c DatabaseConfig) GetDebug() bool {
	return c.Debug
}

func (c DatabaseConfig) GetDriver() string {
	return c.Driver
}

func (c DatabaseConfig) GetServer() string {
	return c.DSN
}

func (c DatabaseConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c DatabaseConfig) GetOtelIdentifier() string {
	return "go-accountsync"
}

func OpenPostgres(ctx context.Context, dsn string, migrate bool) (*persistence.Client, error) {
	return Open(ctx, DatabaseConfig{Driver: DriverPostgres, DSN: dsn, Migrate: migrate})
}

func OpenSQLite(ctx context.Context, dsn string, migrate bool) (*persistence.Client, error) {
	return Open(ctx, DatabaseConfig{Driver: DriverSQLite, DSN: dsn, Migrate: migrate})
}

// Open builds a persistence client for the configured driver and registers
// the migrations of the matching dialect.
func Open(ctx context.Context, cfg DatabaseConfig) (*persistence.Client, error) {
	cfg.Driver = strings.TrimSpace(strings.ToLower(cfg.Driver))
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: database dsn is required")
	}

	var (
		dialect          schema.Dialect
		migrationDialect string
	)
	switch cfg.Driver {
	case DriverPostgres:
		dialect = pgdialect.New()
		migrationDialect = accountsyncmigrations.DialectPostgres
	case DriverSQLite:
		dialect = sqlitedialect.New()
		migrationDialect = accountsyncmigrations.DialectSQLite
	default:
		return nil, fmt.Errorf("sqlstore: unsupported database driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	_, err = accountsyncmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != migrationDialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, accountsyncmigrations.WithDialects(migrationDialect))
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	if cfg.Migrate {
		if err := client.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return client, nil
}
