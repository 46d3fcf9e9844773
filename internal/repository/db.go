package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dshalev/slide-explainer/gen/ent"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// InMemoryDSN is the shared-cache SQLite DSN used by -inmem runs and tests.
const InMemoryDSN = "file:explainer?mode=memory&cache=shared&_pragma=foreign_keys(1)"

// InitResult bundles the open handles so callers can tear them down in one call.
type InitResult struct {
	Client *ent.Client
	Pool   *pgxpool.Pool // nil when running on SQLite
	db     *sql.DB
	logger *slog.Logger
}

// InitDatabase opens the store for the configured DSN. Postgres DSNs go
// through a pgx pool; anything else (or inmem=true) opens modernc SQLite.
// SQLite runs the schema migration on open, matching the original boot path.
func InitDatabase(ctx context.Context, cfg Config, inmem bool, logger *slog.Logger) (*InitResult, error) {
	if inmem || isSQLiteDSN(cfg.DSN) {
		dsn := cfg.DSN
		if inmem {
			dsn = InMemoryDSN
		}
		return openSQLite(ctx, dsn, logger)
	}
	return openPostgres(ctx, cfg, logger)
}

func isSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite:") ||
		strings.HasPrefix(dsn, "file:") ||
		dsn == ":memory:"
}

// openPostgres creates a pgx pool, wraps it for Ent, and returns both.
func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*InitResult, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "slide-explainer"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for Ent
	db := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, db)
	client := ent.NewClient(ent.Driver(drv))

	logger.Info("successfully connected to database")
	return &InitResult{Client: client, Pool: pool, db: db, logger: logger}, nil
}

// openSQLite opens a modernc SQLite handle and migrates the schema.
func openSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*InitResult, error) {
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		if strings.Contains(dsn, "?") {
			dsn += "&_pragma=foreign_keys(1)"
		} else {
			dsn += "?_pragma=foreign_keys(1)"
		}
	}
	logger.Info("opening sqlite database", "dsn", dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, err
	}
	// modernc serializes writers; a single conn avoids SQLITE_BUSY races.
	db.SetMaxOpenConns(1)

	drv := entsql.OpenDB(dialect.SQLite, db)
	client := ent.NewClient(ent.Driver(drv))

	if err := client.Schema.Create(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlite schema migration: %w", err)
	}

	logger.Info("sqlite database ready")
	return &InitResult{Client: client, db: db, logger: logger}, nil
}

// Cleanup closes the database connections gracefully
func (r *InitResult) Cleanup() {
	r.logger.Info("closing database connections")
	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			r.logger.Error("failed to close ent client", "error", err)
		}
	}
	if r.Pool != nil {
		r.Pool.Close()
	}
	r.logger.Info("database connections closed")
}

// HealthCheck pings the underlying handle to catch DSN issues early.
func (r *InitResult) HealthCheck(ctx context.Context, timeout time.Duration) error {
	r.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if r.Pool != nil {
		return r.Pool.Ping(ctx)
	}
	return r.db.PingContext(ctx)
}
