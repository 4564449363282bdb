package repository

import (
	"context"
	"sync"
	"time"

	"turn2law-backend/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// ConnectFunc opens a pool for the given configuration
type ConnectFunc func(ctx context.Context, cfg config.DatabaseConfig) (Pool, error)

// Database owns the connection pool. It connects on first use and can be
// closed explicitly; a failed connect is retried by the next caller.
type Database struct {
	cfg     config.DatabaseConfig
	connect ConnectFunc

	mu   sync.Mutex
	pool Pool
}

// DatabaseOption configures a Database
type DatabaseOption func(*Database)

// WithConnectFunc replaces the pgxpool connector
func WithConnectFunc(fn ConnectFunc) DatabaseOption {
	return func(d *Database) {
		d.connect = fn
	}
}

// NewDatabase creates a handle without connecting
func NewDatabase(cfg config.DatabaseConfig, opts ...DatabaseOption) *Database {
	d := &Database{
		cfg:     cfg,
		connect: connectPostgres,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pool returns the connection pool, connecting if needed
func (d *Database) Pool(ctx context.Context) (Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		return d.pool, nil
	}

	pool, err := d.connect(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	d.pool = pool
	zap.L().Info("database: connected",
		zap.Int32("max_conns", d.cfg.MaxConns),
		zap.Int32("min_conns", d.cfg.MinConns),
	)
	return d.pool, nil
}

// Close releases the pool. The next call to Pool reconnects.
func (d *Database) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "database: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "database: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "database: ping")
	}
	return pool, nil
}
