// Package warehouse implements the warehouse source: parameterized,
// partition-filtered queries over the public GDELT warehouse tables,
// executed through an async adapter over the underlying synchronous
// Postgres-wire driver, plus ADC-style credential resolution.
package warehouse

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gdelt/pkg/apperror"
	"gdelt/pkg/config"
	"gdelt/pkg/logger"
)

// Conn is the narrow read-only surface the warehouse source needs from a
// connection pool. It is satisfied by *pgxpool.Pool and by pgxmock in
// tests.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
	Ping(ctx context.Context) error
}

// Pool wraps a pgxpool.Pool connected to the warehouse's Postgres-wire
// endpoint.
type Pool struct {
	pool *pgxpool.Pool
	cfg  *config.WarehouseConfig
}

// NewPool opens a connection pool per cfg. It does not resolve credentials;
// callers that need an authenticated session call ResolveCredentials
// separately and attach the bearer token to the DSN or connection options
// as their deployment requires.
func NewPool(ctx context.Context, cfg *config.WarehouseConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeWarehouseFailure, "failed to parse warehouse DSN")
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeWarehouseFailure, "failed to create warehouse connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperror.Wrap(err, apperror.CodeWarehouseFailure, "failed to ping warehouse")
	}

	logger.Log.Info("connected to warehouse",
		"dataset_prefix", cfg.DatasetPrefix,
		"max_conns", cfg.MaxOpenConns,
	)

	return &Pool{pool: pool, cfg: cfg}, nil
}

// Exec runs sql against the pool. Used only by test fixtures; the warehouse
// source itself is read-only.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// Query runs sql against the pool and returns the resulting rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// QueryRow runs sql against the pool and returns a single row.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Close closes the pool.
func (p *Pool) Close() {
	p.pool.Close()
	logger.Log.Info("warehouse connection pool closed")
}

// Ping verifies connectivity; used by gdelt.Client.Ping.
func (p *Pool) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeWarehouseFailure, "warehouse ping failed")
	}
	return nil
}

// Stat returns the underlying pool's statistics.
func (p *Pool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

var _ Conn = (*Pool)(nil)
