// Package postgres is the server database backend, built on a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/database"
)

func init() {
	database.Register(database.DriverPostgres, NewConnection)
}

// ApplicationName tags eventline sessions in pg_stat_activity.
const ApplicationName = "eventline"

var errNoLastInsertID = errors.New("postgres: LastInsertId is unsupported, use RETURNING")

// querier is the part of *pgxpool.Pool and pgx.Tx the executor needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// executor rebinds '?' placeholders to $n before handing queries to pgx.
type executor struct {
	q querier
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	tag, err := e.q.Exec(ctx, database.DriverPostgres.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return commandResult{tag: tag}, nil
}

func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return e.q.QueryRow(ctx, database.DriverPostgres.Rebind(query), args...)
}

func (e executor) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := e.q.Query(ctx, database.DriverPostgres.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return rowIterator{rows: rows}, nil
}

// Connection is a database.Connection over a pgx pool.
type Connection struct {
	executor
	pool *pgxpool.Pool
}

// NewConnection opens a pool for cfg.URL and checks it with a ping.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{executor: executor{q: pool}, pool: pool}, nil
}

// PoolConfig parses cfg into a pool configuration without connecting.
func PoolConfig(cfg database.Config) (*pgxpool.Config, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required for PostgreSQL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	return poolConfig, nil
}

func (c *Connection) Driver() database.Driver { return database.DriverPostgres }

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}

func (c *Connection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &transaction{executor: executor{q: tx}, tx: tx}, nil
}

type transaction struct {
	executor
	tx pgx.Tx
}

func (t *transaction) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *transaction) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

type commandResult struct {
	tag pgconn.CommandTag
}

func (r commandResult) RowsAffected() (int64, error) { return r.tag.RowsAffected(), nil }
func (r commandResult) LastInsertId() (int64, error) { return 0, errNoLastInsertID }

type rowIterator struct {
	rows pgx.Rows
}

func (r rowIterator) Next() bool             { return r.rows.Next() }
func (r rowIterator) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r rowIterator) Err() error             { return r.rows.Err() }

func (r rowIterator) Close() error {
	r.rows.Close()
	return nil
}
