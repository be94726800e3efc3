// Package pg wraps the daemon's single PostgreSQL connection pool. The auth
// daemon is single-writer by design (internal/daemon serializes every
// mutation through one goroutine), but read paths and the pool's own retry
// logic still benefit from pgx's connection pooling and context-aware API.
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/log"
)

// Pool is a thin wrapper over pgxpool.Pool that reconnects lazily: if the
// pool was never established (or the database was down at startup) the next
// query attempts a fresh Connect instead of failing forever.
type Pool struct {
	dsn  string
	pool *pgxpool.Pool
}

// Open builds a Pool bound to dsn. It does not connect immediately; the
// first query establishes the pool, matching the reconnect-before-next-op
// behavior described for the vault store.
func Open(dsn string) *Pool {
	return &Pool{dsn: dsn}
}

// Acquire returns the live pgxpool.Pool, connecting it first if necessary.
func (p *Pool) Acquire(ctx context.Context) (*pgxpool.Pool, error) {
	if p.pool != nil {
		return p.pool, nil
	}
	cfg, err := pgxpool.ParseConfig(p.dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.I.F("connected to postgres")
	p.pool = pool
	return p.pool, nil
}

// Close releases the pool, if one was ever established.
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Query runs fn against a live pool, first making one connect attempt if
// the pool has not been established yet. A failed connect is returned, not
// retried.
func (p *Pool) Query(ctx context.Context, fn func(pool *pgxpool.Pool) error) error {
	pool, err := p.Acquire(ctx)
	if chk.E(err) {
		return err
	}
	return fn(pool)
}

// IsNoRows reports whether err is the pgx sentinel for a query that matched
// no rows, the way callers across the store packages need to distinguish
// "not found" from a real database failure.
func IsNoRows(err error) bool { return err == pgx.ErrNoRows }
