// Package snowflake adapts the gosnowflake driver to the shapes the rest of
// the server consumes: a provider handing out dedicated per-query sessions, a
// connection wrapper speaking the async protocol (submit, status, fetch by
// query id, server-side cancel), and a client for one-shot catalog queries.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/registry"
)

const (
	connectRetryInitialInterval = 500 * time.Millisecond
	connectRetryMaxElapsed      = 15 * time.Second
)

// Provider opens dedicated Snowflake sessions. Each asynchronous query gets
// its own session so cancellation and teardown never interfere with other
// queries sharing a pool connection.
type Provider struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProvider validates cfg and prepares the underlying pool. Sessions are
// not opened until NewConnection is called.
func NewProvider(cfg Config, logger *zap.Logger) (*Provider, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snowflake pool: %w", err)
	}
	// The pool exists to mint dedicated sessions, not to multiplex; keep a
	// small idle reserve so repeated submissions reuse warm sessions.
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Provider{db: db, logger: logger}, nil
}

// NewConnection reserves a dedicated session, retrying transient failures
// with exponential backoff.
func (p *Provider) NewConnection(ctx context.Context) (registry.QueryConn, error) {
	connID := uuid.NewString()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = connectRetryInitialInterval
	policy.MaxElapsedTime = connectRetryMaxElapsed

	var raw *sql.Conn
	operation := func() error {
		var err error
		raw, err = p.db.Conn(ctx)
		if err != nil {
			p.logger.Warn("snowflake connect attempt failed",
				zap.String("conn_id", connID), zap.Error(err))
			return err
		}
		return nil
	}
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("connect to snowflake: %w", err)
	}

	p.logger.Debug("snowflake session reserved", zap.String("conn_id", connID))
	return &Conn{raw: raw, id: connID, logger: p.logger}, nil
}

// CloseSafely closes conn swallowing errors; a failed close must never
// propagate into query lifecycle handling.
func (p *Provider) CloseSafely(conn registry.QueryConn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		p.logger.Debug("connection close failed", zap.Error(err))
	}
}

// DB exposes the shared pool for synchronous one-shot queries.
func (p *Provider) DB() *sql.DB {
	return p.db
}

// Close releases the pool.
func (p *Provider) Close() error {
	return p.db.Close()
}
