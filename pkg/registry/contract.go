package registry

import (
	"context"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

// QueryConn is the slice of a warehouse connection the registry needs: async
// submission, status checks, result fetch and server-side cancel. The
// pkg/snowflake package implements it over the gosnowflake driver; tests
// substitute their own.
//
// All methods block; the registry only invokes them through its
// BlockingExecutor.
type QueryConn interface {
	// SubmitAsync submits sql without waiting for completion and returns the
	// server-side query id.
	SubmitAsync(ctx context.Context, sql string) (string, error)

	// QueryStatus reports the server-side progress of a submitted query.
	QueryStatus(ctx context.Context, serverID string) (kernel.QueryProgress, error)

	// QueryResult fetches the inline result of a finished query, retaining at
	// most maxRows rows. The returned TotalRows reflects the server-side count.
	QueryResult(ctx context.Context, serverID string, maxRows int) (*kernel.QueryResult, error)

	// CancelQuery requests server-side cancellation of a running query.
	CancelQuery(ctx context.Context, serverID string) error

	// Close releases the connection.
	Close() error
}

// ConnectionProvider opens fresh connections on demand. The registry opens a
// new connection per query, and another short-lived one per cancel, so a
// poller's in-flight call never shares a handle with out-of-band work.
type ConnectionProvider interface {
	NewConnection(ctx context.Context) (QueryConn, error)

	// CloseSafely closes conn best-effort; it must never panic or return.
	CloseSafely(conn QueryConn)
}
