package snowflake

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
	"github.com/JailtonJunior94/snowflake-mcp/pkg/registry"
)

// Conn wraps one dedicated Snowflake session with the asynchronous query
// protocol: submit-and-detach, status probe, fetch by server query id, and
// server-side cancel.
type Conn struct {
	raw    *sql.Conn
	id     string
	logger *zap.Logger
}

// SubmitAsync dispatches sql in async mode and returns the server-assigned
// query id without waiting for the query to finish.
func (c *Conn) SubmitAsync(ctx context.Context, sql string) (string, error) {
	var serverID string
	err := c.raw.Raw(func(driverConn any) error {
		queryer, ok := driverConn.(driver.QueryerContext)
		if !ok {
			return errors.New("driver connection does not support QueryerContext")
		}
		rows, err := queryer.QueryContext(gosnowflake.WithAsyncMode(ctx), sql, nil)
		if err != nil {
			return err
		}
		defer rows.Close()

		sfRows, ok := rows.(gosnowflake.SnowflakeRows)
		if !ok {
			return errors.New("driver did not return snowflake rows")
		}
		serverID = sfRows.GetQueryID()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("submit async query: %w", err)
	}
	if serverID == "" {
		return "", errors.New("driver returned an empty query id")
	}

	c.logger.Debug("async query submitted",
		zap.String("conn_id", c.id), zap.String("sfqid", serverID))
	return serverID, nil
}

// QueryStatus probes the server for the current state of serverID. The driver
// reports "still running" and "reported an error" through typed errors, which
// are mapped onto the progress states here; any other error is returned as-is.
func (c *Conn) QueryStatus(ctx context.Context, serverID string) (kernel.QueryProgress, error) {
	var statusErr error
	err := c.raw.Raw(func(driverConn any) error {
		sfConn, ok := driverConn.(gosnowflake.SnowflakeConnection)
		if !ok {
			return errors.New("driver connection does not expose query status")
		}
		_, statusErr = sfConn.GetQueryStatus(ctx, serverID)
		return nil
	})
	if err != nil {
		return kernel.QueryProgress{}, err
	}

	if statusErr == nil {
		return kernel.QueryProgress{State: kernel.StateSucceeded}, nil
	}

	var sfErr *gosnowflake.SnowflakeError
	if errors.As(statusErr, &sfErr) {
		if sfErr.Number == gosnowflake.ErrQueryIsRunning {
			return kernel.QueryProgress{State: kernel.StateRunning}, nil
		}
		code := sfErr.Number
		return kernel.QueryProgress{
			State:   kernel.StateFailed,
			Message: sfErr.Message,
			Code:    &code,
		}, nil
	}
	return kernel.QueryProgress{}, statusErr
}

// QueryResult retrieves the result set of a finished query by its server
// query id. All rows are scanned so TotalRows reflects the full server-side
// count; at most maxRows are retained. A negative maxRows keeps everything.
func (c *Conn) QueryResult(ctx context.Context, serverID string, maxRows int) (*kernel.QueryResult, error) {
	rows, err := c.raw.QueryContext(gosnowflake.WithFetchResultByID(ctx, serverID), "")
	if err != nil {
		return nil, fmt.Errorf("fetch result for %s: %w", serverID, err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: read column metadata: %v", registry.ErrResultDecode, err)
	}
	columns := make([]kernel.ColumnMeta, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = kernel.ColumnMeta{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	result := &kernel.QueryResult{Rows: []kernel.Row{}, Columns: columns}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		result.TotalRows++
		if maxRows >= 0 && len(result.Rows) >= maxRows {
			// Keep draining so the total stays accurate.
			continue
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("%w: scan row %d: %v", registry.ErrResultDecode, result.TotalRows, err)
		}
		result.Rows = append(result.Rows, kernel.DecodeRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result for %s: %w", serverID, err)
	}

	return result, nil
}

// CancelQuery asks the server to abort serverID. Issued from a connection
// other than the one that submitted the query.
func (c *Conn) CancelQuery(ctx context.Context, serverID string) error {
	if _, err := c.raw.ExecContext(ctx, "SELECT SYSTEM$CANCEL_QUERY(?)", serverID); err != nil {
		return fmt.Errorf("cancel query %s: %w", serverID, err)
	}
	c.logger.Debug("server-side cancel issued",
		zap.String("conn_id", c.id), zap.String("sfqid", serverID))
	return nil
}

// Close releases the session back to the pool.
func (c *Conn) Close() error {
	return c.raw.Close()
}
