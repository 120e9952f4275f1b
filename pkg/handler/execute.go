package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
	"github.com/JailtonJunior94/snowflake-mcp/pkg/sqlcheck"
)

const defaultExecuteTimeout = 30 * time.Second

// ErrWriteNotAllowed rejects write statements on the synchronous execute
// path.
var ErrWriteNotAllowed = errors.New("write operations are not allowed; set allow_write to run this statement")

// ExecuteResult is the execute_query response payload.
type ExecuteResult struct {
	SQL              string       `json:"sql"`
	Rows             []kernel.Row `json:"rows"`
	RowCount         int          `json:"row_count"`
	Columns          []string     `json:"columns"`
	ExecutionSeconds float64      `json:"execution_time_seconds"`
}

// ExecuteQuery runs sql synchronously with a deadline. Write statements are
// refused unless allowWrite is set.
func ExecuteQuery(ctx context.Context, q Querier, sql string, timeout time.Duration, allowWrite bool) (*ExecuteResult, error) {
	write, err := sqlcheck.IsWrite(sql)
	if err != nil {
		return nil, fmt.Errorf("analyze sql: %w", err)
	}
	if write && !allowWrite {
		return nil, ErrWriteNotAllowed
	}

	if timeout <= 0 {
		timeout = defaultExecuteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	result, err := q.Query(ctx, sql)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query exceeded timeout of %s", timeout)
		}
		return nil, err
	}

	names := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		names[i] = col.Name
	}
	return &ExecuteResult{
		SQL:              sql,
		Rows:             result.Rows,
		RowCount:         result.TotalRows,
		Columns:          names,
		ExecutionSeconds: time.Since(started).Seconds(),
	}, nil
}
