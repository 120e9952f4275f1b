package snowflake

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

// Client runs short synchronous queries (catalog listings, describes,
// samples) on the shared pool. Long-running work goes through the registry
// instead.
type Client struct {
	provider *Provider
	logger   *zap.Logger
}

// NewClient builds a client on top of an existing provider pool.
func NewClient(provider *Provider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{provider: provider, logger: logger}
}

// Query executes sql and decodes every row. Callers are expected to bound
// their statements (LIMIT, SAMPLE) themselves.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (*kernel.QueryResult, error) {
	c.logger.Debug("running query", zap.String("sql", kernel.SanitizeSQL(sql)))

	rows, err := c.provider.DB().QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column metadata: %w", err)
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
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, kernel.DecodeRow(columns, values))
		result.TotalRows++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
