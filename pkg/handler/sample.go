package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

const defaultSampleSize = 10

// SampleData is the sample_table_data response payload.
type SampleData struct {
	Database     string       `json:"database"`
	Schema       string       `json:"schema"`
	Table        string       `json:"table"`
	SampleSize   int          `json:"sample_size"`
	ActualRows   int          `json:"actual_rows"`
	Rows         []kernel.Row `json:"rows"`
	ColumnsNames []string     `json:"columns"`
}

// SampleTableData fetches a random row sample using SAMPLE ROW. columns
// narrows the projection; empty means all columns.
func SampleTableData(ctx context.Context, q Querier, database, schema, table string, sampleSize int, columns []string) (*SampleData, error) {
	if database == "" {
		return nil, ErrMissingDatabase
	}
	if schema == "" {
		return nil, ErrMissingSchema
	}
	if table == "" {
		return nil, ErrMissingTable
	}
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}

	projection := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = kernel.QuoteIdent(col)
		}
		projection = strings.Join(quoted, ", ")
	}

	fqn := kernel.FullyQualifiedTable(database, schema, table)
	sql := fmt.Sprintf("SELECT %s FROM %s SAMPLE ROW (%d ROWS)", projection, fqn, sampleSize)

	result, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("sample table %s: %w", fqn, err)
	}

	names := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		names[i] = col.Name
	}
	return &SampleData{
		Database:     database,
		Schema:       schema,
		Table:        table,
		SampleSize:   sampleSize,
		ActualRows:   len(result.Rows),
		Rows:         result.Rows,
		ColumnsNames: names,
	}, nil
}
