package handler

import (
	"context"
	"fmt"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

// TableColumn is one column of a described table.
type TableColumn struct {
	Name       string  `json:"name"`
	DataType   string  `json:"data_type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default_value"`
	Comment    *string `json:"comment"`
	PrimaryKey bool    `json:"primary_key"`
}

// TableInfo is the describe_table response payload.
type TableInfo struct {
	Database string        `json:"database"`
	Schema   string        `json:"schema"`
	Name     string        `json:"name"`
	Columns  []TableColumn `json:"columns"`
}

// DescribeTable returns the column layout of a table.
func DescribeTable(ctx context.Context, q Querier, database, schema, table string) (*TableInfo, error) {
	if database == "" {
		return nil, ErrMissingDatabase
	}
	if schema == "" {
		return nil, ErrMissingSchema
	}
	if table == "" {
		return nil, ErrMissingTable
	}

	fqn := kernel.FullyQualifiedTable(database, schema, table)
	result, err := q.Query(ctx, fmt.Sprintf("DESCRIBE TABLE %s", fqn))
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", fqn, err)
	}

	info := &TableInfo{Database: database, Schema: schema, Name: table}
	for _, row := range result.Rows {
		// DESCRIBE TABLE emits one row per column with lowercase keys:
		// name, type, "null?", default, "primary key", comment.
		name, _ := row["name"].(string)
		if name == "" {
			continue
		}
		col := TableColumn{
			Name:       name,
			Nullable:   stringField(row, "null?") == "Y",
			PrimaryKey: stringField(row, "primary key") == "Y",
		}
		col.DataType = stringField(row, "type")
		if v := stringField(row, "default"); v != "" {
			col.Default = &v
		}
		if v := stringField(row, "comment"); v != "" {
			col.Comment = &v
		}
		info.Columns = append(info.Columns, col)
	}
	return info, nil
}

func stringField(row kernel.Row, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}
