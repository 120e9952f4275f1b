// Package handler implements the tool operations exposed over MCP: catalog
// listings, table description, data sampling, guarded query execution, and
// the statistical profilers. Handlers are thin: they render SQL, run it
// through a Querier, and shape the rows into response structs.
package handler

import (
	"context"
	"strings"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

// Querier runs one synchronous SQL statement. Satisfied by the snowflake
// client; tests substitute fakes.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*kernel.QueryResult, error)
}

// NameFilter narrows catalog listings. Only the "contains" form exists:
// case-insensitive substring match.
type NameFilter struct {
	Contains string
}

// Apply filters names, preserving order.
func (f *NameFilter) Apply(names []string) []string {
	if f == nil || f.Contains == "" {
		return names
	}
	needle := strings.ToLower(f.Contains)
	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), needle) {
			filtered = append(filtered, name)
		}
	}
	return filtered
}

// namesFromShowOutput extracts the "name" column of a SHOW command result.
func namesFromShowOutput(result *kernel.QueryResult) []string {
	names := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if name, ok := row["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names
}
