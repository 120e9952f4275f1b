package kernel

import (
	"fmt"
	"strings"
)

const maxSQLLogLength = 100

// SanitizeSQL prepares a SQL statement for logging: trims whitespace and
// truncates long statements so log lines stay bounded.
func SanitizeSQL(sql string) string {
	sanitized := strings.TrimSpace(sql)
	if len(sanitized) > maxSQLLogLength {
		return sanitized[:maxSQLLogLength] + "..."
	}
	return sanitized
}

// QuoteIdent wraps a Snowflake identifier in double quotes, escaping any
// embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// FullyQualifiedTable renders a quoted database.schema.table reference.
func FullyQualifiedTable(database, schema, table string) string {
	return fmt.Sprintf("%s.%s.%s", QuoteIdent(database), QuoteIdent(schema), QuoteIdent(table))
}
