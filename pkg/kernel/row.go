// Package kernel holds the value types shared by the query registry, the
// Snowflake adapter and the tool handlers: result rows, column metadata and
// the progress/result shapes exchanged across the connection contract.
package kernel

// Row is a single result row keyed by column name. Values are already
// decoded into JSON-safe Go types (see DecodeValue).
type Row map[string]any

// ColumnMeta describes one result column.
type ColumnMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ProgressState classifies a server-side query status check.
type ProgressState int

const (
	// StateRunning means the server still reports the query as in flight.
	StateRunning ProgressState = iota
	// StateSucceeded means the query finished and a result can be fetched.
	StateSucceeded
	// StateFailed means the query terminated with a server-side error.
	StateFailed
)

// QueryProgress is the outcome of a single status check.
type QueryProgress struct {
	State   ProgressState
	Message string
	Code    *int
}

// QueryResult is the inline result of a finished query. Rows is capped by the
// caller's row budget; TotalRows reflects the server-side count and may
// exceed len(Rows).
type QueryResult struct {
	Rows      []Row
	Columns   []ColumnMeta
	TotalRows int
}
