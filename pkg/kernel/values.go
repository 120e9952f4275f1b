package kernel

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// DecodeValue converts a driver-level value into a JSON-safe Go value.
// Timestamps become RFC 3339 strings, byte slices become strings, and
// arbitrary-precision numbers are kept as their decimal representation so
// no precision is lost on the way to the client.
func DecodeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(val)
	case *big.Int:
		return val.String()
	case *big.Float:
		return val.Text('f', -1)
	case json.RawMessage:
		return string(val)
	case bool, string, int, int8, int16, int32, int64, float32, float64:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// DecodeRow pairs raw values with column metadata, decoding each value.
// Extra values beyond the column list are dropped; missing values are nil.
func DecodeRow(columns []ColumnMeta, values []any) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		if i < len(values) {
			row[col.Name] = DecodeValue(values[i])
		} else {
			row[col.Name] = nil
		}
	}
	return row
}
