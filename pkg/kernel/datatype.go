package kernel

import "strings"

var typeAliases = map[string]string{
	"NUMERIC":          "DECIMAL",
	"INTEGER":          "INT",
	"DOUBLE PRECISION": "DOUBLE",
	"FLOAT4":           "FLOAT",
	"FLOAT8":           "FLOAT",
	"CHARACTER":        "CHAR",
	"DATETIME":         "TIMESTAMP_NTZ",
	"VARBINARY":        "BINARY",
}

// NormalizeType reduces a raw Snowflake type to its canonical name:
// "VARCHAR(255)" becomes "VARCHAR", "NUMBER(10,2)" becomes "NUMBER", and
// aliases like NUMERIC or DATETIME map onto their canonical spelling.
func NormalizeType(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.Index(t, "("); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if alias, ok := typeAliases[t]; ok {
		return alias
	}
	return t
}

var numericTypes = map[string]struct{}{
	"NUMBER": {}, "DECIMAL": {}, "INT": {}, "BIGINT": {}, "SMALLINT": {},
	"TINYINT": {}, "BYTEINT": {}, "FLOAT": {}, "DOUBLE": {}, "REAL": {}, "FIXED": {},
}

var stringTypes = map[string]struct{}{
	"VARCHAR": {}, "CHAR": {}, "STRING": {}, "TEXT": {},
}

var dateTypes = map[string]struct{}{
	"DATE": {}, "TIME": {}, "TIMESTAMP": {}, "TIMESTAMP_LTZ": {},
	"TIMESTAMP_NTZ": {}, "TIMESTAMP_TZ": {},
}

var semiStructuredTypes = map[string]struct{}{
	"VARIANT": {}, "OBJECT": {}, "ARRAY": {},
}

func IsNumericType(raw string) bool {
	_, ok := numericTypes[NormalizeType(raw)]
	return ok
}

func IsStringType(raw string) bool {
	_, ok := stringTypes[NormalizeType(raw)]
	return ok
}

func IsDateType(raw string) bool {
	_, ok := dateTypes[NormalizeType(raw)]
	return ok
}

func IsBooleanType(raw string) bool {
	return NormalizeType(raw) == "BOOLEAN"
}

// IsSemiStructuredType reports whether the type can hold VARIANT-like values.
func IsSemiStructuredType(raw string) bool {
	_, ok := semiStructuredTypes[NormalizeType(raw)]
	return ok
}

// StatisticsClass buckets a column type for statistics generation. Empty
// means the type is not supported.
func StatisticsClass(raw string) string {
	switch {
	case IsNumericType(raw):
		return "numeric"
	case IsStringType(raw):
		return "string"
	case IsDateType(raw):
		return "date"
	case IsBooleanType(raw):
		return "boolean"
	default:
		return ""
	}
}
