package kernel

import (
	"strings"
	"testing"
	"time"
)

func TestDecodeValue(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "string", in: "hello", want: "hello"},
		{name: "int64", in: int64(42), want: int64(42)},
		{name: "float", in: 3.14, want: 3.14},
		{name: "bool", in: true, want: true},
		{name: "bytes", in: []byte("raw"), want: "raw"},
		{name: "time", in: ts, want: "2025-03-14T09:26:53Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeValue(tt.in); got != tt.want {
				t.Errorf("DecodeValue(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeRow(t *testing.T) {
	columns := []ColumnMeta{{Name: "ID", Type: "NUMBER"}, {Name: "NAME", Type: "TEXT"}}

	row := DecodeRow(columns, []any{int64(1), []byte("alpha")})
	if row["ID"] != int64(1) {
		t.Errorf("ID = %v, want 1", row["ID"])
	}
	if row["NAME"] != "alpha" {
		t.Errorf("NAME = %v, want alpha", row["NAME"])
	}

	short := DecodeRow(columns, []any{int64(2)})
	if short["NAME"] != nil {
		t.Errorf("missing value should decode as nil, got %v", short["NAME"])
	}
}

func TestSanitizeSQL(t *testing.T) {
	if got := SanitizeSQL("  SELECT 1  "); got != "SELECT 1" {
		t.Errorf("SanitizeSQL trim = %q", got)
	}

	long := "SELECT " + strings.Repeat("x", 200)
	got := SanitizeSQL(long)
	if len(got) != maxSQLLogLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("SanitizeSQL should truncate to %d chars with ellipsis, got %d", maxSQLLogLength, len(got))
	}
}

func TestFullyQualifiedTable(t *testing.T) {
	got := FullyQualifiedTable("ANALYTICS", "PUBLIC", "ORDERS")
	want := `"ANALYTICS"."PUBLIC"."ORDERS"`
	if got != want {
		t.Errorf("FullyQualifiedTable = %s, want %s", got, want)
	}

	if got := QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdent = %s", got)
	}
}
