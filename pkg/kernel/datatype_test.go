package kernel

import "testing"

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"VARCHAR(255)", "VARCHAR"},
		{"NUMBER(10,2)", "NUMBER"},
		{"number(38,0)", "NUMBER"},
		{"NUMERIC", "DECIMAL"},
		{"INTEGER", "INT"},
		{"DATETIME", "TIMESTAMP_NTZ"},
		{"TIMESTAMP_TZ(9)", "TIMESTAMP_TZ"},
		{"  variant ", "VARIANT"},
		{"DOUBLE PRECISION", "DOUBLE"},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.raw); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStatisticsClass(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"NUMBER(38,0)", "numeric"},
		{"FLOAT", "numeric"},
		{"VARCHAR(16)", "string"},
		{"TEXT", "string"},
		{"DATE", "date"},
		{"TIMESTAMP_NTZ(9)", "date"},
		{"BOOLEAN", "boolean"},
		{"VARIANT", ""},
		{"GEOGRAPHY", ""},
	}
	for _, tt := range tests {
		if got := StatisticsClass(tt.raw); got != tt.want {
			t.Errorf("StatisticsClass(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIsSemiStructuredType(t *testing.T) {
	for _, raw := range []string{"VARIANT", "OBJECT", "ARRAY", "array"} {
		if !IsSemiStructuredType(raw) {
			t.Errorf("IsSemiStructuredType(%q) = false, want true", raw)
		}
	}
	for _, raw := range []string{"VARCHAR(2)", "NUMBER", "GEOMETRY"} {
		if IsSemiStructuredType(raw) {
			t.Errorf("IsSemiStructuredType(%q) = true, want false", raw)
		}
	}
}
