package sqlcheck

import (
	"errors"
	"testing"
)

func TestIsWrite(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{name: "select", sql: "SELECT * FROM t", want: false},
		{name: "lowercase select", sql: "select 1", want: false},
		{name: "cte", sql: "WITH x AS (SELECT 1) SELECT * FROM x", want: false},
		{name: "show", sql: "SHOW TABLES IN SCHEMA db.s", want: false},
		{name: "describe", sql: "DESCRIBE TABLE db.s.t", want: false},
		{name: "desc shorthand", sql: "DESC TABLE t", want: false},
		{name: "explain", sql: "EXPLAIN SELECT 1", want: false},
		{name: "insert", sql: "INSERT INTO t VALUES (1)", want: true},
		{name: "update", sql: "UPDATE t SET c = 1", want: true},
		{name: "delete", sql: "DELETE FROM t", want: true},
		{name: "merge", sql: "MERGE INTO t USING s ON t.id = s.id WHEN MATCHED THEN UPDATE SET c = 1", want: true},
		{name: "truncate", sql: "TRUNCATE TABLE t", want: true},
		{name: "create", sql: "CREATE TABLE t (c INT)", want: true},
		{name: "drop", sql: "DROP TABLE t", want: true},
		{name: "alter", sql: "ALTER TABLE t ADD COLUMN c INT", want: true},
		{name: "copy into", sql: "COPY INTO t FROM @stage", want: true},
		{name: "grant", sql: "GRANT SELECT ON t TO ROLE r", want: true},
		{name: "put", sql: "PUT file:///tmp/x.csv @stage", want: true},
		{name: "undrop", sql: "UNDROP TABLE t", want: true},
		{name: "unknown keyword is write", sql: "FROBNICATE t", want: true},
		{name: "leading comment", sql: "-- note\nSELECT 1", want: false},
		{name: "block comment", sql: "/* hint */ SELECT 1", want: false},
		{name: "multi statement read only", sql: "SELECT 1; SHOW TABLES IN SCHEMA db.s;", want: false},
		{name: "multi statement with write", sql: "SELECT 1; DROP TABLE t", want: true},
		{name: "semicolon inside string", sql: "SELECT 'a;DROP TABLE t' FROM x", want: false},
		{name: "insert keyword inside string", sql: "SELECT 'INSERT' FROM t", want: false},
		{name: "parenthesized select", sql: "(SELECT 1) UNION (SELECT 2)", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsWrite(tt.sql)
			if err != nil {
				t.Fatalf("IsWrite(%q) error = %v", tt.sql, err)
			}
			if got != tt.want {
				t.Errorf("IsWrite(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestIsWriteEmptySQL(t *testing.T) {
	for _, sql := range []string{"", "   ", ";;", "-- only a comment"} {
		got, err := IsWrite(sql)
		if !errors.Is(err, ErrEmptySQL) {
			t.Errorf("IsWrite(%q) error = %v, want ErrEmptySQL", sql, err)
		}
		if !got {
			t.Errorf("IsWrite(%q) = false on error, want true for safety", sql)
		}
	}
}

func TestAnalyzeStatements(t *testing.T) {
	result, err := Analyze("SELECT 1; INSERT INTO t VALUES (1); SHOW TABLES IN SCHEMA db.s")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !result.IsWrite {
		t.Error("IsWrite = false, want true")
	}
	if len(result.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(result.Statements))
	}
	wantTokens := []string{"SELECT", "INSERT", "SHOW"}
	wantWrites := []bool{false, true, false}
	for i, stmt := range result.Statements {
		if stmt.Index != i {
			t.Errorf("statement %d: Index = %d", i, stmt.Index)
		}
		if stmt.FirstToken != wantTokens[i] {
			t.Errorf("statement %d: FirstToken = %q, want %q", i, stmt.FirstToken, wantTokens[i])
		}
		if stmt.IsWrite != wantWrites[i] {
			t.Errorf("statement %d: IsWrite = %v, want %v", i, stmt.IsWrite, wantWrites[i])
		}
	}
}
