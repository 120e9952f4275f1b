// Package sqlcheck classifies SQL statements as read or write operations so
// the execute tool can refuse writes unless explicitly allowed. Unknown
// leading keywords count as writes.
package sqlcheck

import (
	"errors"
	"strings"
)

// ErrEmptySQL is returned when there is nothing to classify.
var ErrEmptySQL = errors.New("empty sql statement")

// Leading keywords that mark a statement as a write. COPY, GRANT, REVOKE,
// PUT, GET, UNDROP and REMOVE cover the Snowflake-specific surface beyond
// plain DML and DDL.
var writeKeywords = map[string]struct{}{
	"INSERT":   {},
	"UPDATE":   {},
	"DELETE":   {},
	"MERGE":    {},
	"TRUNCATE": {},
	"CREATE":   {},
	"DROP":     {},
	"ALTER":    {},
	"COPY":     {},
	"GRANT":    {},
	"REVOKE":   {},
	"PUT":      {},
	"GET":      {},
	"UNDROP":   {},
	"REMOVE":   {},
}

// Leading keywords that mark a statement as a read.
var readKeywords = map[string]struct{}{
	"SELECT":   {},
	"WITH":     {},
	"SHOW":     {},
	"DESCRIBE": {},
	"DESC":     {},
	"EXPLAIN":  {},
	"LIST":     {},
	"USE":      {},
	"CALL":     {},
}

// StatementInfo describes one statement of an analyzed script.
type StatementInfo struct {
	Index      int    `json:"index"`
	FirstToken string `json:"first_token"`
	IsWrite    bool   `json:"is_write"`
}

// Result is the outcome of analyzing a (possibly multi-statement) script.
type Result struct {
	IsWrite    bool            `json:"is_write"`
	Statements []StatementInfo `json:"statements"`
}

// IsWrite reports whether sql contains at least one write statement. Errors
// only on empty input; anything unrecognizable is classified as a write.
func IsWrite(sql string) (bool, error) {
	result, err := Analyze(sql)
	if err != nil {
		return true, err
	}
	return result.IsWrite, nil
}

// Analyze splits sql into statements and classifies each one.
func Analyze(sql string) (*Result, error) {
	statements := splitStatements(sql)
	if len(statements) == 0 {
		return nil, ErrEmptySQL
	}

	result := &Result{}
	for i, stmt := range statements {
		token := firstKeyword(stmt)
		write := classify(token)
		result.Statements = append(result.Statements, StatementInfo{
			Index:      i,
			FirstToken: token,
			IsWrite:    write,
		})
		if write {
			result.IsWrite = true
		}
	}
	return result, nil
}

func classify(keyword string) bool {
	if keyword == "" {
		return true
	}
	if _, ok := writeKeywords[keyword]; ok {
		return true
	}
	_, ok := readKeywords[keyword]
	return !ok
}

// splitStatements breaks a script on semicolons outside quotes and comments
// and drops empty fragments.
func splitStatements(sql string) []string {
	var statements []string
	var sb strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(sb.String())
		sb.Reset()
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\'', '"':
			quote := r
			sb.WriteRune(r)
			for i++; i < len(runes); i++ {
				sb.WriteRune(runes[i])
				if runes[i] == quote {
					// Doubled quotes are an escaped literal quote.
					if i+1 < len(runes) && runes[i+1] == quote {
						i++
						sb.WriteRune(runes[i])
						continue
					}
					break
				}
			}
		case '-':
			if i+1 < len(runes) && runes[i+1] == '-' {
				for ; i < len(runes) && runes[i] != '\n'; i++ {
				}
				sb.WriteRune('\n')
				continue
			}
			sb.WriteRune(r)
		case '/':
			if i+1 < len(runes) && runes[i+1] == '*' {
				for i += 2; i+1 < len(runes); i++ {
					if runes[i] == '*' && runes[i+1] == '/' {
						i++
						break
					}
				}
				sb.WriteRune(' ')
				continue
			}
			sb.WriteRune(r)
		case ';':
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	return statements
}

// firstKeyword returns the first word of a statement, uppercased.
func firstKeyword(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return ""
	}
	token := strings.ToUpper(fields[0])
	// "(" can precede a parenthesized SELECT in set operations.
	token = strings.TrimLeft(token, "(")
	return token
}
