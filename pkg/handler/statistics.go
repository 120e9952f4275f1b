package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

const defaultTopKLimit = 10

// TopValue is one entry of an APPROX_TOP_K distribution.
type TopValue struct {
	Value any   `json:"value"`
	Count int64 `json:"count"`
}

// NumericStats describes a numeric column.
type NumericStats struct {
	ColumnType          string `json:"column_type"`
	DataType            string `json:"data_type"`
	Count               int64  `json:"count"`
	NullCount           int64  `json:"null_count"`
	DistinctCountApprox int64  `json:"distinct_count_approx"`
	Min                 any    `json:"min"`
	Max                 any    `json:"max"`
	Avg                 any    `json:"avg"`
	Q1                  any    `json:"percentile_25"`
	Median              any    `json:"median"`
	Q3                  any    `json:"percentile_75"`
}

// StringStats describes a string column.
type StringStats struct {
	ColumnType          string     `json:"column_type"`
	DataType            string     `json:"data_type"`
	Count               int64      `json:"count"`
	NullCount           int64      `json:"null_count"`
	DistinctCountApprox int64      `json:"distinct_count_approx"`
	MinLength           int64      `json:"min_length"`
	MaxLength           int64      `json:"max_length"`
	TopValues           []TopValue `json:"top_values"`
}

// DateStats describes a date or timestamp column.
type DateStats struct {
	ColumnType          string `json:"column_type"`
	DataType            string `json:"data_type"`
	Count               int64  `json:"count"`
	NullCount           int64  `json:"null_count"`
	DistinctCountApprox int64  `json:"distinct_count_approx"`
	MinDate             string `json:"min_date"`
	MaxDate             string `json:"max_date"`
	DateRangeDays       int64  `json:"date_range_days"`
}

// BooleanStats describes a boolean column.
type BooleanStats struct {
	ColumnType               string  `json:"column_type"`
	DataType                 string  `json:"data_type"`
	Count                    int64   `json:"count"`
	NullCount                int64   `json:"null_count"`
	TrueCount                int64   `json:"true_count"`
	FalseCount               int64   `json:"false_count"`
	TruePercentage           float64 `json:"true_percentage"`
	FalsePercentage          float64 `json:"false_percentage"`
	TruePercentageWithNulls  float64 `json:"true_percentage_with_nulls"`
	FalsePercentageWithNulls float64 `json:"false_percentage_with_nulls"`
}

// TableStatistics is the analyze_table_statistics response payload.
type TableStatistics struct {
	Database         string         `json:"database"`
	Schema           string         `json:"schema"`
	Table            string         `json:"table"`
	TotalRows        int64          `json:"total_rows"`
	ColumnStatistics map[string]any `json:"column_statistics"`
}

// AnalyzeTableStatistics profiles the requested columns (or every supported
// column when none are named) in a single aggregate query.
func AnalyzeTableStatistics(ctx context.Context, q Querier, database, schema, table string, columns []string, topKLimit int) (*TableStatistics, error) {
	info, err := DescribeTable(ctx, q, database, schema, table)
	if err != nil {
		return nil, err
	}
	if topKLimit <= 0 {
		topKLimit = defaultTopKLimit
	}

	selected, err := selectStatisticsColumns(info.Columns, columns)
	if err != nil {
		return nil, err
	}

	sql := statisticsSQL(database, schema, table, selected, topKLimit)
	result, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("analyze statistics for %s: %w", kernel.FullyQualifiedTable(database, schema, table), err)
	}
	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("statistics query returned no rows")
	}
	row := result.Rows[0]

	stats := &TableStatistics{
		Database:         database,
		Schema:           schema,
		Table:            table,
		TotalRows:        toInt64(row["TOTAL_ROWS"]),
		ColumnStatistics: make(map[string]any, len(selected)),
	}
	for _, col := range selected {
		stats.ColumnStatistics[col.Name] = parseColumnStats(row, col)
	}
	return stats, nil
}

func selectStatisticsColumns(all []TableColumn, requested []string) ([]TableColumn, error) {
	if len(requested) == 0 {
		var supported []TableColumn
		for _, col := range all {
			if kernel.StatisticsClass(col.DataType) != "" {
				supported = append(supported, col)
			}
		}
		if len(supported) == 0 {
			return nil, fmt.Errorf("table has no columns supported for statistics")
		}
		return supported, nil
	}

	byName := make(map[string]TableColumn, len(all))
	for _, col := range all {
		byName[col.Name] = col
	}
	selected := make([]TableColumn, 0, len(requested))
	for _, name := range requested {
		col, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("column %q does not exist", name)
		}
		if kernel.StatisticsClass(col.DataType) == "" {
			return nil, fmt.Errorf("column %q has type %s, which is not supported for statistics", name, col.DataType)
		}
		selected = append(selected, col)
	}
	return selected, nil
}

// statisticsSQL renders one aggregate SELECT covering every selected column.
func statisticsSQL(database, schema, table string, columns []TableColumn, topKLimit int) string {
	var parts []string
	parts = append(parts, "SELECT", "  COUNT(*) AS TOTAL_ROWS,")

	for _, col := range columns {
		class := kernel.StatisticsClass(col.DataType)
		quoted := kernel.QuoteIdent(col.Name)
		prefix := strings.ToUpper(class + "_" + col.Name)

		switch class {
		case "numeric":
			parts = append(parts,
				fmt.Sprintf("  COUNT(%s) AS %s_COUNT,", quoted, prefix),
				fmt.Sprintf("  SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END) AS %s_NULL_COUNT,", quoted, prefix),
				fmt.Sprintf("  MIN(%s) AS %s_MIN,", quoted, prefix),
				fmt.Sprintf("  MAX(%s) AS %s_MAX,", quoted, prefix),
				fmt.Sprintf("  AVG(%s) AS %s_AVG,", quoted, prefix),
				fmt.Sprintf("  APPROX_PERCENTILE(%s, 0.25) AS %s_Q1,", quoted, prefix),
				fmt.Sprintf("  APPROX_PERCENTILE(%s, 0.5) AS %s_MEDIAN,", quoted, prefix),
				fmt.Sprintf("  APPROX_PERCENTILE(%s, 0.75) AS %s_Q3,", quoted, prefix),
				fmt.Sprintf("  APPROX_COUNT_DISTINCT(%s) AS %s_DISTINCT,", quoted, prefix),
			)
		case "string":
			parts = append(parts,
				fmt.Sprintf("  COUNT(%s) AS %s_COUNT,", quoted, prefix),
				fmt.Sprintf("  SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END) AS %s_NULL_COUNT,", quoted, prefix),
				fmt.Sprintf("  MIN(LENGTH(%s)) AS %s_MIN_LENGTH,", quoted, prefix),
				fmt.Sprintf("  MAX(LENGTH(%s)) AS %s_MAX_LENGTH,", quoted, prefix),
				fmt.Sprintf("  APPROX_COUNT_DISTINCT(%s) AS %s_DISTINCT,", quoted, prefix),
				fmt.Sprintf("  APPROX_TOP_K(%s, %d) AS %s_TOP_VALUES,", quoted, topKLimit, prefix),
			)
		case "date":
			parts = append(parts,
				fmt.Sprintf("  COUNT(%s) AS %s_COUNT,", quoted, prefix),
				fmt.Sprintf("  SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END) AS %s_NULL_COUNT,", quoted, prefix),
				fmt.Sprintf("  MIN(%s) AS %s_MIN,", quoted, prefix),
				fmt.Sprintf("  MAX(%s) AS %s_MAX,", quoted, prefix),
				fmt.Sprintf("  DATEDIFF('day', MIN(%s), MAX(%s)) AS %s_RANGE_DAYS,", quoted, quoted, prefix),
				fmt.Sprintf("  APPROX_COUNT_DISTINCT(%s) AS %s_DISTINCT,", quoted, prefix),
			)
		case "boolean":
			parts = append(parts,
				fmt.Sprintf("  COUNT(%s) AS %s_COUNT,", quoted, prefix),
				fmt.Sprintf("  SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END) AS %s_NULL_COUNT,", quoted, prefix),
				fmt.Sprintf("  SUM(CASE WHEN %s = TRUE THEN 1 ELSE 0 END) AS %s_TRUE_COUNT,", quoted, prefix),
				fmt.Sprintf("  SUM(CASE WHEN %s = FALSE THEN 1 ELSE 0 END) AS %s_FALSE_COUNT,", quoted, prefix),
				fmt.Sprintf("  ROUND(DIV0NULL(SUM(CASE WHEN %s = TRUE THEN 1 ELSE 0 END) * 100.0, COUNT(%s)), 2) AS %s_TRUE_PERCENTAGE,", quoted, quoted, prefix),
				fmt.Sprintf("  ROUND(DIV0NULL(SUM(CASE WHEN %s = FALSE THEN 1 ELSE 0 END) * 100.0, COUNT(%s)), 2) AS %s_FALSE_PERCENTAGE,", quoted, quoted, prefix),
				fmt.Sprintf("  ROUND(DIV0NULL(SUM(CASE WHEN %s = TRUE THEN 1 ELSE 0 END) * 100.0, COUNT(*)), 2) AS %s_TRUE_PERCENTAGE_WITH_NULLS,", quoted, prefix),
				fmt.Sprintf("  ROUND(DIV0NULL(SUM(CASE WHEN %s = FALSE THEN 1 ELSE 0 END) * 100.0, COUNT(*)), 2) AS %s_FALSE_PERCENTAGE_WITH_NULLS,", quoted, prefix),
			)
		}
	}

	last := len(parts) - 1
	parts[last] = strings.TrimSuffix(parts[last], ",")
	parts = append(parts, fmt.Sprintf("FROM %s", kernel.FullyQualifiedTable(database, schema, table)))
	return strings.Join(parts, "\n")
}

func parseColumnStats(row kernel.Row, col TableColumn) any {
	class := kernel.StatisticsClass(col.DataType)
	prefix := strings.ToUpper(class + "_" + col.Name)

	switch class {
	case "numeric":
		return NumericStats{
			ColumnType:          class,
			DataType:            col.DataType,
			Count:               toInt64(row[prefix+"_COUNT"]),
			NullCount:           toInt64(row[prefix+"_NULL_COUNT"]),
			DistinctCountApprox: toInt64(row[prefix+"_DISTINCT"]),
			Min:                 row[prefix+"_MIN"],
			Max:                 row[prefix+"_MAX"],
			Avg:                 row[prefix+"_AVG"],
			Q1:                  row[prefix+"_Q1"],
			Median:              row[prefix+"_MEDIAN"],
			Q3:                  row[prefix+"_Q3"],
		}
	case "string":
		return StringStats{
			ColumnType:          class,
			DataType:            col.DataType,
			Count:               toInt64(row[prefix+"_COUNT"]),
			NullCount:           toInt64(row[prefix+"_NULL_COUNT"]),
			DistinctCountApprox: toInt64(row[prefix+"_DISTINCT"]),
			MinLength:           toInt64(row[prefix+"_MIN_LENGTH"]),
			MaxLength:           toInt64(row[prefix+"_MAX_LENGTH"]),
			TopValues:           parseTopValues(row[prefix+"_TOP_VALUES"]),
		}
	case "date":
		return DateStats{
			ColumnType:          class,
			DataType:            col.DataType,
			Count:               toInt64(row[prefix+"_COUNT"]),
			NullCount:           toInt64(row[prefix+"_NULL_COUNT"]),
			DistinctCountApprox: toInt64(row[prefix+"_DISTINCT"]),
			MinDate:             toString(row[prefix+"_MIN"]),
			MaxDate:             toString(row[prefix+"_MAX"]),
			DateRangeDays:       toInt64(row[prefix+"_RANGE_DAYS"]),
		}
	case "boolean":
		return BooleanStats{
			ColumnType:               class,
			DataType:                 col.DataType,
			Count:                    toInt64(row[prefix+"_COUNT"]),
			NullCount:                toInt64(row[prefix+"_NULL_COUNT"]),
			TrueCount:                toInt64(row[prefix+"_TRUE_COUNT"]),
			FalseCount:               toInt64(row[prefix+"_FALSE_COUNT"]),
			TruePercentage:           toFloat64(row[prefix+"_TRUE_PERCENTAGE"]),
			FalsePercentage:          toFloat64(row[prefix+"_FALSE_PERCENTAGE"]),
			TruePercentageWithNulls:  toFloat64(row[prefix+"_TRUE_PERCENTAGE_WITH_NULLS"]),
			FalsePercentageWithNulls: toFloat64(row[prefix+"_FALSE_PERCENTAGE_WITH_NULLS"]),
		}
	}
	return nil
}

// parseTopValues decodes the APPROX_TOP_K output, a JSON array of
// [value, count] pairs.
func parseTopValues(v any) []TopValue {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return nil
	}
	var pairs [][]any
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil
	}
	values := make([]TopValue, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		values = append(values, TopValue{Value: pair[0], Count: toInt64(pair[1])})
	}
	return values
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
