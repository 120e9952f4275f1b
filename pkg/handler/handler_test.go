package handler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

// fakeQuerier routes queries to canned results by substring match and
// records every statement it sees.
type fakeQuerier struct {
	responses map[string]*kernel.QueryResult
	err       error
	queries   []string
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (*kernel.QueryResult, error) {
	f.queries = append(f.queries, sql)
	if f.err != nil {
		return nil, f.err
	}
	for needle, result := range f.responses {
		if strings.Contains(sql, needle) {
			return result, nil
		}
	}
	return &kernel.QueryResult{Rows: []kernel.Row{}}, nil
}

func showResult(names ...string) *kernel.QueryResult {
	rows := make([]kernel.Row, len(names))
	for i, name := range names {
		rows[i] = kernel.Row{"name": name}
	}
	return &kernel.QueryResult{Rows: rows, TotalRows: len(rows)}
}

func TestNameFilterApply(t *testing.T) {
	names := []string{"ORDERS", "order_items", "CUSTOMERS", "warehouse_orders"}

	var nilFilter *NameFilter
	assert.Equal(t, names, nilFilter.Apply(names))

	filter := &NameFilter{Contains: "ORDER"}
	assert.Equal(t, []string{"ORDERS", "order_items", "warehouse_orders"}, filter.Apply(names))

	assert.Empty(t, (&NameFilter{Contains: "zzz"}).Apply(names))
}

func TestListSchemas(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"SHOW SCHEMAS IN DATABASE SALES": showResult("PUBLIC", "STAGING", "MARTS"),
	}}

	info, err := ListSchemas(context.Background(), q, "SALES", nil)
	require.NoError(t, err)
	assert.Equal(t, "SALES", info.Database)
	assert.Equal(t, []string{"PUBLIC", "STAGING", "MARTS"}, info.Schemas)

	info, err = ListSchemas(context.Background(), q, "SALES", &NameFilter{Contains: "art"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MARTS"}, info.Schemas)

	_, err = ListSchemas(context.Background(), q, "", nil)
	assert.ErrorIs(t, err, ErrMissingDatabase)
}

func TestListTablesAndViews(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"SHOW TABLES IN SCHEMA SALES.PUBLIC": showResult("ORDERS", "CUSTOMERS"),
		"SHOW VIEWS IN SCHEMA SALES.PUBLIC":  showResult("V_ORDERS"),
	}}

	tables, err := ListTables(context.Background(), q, "SALES", "PUBLIC", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDERS", "CUSTOMERS"}, tables.Tables)

	views, err := ListViews(context.Background(), q, "SALES", "PUBLIC", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"V_ORDERS"}, views.Views)

	_, err = ListTables(context.Background(), q, "SALES", "", nil)
	assert.ErrorIs(t, err, ErrMissingSchema)
}

func TestListRolesAndWarehouses(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"SHOW ROLES":      showResult("ANALYST", "SYSADMIN"),
		"SHOW WAREHOUSES": showResult("WH_S", "WH_XL"),
	}}

	roles, err := ListRoles(context.Background(), q, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ANALYST", "SYSADMIN"}, roles.Roles)

	warehouses, err := ListWarehouses(context.Background(), q, &NameFilter{Contains: "xl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"WH_XL"}, warehouses.Warehouses)
}

func describeResult() *kernel.QueryResult {
	return &kernel.QueryResult{Rows: []kernel.Row{
		{"name": "ID", "type": "NUMBER(38,0)", "null?": "N", "primary key": "Y", "comment": "row id"},
		{"name": "NAME", "type": "VARCHAR(255)", "null?": "Y", "default": "''"},
		{"name": "PAYLOAD", "type": "VARIANT", "null?": "Y"},
	}}
}

func TestDescribeTable(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		`DESCRIBE TABLE "SALES"."PUBLIC"."ORDERS"`: describeResult(),
	}}

	info, err := DescribeTable(context.Background(), q, "SALES", "PUBLIC", "ORDERS")
	require.NoError(t, err)
	require.Len(t, info.Columns, 3)

	id := info.Columns[0]
	assert.Equal(t, "ID", id.Name)
	assert.Equal(t, "NUMBER(38,0)", id.DataType)
	assert.False(t, id.Nullable)
	assert.True(t, id.PrimaryKey)
	require.NotNil(t, id.Comment)
	assert.Equal(t, "row id", *id.Comment)

	name := info.Columns[1]
	assert.True(t, name.Nullable)
	assert.False(t, name.PrimaryKey)
	require.NotNil(t, name.Default)

	_, err = DescribeTable(context.Background(), q, "SALES", "PUBLIC", "")
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestSampleTableData(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"SAMPLE ROW (5 ROWS)": {
			Rows:    []kernel.Row{{"ID": int64(1)}, {"ID": int64(2)}},
			Columns: []kernel.ColumnMeta{{Name: "ID", Type: "FIXED"}},
		},
	}}

	data, err := SampleTableData(context.Background(), q, "SALES", "PUBLIC", "ORDERS", 5, []string{"ID"})
	require.NoError(t, err)
	assert.Equal(t, 5, data.SampleSize)
	assert.Equal(t, 2, data.ActualRows)
	assert.Equal(t, []string{"ID"}, data.ColumnsNames)

	require.Len(t, q.queries, 1)
	assert.Equal(t, `SELECT "ID" FROM "SALES"."PUBLIC"."ORDERS" SAMPLE ROW (5 ROWS)`, q.queries[0])
}

func TestSampleTableDataDefaultsSize(t *testing.T) {
	q := &fakeQuerier{}
	_, err := SampleTableData(context.Background(), q, "SALES", "PUBLIC", "ORDERS", 0, nil)
	require.NoError(t, err)
	require.Len(t, q.queries, 1)
	assert.Contains(t, q.queries[0], "SELECT * FROM")
	assert.Contains(t, q.queries[0], "SAMPLE ROW (10 ROWS)")
}

func TestExecuteQueryRejectsWrites(t *testing.T) {
	q := &fakeQuerier{}

	_, err := ExecuteQuery(context.Background(), q, "DROP TABLE t", 0, false)
	assert.ErrorIs(t, err, ErrWriteNotAllowed)
	assert.Empty(t, q.queries, "rejected statements must never reach the database")

	_, err = ExecuteQuery(context.Background(), q, "DROP TABLE t", 0, true)
	assert.NoError(t, err)
	assert.Len(t, q.queries, 1)
}

func TestExecuteQueryRuns(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"SELECT 1": {
			Rows:      []kernel.Row{{"X": int64(1)}},
			Columns:   []kernel.ColumnMeta{{Name: "X", Type: "FIXED"}},
			TotalRows: 1,
		},
	}}

	result, err := ExecuteQuery(context.Background(), q, "SELECT 1", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, []string{"X"}, result.Columns)
	assert.GreaterOrEqual(t, result.ExecutionSeconds, 0.0)
}

func TestExecuteQueryPropagatesErrors(t *testing.T) {
	q := &fakeQuerier{err: errors.New("warehouse suspended")}
	_, err := ExecuteQuery(context.Background(), q, "SELECT 1", 0, false)
	assert.ErrorContains(t, err, "warehouse suspended")
}

func TestStatisticsSQLShape(t *testing.T) {
	columns := []TableColumn{
		{Name: "PRICE", DataType: "NUMBER(10,2)"},
		{Name: "NAME", DataType: "VARCHAR(64)"},
		{Name: "CREATED", DataType: "DATE"},
		{Name: "ACTIVE", DataType: "BOOLEAN"},
	}
	sql := statisticsSQL("SALES", "PUBLIC", "ORDERS", columns, 10)

	assert.Contains(t, sql, "COUNT(*) AS TOTAL_ROWS")
	assert.Contains(t, sql, `APPROX_PERCENTILE("PRICE", 0.5) AS NUMERIC_PRICE_MEDIAN`)
	assert.Contains(t, sql, `APPROX_TOP_K("NAME", 10) AS STRING_NAME_TOP_VALUES`)
	assert.Contains(t, sql, `DATEDIFF('day', MIN("CREATED"), MAX("CREATED")) AS DATE_CREATED_RANGE_DAYS`)
	assert.Contains(t, sql, `SUM(CASE WHEN "ACTIVE" = TRUE THEN 1 ELSE 0 END) AS BOOLEAN_ACTIVE_TRUE_COUNT`)
	assert.Contains(t, sql, `FROM "SALES"."PUBLIC"."ORDERS"`)
	assert.NotContains(t, sql, ",\nFROM", "the last aggregate must not carry a trailing comma")
}

func TestAnalyzeTableStatistics(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"DESCRIBE TABLE": describeResult(),
		"TOTAL_ROWS": {Rows: []kernel.Row{{
			"TOTAL_ROWS":              int64(100),
			"NUMERIC_ID_COUNT":        int64(100),
			"NUMERIC_ID_NULL_COUNT":   int64(0),
			"NUMERIC_ID_MIN":          int64(1),
			"NUMERIC_ID_MAX":          int64(100),
			"NUMERIC_ID_AVG":          50.5,
			"NUMERIC_ID_Q1":           25.0,
			"NUMERIC_ID_MEDIAN":       50.0,
			"NUMERIC_ID_Q3":           75.0,
			"NUMERIC_ID_DISTINCT":     int64(100),
			"STRING_NAME_COUNT":       int64(90),
			"STRING_NAME_NULL_COUNT":  int64(10),
			"STRING_NAME_MIN_LENGTH":  int64(3),
			"STRING_NAME_MAX_LENGTH":  int64(24),
			"STRING_NAME_DISTINCT":    int64(42),
			"STRING_NAME_TOP_VALUES":  `[["alice", 12], ["bob", 7]]`,
		}}},
	}}

	stats, err := AnalyzeTableStatistics(context.Background(), q, "SALES", "PUBLIC", "ORDERS", nil, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.TotalRows)
	require.Len(t, stats.ColumnStatistics, 2, "the VARIANT column is skipped when auto-selecting")

	numeric, ok := stats.ColumnStatistics["ID"].(NumericStats)
	require.True(t, ok)
	assert.Equal(t, int64(100), numeric.Count)
	assert.Equal(t, 50.5, numeric.Avg)

	str, ok := stats.ColumnStatistics["NAME"].(StringStats)
	require.True(t, ok)
	assert.Equal(t, int64(42), str.DistinctCountApprox)
	require.Len(t, str.TopValues, 2)
	assert.Equal(t, "alice", str.TopValues[0].Value)
	assert.Equal(t, int64(12), str.TopValues[0].Count)
}

func TestAnalyzeTableStatisticsRejectsBadColumns(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"DESCRIBE TABLE": describeResult(),
	}}

	_, err := AnalyzeTableStatistics(context.Background(), q, "SALES", "PUBLIC", "ORDERS", []string{"NOPE"}, 10)
	assert.ErrorContains(t, err, "does not exist")

	_, err = AnalyzeTableStatistics(context.Background(), q, "SALES", "PUBLIC", "ORDERS", []string{"PAYLOAD"}, 10)
	assert.ErrorContains(t, err, "not supported")
}

func TestProfileSemiStructuredColumns(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"DESCRIBE TABLE":           describeResult(),
		"SELECT COUNT(*) AS TOTAL": {Rows: []kernel.Row{{"TOTAL_ROWS": int64(5000)}}},
		"AS SAMPLED_ROWS":          {Rows: []kernel.Row{{"SAMPLED_ROWS": int64(1000)}}},
		"TOP_LEVEL_TYPE_DISTRIBUTION": {Rows: []kernel.Row{{
			"NULL_COUNT":                  int64(100),
			"NON_NULL_COUNT":              int64(900),
			"NULL_RATIO":                  0.1,
			"TOP_LEVEL_TYPE_DISTRIBUTION": `{"OBJECT": 800, "ARRAY": 100, "STRING": 0, "NUMBER": 0, "BOOLEAN": 0, "NULL": 100}`,
			"ARRAY_LENGTH_MIN":            int64(1),
			"ARRAY_LENGTH_MAX":            int64(12),
			"ARRAY_LENGTH_P25":            2.0,
			"ARRAY_LENGTH_P50":            4.0,
			"ARRAY_LENGTH_P75":            8.0,
		}}},
		"TOP_LEVEL_KEYS_TOP_K": {Rows: []kernel.Row{{
			"TOP_LEVEL_KEYS_TOP_K": `[{"value": "id", "count": 800}, {"value": "tags", "count": 750}]`,
		}}},
	}}

	profile, err := ProfileSemiStructuredColumns(context.Background(), q, "SALES", "PUBLIC", "ORDERS", nil, 1000, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), profile.TotalRows)
	assert.Equal(t, int64(1000), profile.SampledRows)
	assert.Equal(t, []string{"ID", "NAME"}, profile.UnsupportedColumns)
	require.Len(t, profile.Profiles, 1)

	p := profile.Profiles[0]
	assert.Equal(t, "PAYLOAD", p.Name)
	assert.Equal(t, int64(100), p.NullCount)
	assert.InDelta(t, 0.1, p.NullRatio, 1e-9)
	assert.Equal(t, int64(800), p.TypeDistribution["OBJECT"])
	require.NotNil(t, p.ArrayLengthMax)
	assert.Equal(t, int64(12), *p.ArrayLengthMax)
	require.Len(t, p.TopLevelKeys, 2)
	assert.Equal(t, "id", p.TopLevelKeys[0].Value)

	_, err = ProfileSemiStructuredColumns(context.Background(), q, "SALES", "PUBLIC", "ORDERS", []string{"MISSING"}, 1000, 10)
	assert.ErrorContains(t, err, "does not exist")
}

func TestProfileSemiStructuredColumnsNoneSupported(t *testing.T) {
	q := &fakeQuerier{responses: map[string]*kernel.QueryResult{
		"DESCRIBE TABLE": {Rows: []kernel.Row{
			{"name": "ID", "type": "NUMBER(38,0)", "null?": "N"},
		}},
	}}

	_, err := ProfileSemiStructuredColumns(context.Background(), q, "SALES", "PUBLIC", "ORDERS", nil, 1000, 10)
	assert.ErrorContains(t, err, "no semi-structured columns")
}
