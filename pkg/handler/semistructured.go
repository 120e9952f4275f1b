package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

const defaultProfileSampleRows = 10000

// ColumnProfile is the per-column result of semi-structured profiling.
type ColumnProfile struct {
	Name             string           `json:"name"`
	DataType         string           `json:"data_type"`
	NullCount        int64            `json:"null_count"`
	NonNullCount     int64            `json:"non_null_count"`
	NullRatio        float64          `json:"null_ratio"`
	TypeDistribution map[string]int64 `json:"top_level_type_distribution"`
	ArrayLengthMin   *int64           `json:"array_length_min"`
	ArrayLengthMax   *int64           `json:"array_length_max"`
	ArrayLengthP25   *float64         `json:"array_length_p25"`
	ArrayLengthP50   *float64         `json:"array_length_p50"`
	ArrayLengthP75   *float64         `json:"array_length_p75"`
	TopLevelKeys     []TopValue       `json:"top_level_keys_top_k"`
}

// SemiStructuredProfile is the profile_semi_structured_columns response
// payload. The numbers are approximate: they come from a SAMPLE ROW scan.
type SemiStructuredProfile struct {
	Database           string          `json:"database"`
	Schema             string          `json:"schema"`
	Table              string          `json:"table"`
	TotalRows          int64           `json:"total_rows"`
	SampledRows        int64           `json:"sampled_rows"`
	Profiles           []ColumnProfile `json:"profiles"`
	UnsupportedColumns []string        `json:"unsupported_columns"`
}

// ProfileSemiStructuredColumns profiles VARIANT, ARRAY and OBJECT columns:
// null ratios, top-level type distribution, array length spread and the most
// frequent object keys, all computed over a row sample.
func ProfileSemiStructuredColumns(ctx context.Context, q Querier, database, schema, table string, columns []string, sampleRows, topKLimit int) (*SemiStructuredProfile, error) {
	info, err := DescribeTable(ctx, q, database, schema, table)
	if err != nil {
		return nil, err
	}
	if sampleRows <= 0 {
		sampleRows = defaultProfileSampleRows
	}
	if topKLimit <= 0 {
		topKLimit = defaultTopKLimit
	}

	supported, unsupported, err := classifySemiStructured(info.Columns, columns)
	if err != nil {
		return nil, err
	}
	if len(supported) == 0 {
		return nil, fmt.Errorf("table %s has no semi-structured columns to profile",
			kernel.FullyQualifiedTable(database, schema, table))
	}

	fqn := kernel.FullyQualifiedTable(database, schema, table)

	totalRes, err := q.Query(ctx, fmt.Sprintf("SELECT COUNT(*) AS TOTAL_ROWS FROM %s", fqn))
	if err != nil {
		return nil, fmt.Errorf("count rows of %s: %w", fqn, err)
	}
	sampledRes, err := q.Query(ctx,
		fmt.Sprintf("SELECT COUNT(*) AS SAMPLED_ROWS FROM %s SAMPLE ROW (%d ROWS)", fqn, sampleRows))
	if err != nil {
		return nil, fmt.Errorf("count sampled rows of %s: %w", fqn, err)
	}

	profile := &SemiStructuredProfile{
		Database:           database,
		Schema:             schema,
		Table:              table,
		UnsupportedColumns: unsupported,
	}
	if len(totalRes.Rows) > 0 {
		profile.TotalRows = toInt64(totalRes.Rows[0]["TOTAL_ROWS"])
	}
	if len(sampledRes.Rows) > 0 {
		profile.SampledRows = toInt64(sampledRes.Rows[0]["SAMPLED_ROWS"])
	}

	for _, col := range supported {
		colProfile, err := profileColumn(ctx, q, fqn, col, sampleRows, topKLimit)
		if err != nil {
			return nil, err
		}
		profile.Profiles = append(profile.Profiles, *colProfile)
	}
	return profile, nil
}

func classifySemiStructured(all []TableColumn, requested []string) (supported []TableColumn, unsupported []string, err error) {
	candidates := all
	if len(requested) > 0 {
		byName := make(map[string]TableColumn, len(all))
		for _, col := range all {
			byName[col.Name] = col
		}
		candidates = candidates[:0]
		for _, name := range requested {
			col, ok := byName[name]
			if !ok {
				return nil, nil, fmt.Errorf("column %q does not exist", name)
			}
			candidates = append(candidates, col)
		}
	}

	for _, col := range candidates {
		if kernel.IsSemiStructuredType(col.DataType) {
			supported = append(supported, col)
		} else {
			unsupported = append(unsupported, col.Name)
		}
	}
	return supported, unsupported, nil
}

func profileColumn(ctx context.Context, q Querier, fqn string, col TableColumn, sampleRows, topKLimit int) (*ColumnProfile, error) {
	quoted := kernel.QuoteIdent(col.Name)

	profileSQL := fmt.Sprintf(`WITH sampled AS (
  SELECT %s AS value
  FROM %s
  SAMPLE ROW (%d ROWS)
)
SELECT
  SUM(CASE WHEN value IS NULL THEN 1 ELSE 0 END) AS NULL_COUNT,
  SUM(CASE WHEN value IS NOT NULL THEN 1 ELSE 0 END) AS NON_NULL_COUNT,
  ROUND(DIV0NULL(SUM(CASE WHEN value IS NULL THEN 1 ELSE 0 END), COUNT(*)), 6) AS NULL_RATIO,
  OBJECT_CONSTRUCT_KEEP_NULL(
    'OBJECT', SUM(CASE WHEN TYPEOF(value) = 'OBJECT' THEN 1 ELSE 0 END),
    'ARRAY', SUM(CASE WHEN TYPEOF(value) = 'ARRAY' THEN 1 ELSE 0 END),
    'STRING', SUM(CASE WHEN TYPEOF(value) IN ('VARCHAR', 'CHAR', 'TEXT', 'STRING') THEN 1 ELSE 0 END),
    'NUMBER', SUM(CASE WHEN TYPEOF(value) IN ('NUMBER', 'DECIMAL', 'INT', 'INTEGER', 'FLOAT', 'DOUBLE', 'REAL', 'FIXED') THEN 1 ELSE 0 END),
    'BOOLEAN', SUM(CASE WHEN TYPEOF(value) = 'BOOLEAN' THEN 1 ELSE 0 END),
    'NULL', SUM(CASE WHEN value IS NULL THEN 1 ELSE 0 END)
  ) AS TOP_LEVEL_TYPE_DISTRIBUTION,
  MIN(IFF(TYPEOF(value) = 'ARRAY', ARRAY_SIZE(value), NULL)) AS ARRAY_LENGTH_MIN,
  MAX(IFF(TYPEOF(value) = 'ARRAY', ARRAY_SIZE(value), NULL)) AS ARRAY_LENGTH_MAX,
  APPROX_PERCENTILE(IFF(TYPEOF(value) = 'ARRAY', ARRAY_SIZE(value), NULL), 0.25) AS ARRAY_LENGTH_P25,
  APPROX_PERCENTILE(IFF(TYPEOF(value) = 'ARRAY', ARRAY_SIZE(value), NULL), 0.50) AS ARRAY_LENGTH_P50,
  APPROX_PERCENTILE(IFF(TYPEOF(value) = 'ARRAY', ARRAY_SIZE(value), NULL), 0.75) AS ARRAY_LENGTH_P75
FROM sampled`, quoted, fqn, sampleRows)

	result, err := q.Query(ctx, profileSQL)
	if err != nil {
		return nil, fmt.Errorf("profile column %s: %w", col.Name, err)
	}
	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("profile query for column %s returned no rows", col.Name)
	}
	row := result.Rows[0]

	profile := &ColumnProfile{
		Name:             col.Name,
		DataType:         col.DataType,
		NullCount:        toInt64(row["NULL_COUNT"]),
		NonNullCount:     toInt64(row["NON_NULL_COUNT"]),
		NullRatio:        toFloat64(row["NULL_RATIO"]),
		TypeDistribution: parseTypeDistribution(row["TOP_LEVEL_TYPE_DISTRIBUTION"]),
		ArrayLengthMin:   optionalInt64(row["ARRAY_LENGTH_MIN"]),
		ArrayLengthMax:   optionalInt64(row["ARRAY_LENGTH_MAX"]),
		ArrayLengthP25:   optionalFloat64(row["ARRAY_LENGTH_P25"]),
		ArrayLengthP50:   optionalFloat64(row["ARRAY_LENGTH_P50"]),
		ArrayLengthP75:   optionalFloat64(row["ARRAY_LENGTH_P75"]),
	}

	keysSQL := fmt.Sprintf(`WITH sampled AS (
  SELECT %s AS value
  FROM %s
  SAMPLE ROW (%d ROWS)
),
object_keys AS (
  SELECT f.value::string AS key_name
  FROM sampled,
       LATERAL FLATTEN(input => OBJECT_KEYS(IFF(TYPEOF(value) = 'OBJECT', value, NULL))) f
)
SELECT COALESCE(
  ARRAY_AGG(OBJECT_CONSTRUCT('value', key_name, 'count', key_count)),
  ARRAY_CONSTRUCT()
) AS TOP_LEVEL_KEYS_TOP_K
FROM (
  SELECT key_name, COUNT(*) AS key_count
  FROM object_keys
  GROUP BY key_name
  ORDER BY key_count DESC
  LIMIT %d
)`, quoted, fqn, sampleRows, topKLimit)

	keysRes, err := q.Query(ctx, keysSQL)
	if err != nil {
		return nil, fmt.Errorf("profile keys of column %s: %w", col.Name, err)
	}
	if len(keysRes.Rows) > 0 {
		profile.TopLevelKeys = parseKeyCounts(keysRes.Rows[0]["TOP_LEVEL_KEYS_TOP_K"])
	}
	return profile, nil
}

// parseTypeDistribution decodes the OBJECT_CONSTRUCT output, a JSON object of
// type name to count.
func parseTypeDistribution(v any) map[string]int64 {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	dist := make(map[string]int64, len(decoded))
	for name, count := range decoded {
		dist[name] = toInt64(count)
	}
	return dist
}

// parseKeyCounts decodes the ARRAY_AGG output, a JSON array of
// {"value": key, "count": n} objects.
func parseKeyCounts(v any) []TopValue {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return nil
	}
	var decoded []struct {
		Value any `json:"value"`
		Count any `json:"count"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	values := make([]TopValue, 0, len(decoded))
	for _, entry := range decoded {
		values = append(values, TopValue{Value: entry.Value, Count: toInt64(entry.Count)})
	}
	return values
}

func optionalInt64(v any) *int64 {
	if v == nil {
		return nil
	}
	n := toInt64(v)
	return &n
}

func optionalFloat64(v any) *float64 {
	if v == nil {
		return nil
	}
	n := toFloat64(v)
	return &n
}
