package registry

import (
	"time"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

// Status is the lifecycle state of a registered query.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
	StatusTimeout   Status = "timeout"
)

// IsTerminal reports whether the status is final. Terminal records never
// change again except for their TTL expiry.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled, StatusTimeout:
		return true
	default:
		return false
	}
}

// ParseStatus maps a wire string onto a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed, StatusCanceled, StatusTimeout:
		return Status(s), true
	default:
		return "", false
	}
}

// Error kinds recorded in ErrorInfo.Kind.
const (
	ErrKindConnect     = "connect"
	ErrKindSubmit      = "submit"
	ErrKindExecution   = "execution"
	ErrKindTimeout     = "timeout"
	ErrKindInternal    = "internal"
	ErrKindParseResult = "parse_result"
)

// ErrorInfo captures why a query ended in a non-success terminal state.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Code    *int   `json:"code"`
}

// Options configures a single query execution.
type Options struct {
	// QueryTimeout bounds the wall-clock running time; zero disables the
	// limit. Enforced by the poller, not as a driver deadline.
	QueryTimeout time.Duration

	// MaxInlineRows caps the rows kept in memory for paging. Zero keeps no
	// rows while still recording the server-side row count.
	MaxInlineRows int

	// PollInterval is the sleep between status checks.
	PollInterval time.Duration
}

// SnowflakeInfo carries the server-side identifiers exposed in snapshots.
type SnowflakeInfo struct {
	SFQID *string `json:"sfqid"`
}

// Snapshot is an immutable, caller-safe projection of a query record.
type Snapshot struct {
	QueryID              string              `json:"query_id"`
	SQL                  string              `json:"sql"`
	Status               Status              `json:"status"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	StartedAt            *time.Time          `json:"started_at"`
	FinishedAt           *time.Time          `json:"finished_at"`
	ExecutionTimeSeconds *float64            `json:"execution_time_seconds"`
	RowCount             *int                `json:"row_count"`
	Columns              []kernel.ColumnMeta `json:"columns"`
	Error                *ErrorInfo          `json:"error"`
	Snowflake            SnowflakeInfo       `json:"snowflake"`
}

// Page is one slice of a succeeded query's inline result.
type Page struct {
	Rows      []kernel.Row        `json:"rows"`
	TotalRows int                 `json:"total_rows"`
	Offset    int                 `json:"offset"`
	Limit     int                 `json:"limit"`
	HasMore   bool                `json:"has_more"`
	Columns   []kernel.ColumnMeta `json:"columns"`
}

// record is the registry-owned mutable state of one query. All fields are
// guarded by the registry mutex.
type record struct {
	queryID       string
	sql           string
	status        Status
	createdAt     time.Time
	startedAt     time.Time
	finishedAt    time.Time
	options       Options
	serverQueryID string

	rowCount     *int
	columns      []kernel.ColumnMeta
	resultInline []kernel.Row
	errInfo      *ErrorInfo

	ttlExpiresAt    time.Time
	cancelRequested bool

	// runtime is non-nil only while the query is alive (pending/running) or
	// mid-teardown.
	runtime *runtime
}

// runtime holds the live resources of a query: its connection and the
// handle of its poller goroutine. Never exposed outside the registry.
type runtime struct {
	conn         QueryConn
	cancel       func()
	done         chan struct{}
	pollInterval time.Duration
}

func (rec *record) snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		QueryID:   rec.queryID,
		SQL:       rec.sql,
		Status:    rec.status,
		CreatedAt: rec.createdAt,
		UpdatedAt: now,
		RowCount:  rec.rowCount,
		Columns:   rec.columns,
		Error:     rec.errInfo,
	}
	if !rec.startedAt.IsZero() {
		started := rec.startedAt
		snap.StartedAt = &started

		elapsed := now.Sub(started).Seconds()
		if !rec.finishedAt.IsZero() {
			elapsed = rec.finishedAt.Sub(started).Seconds()
		}
		snap.ExecutionTimeSeconds = &elapsed
	}
	if !rec.finishedAt.IsZero() {
		finished := rec.finishedAt
		snap.FinishedAt = &finished
		snap.UpdatedAt = finished
	}
	if rec.serverQueryID != "" {
		sfqid := rec.serverQueryID
		snap.Snowflake.SFQID = &sfqid
	}
	return snap
}
