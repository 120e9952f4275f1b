// Package registry manages the lifecycle of asynchronous Snowflake queries:
// submission, background status polling, cancellation, TTL-based eviction and
// page-wise result delivery.
//
// The registry owns every record and its runtime resources. A single mutex
// guards the record store; it is held only for O(1) critical sections and
// never across a driver call or a poller join. Teardown always follows the
// same order: signal the poller, join it, then close the connection — a
// connection is never closed while its poller might still be using it.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/executor"
	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

const maxErrorMessageLength = 2000

// Registry is the process-wide manager for asynchronous queries.
type Registry struct {
	provider ConnectionProvider
	exec     *executor.Executor
	logger   *zap.Logger
	metrics  *metrics

	defaults           Options
	ttl                time.Duration
	maxQueryTimeout    time.Duration
	statusCheckTimeout time.Duration

	mu     sync.Mutex
	store  map[string]*record
	order  []string
	closed bool
}

// New creates a registry. The provider opens one fresh connection per query;
// exec runs every blocking driver call.
func New(provider ConnectionProvider, exec *executor.Executor, opts ...Option) *Registry {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Registry{
		provider:           provider,
		exec:               exec,
		logger:             cfg.logger,
		metrics:            newMetrics(cfg.registerer),
		defaults:           cfg.defaults,
		ttl:                cfg.ttl,
		maxQueryTimeout:    cfg.maxQueryTimeout,
		statusCheckTimeout: cfg.statusCheckTimeout,
		store:              make(map[string]*record),
	}
}

// DefaultOptions returns the per-query defaults the registry applies when a
// submission leaves a field unset.
func (r *Registry) DefaultOptions() Options {
	return r.defaults
}

// ExecuteQuery submits sql asynchronously and returns a registry-generated
// query id. Lifecycle failures (connect, submit) do not surface as errors:
// the returned id points at a terminal failed record the caller can inspect.
// Returned errors are limited to invalid input and a closed registry.
func (r *Registry) ExecuteQuery(ctx context.Context, sql string, opts *Options) (string, error) {
	if strings.TrimSpace(sql) == "" {
		return "", ErrEmptySQL
	}
	options := r.normalizeOptions(opts)

	queryID := ulid.Make().String()
	now := time.Now().UTC()
	rec := &record{
		queryID:      queryID,
		sql:          sql,
		status:       StatusPending,
		createdAt:    now,
		options:      options,
		ttlExpiresAt: now.Add(r.ttl),
		runtime:      &runtime{pollInterval: options.PollInterval},
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRegistryClosed
	}
	r.store[queryID] = rec
	r.order = append(r.order, queryID)
	r.mu.Unlock()

	logger := r.logger.With(zap.String("query_id", queryID))
	logger.Info("query registered", zap.String("op", "execute_query"))

	conn, err := r.openConnection(ctx)
	if err != nil {
		logger.Warn("connection failed", zap.Error(err))
		r.finalize(queryID, func(rec *record, _ time.Time) {
			rec.status = StatusFailed
			rec.errInfo = &ErrorInfo{Kind: ErrKindConnect, Message: truncateMessage(err.Error())}
		})
		return queryID, nil
	}

	var (
		serverID  string
		submitErr error
	)
	if err := r.runBlocking(func() { serverID, submitErr = conn.SubmitAsync(ctx, sql) }); err != nil {
		submitErr = err
	}
	if submitErr != nil {
		logger.Warn("async submit rejected", zap.Error(submitErr))
		r.closeConnSafely(conn)
		r.finalize(queryID, func(rec *record, _ time.Time) {
			rec.status = StatusFailed
			rec.errInfo = &ErrorInfo{Kind: ErrKindSubmit, Message: truncateMessage(submitErr.Error())}
		})
		return queryID, nil
	}

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	rec, ok := r.store[queryID]
	if !ok || r.closed || rec.cancelRequested || rec.status.IsTerminal() {
		// Torn down while the submit was in flight; the query keeps running
		// server-side but nobody will poll it.
		r.mu.Unlock()
		cancelPoll()
		r.closeConnSafely(conn)
		return queryID, nil
	}
	rec.status = StatusRunning
	rec.startedAt = time.Now().UTC()
	rec.serverQueryID = serverID
	rec.runtime.conn = conn
	rec.runtime.cancel = cancelPoll
	rec.runtime.done = done
	r.mu.Unlock()

	logger.Info("query running", zap.String("sfqid", serverID))

	r.metrics.activePollers.Inc()
	go func() {
		defer close(done)
		defer r.metrics.activePollers.Dec()
		r.poll(pollCtx, queryID)
	}()

	return queryID, nil
}

// Cancel requests cancellation of a live query. It returns true when the
// cancel was dispatched; false when the record is absent, already terminal,
// or another cancel is already in progress. When Cancel returns true the
// record is CANCELED and all its resources are released.
func (r *Registry) Cancel(ctx context.Context, queryID string) bool {
	r.mu.Lock()
	rec, ok := r.store[queryID]
	if !ok || rec.status.IsTerminal() || rec.cancelRequested {
		r.mu.Unlock()
		return false
	}
	rec.cancelRequested = true

	var (
		cancelPoll func()
		done       chan struct{}
		conn       QueryConn
	)
	serverID := rec.serverQueryID
	if rec.runtime != nil {
		cancelPoll = rec.runtime.cancel
		done = rec.runtime.done
		conn = rec.runtime.conn
	}
	r.mu.Unlock()

	logger := r.logger.With(zap.String("query_id", queryID), zap.String("op", "cancel"))

	// Signal and join the poller before touching the connection: an
	// in-flight status check may still hold it.
	if cancelPoll != nil {
		cancelPoll()
	}
	if done != nil {
		<-done
	}

	r.mu.Lock()
	rec, ok = r.store[queryID]
	if !ok || rec.status.IsTerminal() {
		// The poller finalized naturally before the signal landed.
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()

	if serverID != "" {
		if err := r.cancelServerQuery(ctx, serverID); err != nil {
			logger.Warn("server-side cancel failed", zap.String("sfqid", serverID), zap.Error(err))
		}
	}

	r.closeConnSafely(conn)

	now := time.Now().UTC()
	var started time.Time
	r.mu.Lock()
	if rec, ok := r.store[queryID]; ok && !rec.status.IsTerminal() {
		rec.status = StatusCanceled
		rec.finishedAt = now
		rec.ttlExpiresAt = now.Add(r.ttl)
		rec.runtime = nil
		started = rec.startedAt
	}
	r.mu.Unlock()

	r.metrics.observeTerminal(StatusCanceled, started, now)
	logger.Info("query canceled", zap.String("sfqid", serverID))
	return true
}

// GetSnapshot returns an immutable projection of the record, or nil when the
// id is unknown.
func (r *Registry) GetSnapshot(queryID string) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.store[queryID]
	if !ok {
		return nil
	}
	snap := rec.snapshot(time.Now().UTC())
	return &snap
}

// FetchResult slices the inline result of a succeeded query. A negative
// limit means "all remaining rows". Returns nil when the record is missing,
// not succeeded, or offset is negative.
func (r *Registry) FetchResult(queryID string, offset, limit int) *Page {
	if offset < 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.store[queryID]
	if !ok || rec.status != StatusSucceeded || rec.resultInline == nil {
		return nil
	}

	rows := rec.resultInline
	total := len(rows)

	start := offset
	if start > total {
		start = total
	}
	end := total
	effectiveLimit := total - start
	if limit >= 0 {
		effectiveLimit = limit
		if start+limit < total {
			end = start + limit
		}
	}

	page := &Page{
		Rows:      append([]kernel.Row(nil), rows[start:end]...),
		TotalRows: total,
		Offset:    offset,
		Limit:     effectiveLimit,
		HasMore:   end < total,
		Columns:   rec.columns,
	}
	return page
}

// ListQueries returns snapshots of all records in insertion order, optionally
// filtered by status.
func (r *Registry) ListQueries(statusFilter *Status) []Snapshot {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(r.order))
	for _, id := range r.order {
		rec, ok := r.store[id]
		if !ok {
			continue
		}
		if statusFilter != nil && rec.status != *statusFilter {
			continue
		}
		snapshots = append(snapshots, rec.snapshot(now))
	}
	return snapshots
}

// PruneExpired removes records whose TTL is in the past and returns how many
// were removed. Records that are unexpectedly still alive are torn down with
// the usual signal, join, close ordering.
func (r *Registry) PruneExpired(ctx context.Context) int {
	now := time.Now().UTC()

	type teardown struct {
		id         string
		cancelPoll func()
		done       chan struct{}
		conn       QueryConn
	}

	r.mu.Lock()
	var expired []teardown
	for _, id := range r.order {
		rec, ok := r.store[id]
		if !ok || rec.ttlExpiresAt.After(now) {
			continue
		}
		td := teardown{id: id}
		if rec.runtime != nil {
			rec.cancelRequested = true
			td.cancelPoll = rec.runtime.cancel
			td.done = rec.runtime.done
			td.conn = rec.runtime.conn
		}
		expired = append(expired, td)
	}
	r.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}

	for _, td := range expired {
		if td.cancelPoll != nil {
			td.cancelPoll()
		}
	}
	g := new(errgroup.Group)
	for _, td := range expired {
		if td.done != nil {
			done := td.done
			g.Go(func() error {
				select {
				case <-done:
				case <-ctx.Done():
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, td := range expired {
		r.closeConnSafely(td.conn)
	}

	removed := 0
	r.mu.Lock()
	for _, td := range expired {
		if _, ok := r.store[td.id]; ok {
			delete(r.store, td.id)
			removed++
		}
	}
	if removed > 0 {
		kept := r.order[:0]
		for _, id := range r.order {
			if _, ok := r.store[id]; ok {
				kept = append(kept, id)
			}
		}
		r.order = kept
	}
	r.mu.Unlock()

	if removed > 0 {
		r.metrics.prunedTotal.Add(float64(removed))
		r.logger.Info("pruned expired records", zap.Int("removed", removed), zap.String("op", "prune_expired"))
	}
	return removed
}

// Close drains the registry: every poller is signaled and joined, every
// connection closed, and the store cleared. Afterwards all operations report
// absent records and no new queries may be submitted.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true

	var (
		cancels []func()
		dones   []chan struct{}
		conns   []QueryConn
	)
	for _, rec := range r.store {
		rec.cancelRequested = true
		if rec.runtime == nil {
			continue
		}
		if rec.runtime.cancel != nil {
			cancels = append(cancels, rec.runtime.cancel)
		}
		if rec.runtime.done != nil {
			dones = append(dones, rec.runtime.done)
		}
		if rec.runtime.conn != nil {
			conns = append(conns, rec.runtime.conn)
		}
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	g := new(errgroup.Group)
	for _, done := range dones {
		done := done
		g.Go(func() error {
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, conn := range conns {
		r.closeConnSafely(conn)
	}

	r.mu.Lock()
	r.store = make(map[string]*record)
	r.order = nil
	r.mu.Unlock()

	r.logger.Info("registry closed", zap.String("op", "close"))
}

func (r *Registry) normalizeOptions(opts *Options) Options {
	out := r.defaults
	if opts != nil {
		if opts.PollInterval > 0 {
			out.PollInterval = opts.PollInterval
		}
		if opts.MaxInlineRows >= 0 {
			out.MaxInlineRows = opts.MaxInlineRows
		}
		if opts.QueryTimeout > 0 {
			out.QueryTimeout = opts.QueryTimeout
		}
	}
	if out.QueryTimeout > r.maxQueryTimeout {
		out.QueryTimeout = r.maxQueryTimeout
	}
	return out
}

func (r *Registry) openConnection(ctx context.Context) (QueryConn, error) {
	var (
		conn    QueryConn
		connErr error
	)
	if err := r.runBlocking(func() { conn, connErr = r.provider.NewConnection(ctx) }); err != nil {
		return nil, err
	}
	return conn, connErr
}

// cancelServerQuery issues the server-side cancel on a throwaway connection
// so the owning record's connection is never shared with out-of-band work.
func (r *Registry) cancelServerQuery(ctx context.Context, serverID string) error {
	conn, err := r.openConnection(ctx)
	if err != nil {
		return fmt.Errorf("open cancel connection: %w", err)
	}
	defer r.closeConnSafely(conn)

	var cancelErr error
	if err := r.runBlocking(func() { cancelErr = conn.CancelQuery(ctx, serverID) }); err != nil {
		return err
	}
	return cancelErr
}

// runBlocking executes fn on the blocking executor and always waits for it to
// finish, so a connection handed to fn is guaranteed idle when it returns.
func (r *Registry) runBlocking(fn func()) error {
	return r.exec.Submit(context.Background(), fn)
}

func (r *Registry) closeConnSafely(conn QueryConn) {
	if conn == nil {
		return
	}
	if err := r.runBlocking(func() { r.provider.CloseSafely(conn) }); err != nil {
		// Executor already shut down; close inline rather than leak.
		r.provider.CloseSafely(conn)
	}
}

func truncateMessage(msg string) string {
	if len(msg) > maxErrorMessageLength {
		return msg[:maxErrorMessageLength] + "..."
	}
	return msg
}
