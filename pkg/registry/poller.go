package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/kernel"
)

// poll watches one running query until it reaches a terminal state or ctx is
// canceled. Cancellation is cooperative: the poller checks ctx between steps
// and while sleeping, and each driver call also receives a ctx-derived
// deadline so an in-flight check aborts promptly. When ctx fires the poller
// returns without finalizing; whoever signaled it owns the teardown.
func (r *Registry) poll(ctx context.Context, queryID string) {
	logger := r.logger.With(zap.String("query_id", queryID), zap.String("op", "poll"))

	for {
		if ctx.Err() != nil {
			return
		}

		r.mu.Lock()
		rec, ok := r.store[queryID]
		if !ok || rec.status.IsTerminal() || rec.runtime == nil || rec.runtime.conn == nil {
			r.mu.Unlock()
			return
		}
		conn := rec.runtime.conn
		interval := rec.runtime.pollInterval
		serverID := rec.serverQueryID
		started := rec.startedAt
		timeout := rec.options.QueryTimeout
		maxRows := rec.options.MaxInlineRows
		r.mu.Unlock()

		if timeout > 0 && time.Since(started) > timeout {
			logger.Warn("query exceeded timeout", zap.Duration("timeout", timeout), zap.String("sfqid", serverID))
			r.finalize(queryID, func(rec *record, _ time.Time) {
				rec.status = StatusTimeout
				rec.errInfo = &ErrorInfo{
					Kind:    ErrKindTimeout,
					Message: fmt.Sprintf("query exceeded timeout of %s", timeout),
				}
			})
			return
		}

		statusCtx, cancelStatus := context.WithTimeout(ctx, r.statusCheckTimeout)
		var (
			progress  kernel.QueryProgress
			statusErr error
		)
		execErr := r.runBlocking(func() { progress, statusErr = conn.QueryStatus(statusCtx, serverID) })
		cancelStatus()

		if ctx.Err() != nil {
			return
		}
		if execErr != nil {
			r.finalizeInternal(queryID, logger, execErr)
			return
		}

		switch {
		case statusErr != nil && errors.Is(statusErr, context.DeadlineExceeded):
			// A slow status check is not evidence the query failed; treat it
			// as still running and check again next tick.
			logger.Warn("status check timed out", zap.String("sfqid", serverID))
		case statusErr != nil:
			r.finalizeInternal(queryID, logger, statusErr)
			return
		case progress.State == kernel.StateFailed:
			logger.Info("query failed server-side",
				zap.String("sfqid", serverID), zap.String("message", progress.Message))
			r.finalize(queryID, func(rec *record, _ time.Time) {
				rec.status = StatusFailed
				rec.errInfo = &ErrorInfo{
					Kind:    ErrKindExecution,
					Message: truncateMessage(progress.Message),
					Code:    progress.Code,
				}
			})
			return
		case progress.State == kernel.StateSucceeded:
			r.fetchAndFinalize(ctx, queryID, logger, conn, serverID, maxRows)
			return
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// fetchAndFinalize retrieves the succeeded query's rows (capped at maxRows)
// and writes the terminal SUCCEEDED record, or a FAILED record when the fetch
// itself breaks.
func (r *Registry) fetchAndFinalize(ctx context.Context, queryID string, logger *zap.Logger, conn QueryConn, serverID string, maxRows int) {
	var (
		result   *kernel.QueryResult
		fetchErr error
	)
	execErr := r.runBlocking(func() { result, fetchErr = conn.QueryResult(ctx, serverID, maxRows) })

	if ctx.Err() != nil {
		return
	}
	if execErr != nil {
		r.finalizeInternal(queryID, logger, execErr)
		return
	}
	if fetchErr != nil {
		if errors.Is(fetchErr, ErrResultDecode) {
			logger.Warn("result rows could not be decoded", zap.String("sfqid", serverID), zap.Error(fetchErr))
			r.finalize(queryID, func(rec *record, _ time.Time) {
				rec.status = StatusFailed
				rec.errInfo = &ErrorInfo{Kind: ErrKindParseResult, Message: truncateMessage(fetchErr.Error())}
			})
			return
		}
		r.finalizeInternal(queryID, logger, fetchErr)
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = []kernel.Row{}
	}
	total := result.TotalRows

	logger.Info("query succeeded",
		zap.String("sfqid", serverID),
		zap.Int("row_count", total),
		zap.Int("inline_rows", len(rows)))

	r.finalize(queryID, func(rec *record, _ time.Time) {
		rec.status = StatusSucceeded
		rec.rowCount = &total
		rec.columns = result.Columns
		rec.resultInline = rows
	})
}

func (r *Registry) finalizeInternal(queryID string, logger *zap.Logger, err error) {
	r.metrics.internalErrors.Inc()
	logger.Error("internal error while polling", zap.Error(err))
	r.finalize(queryID, func(rec *record, _ time.Time) {
		rec.status = StatusFailed
		rec.errInfo = &ErrorInfo{Kind: ErrKindInternal, Message: truncateMessage(err.Error())}
	})
}

// finalize writes a terminal state in three steps: mutate and stamp the
// record under the mutex, close the connection outside it, then detach the
// runtime. Safe to call from the poller itself or from a lifecycle path that
// never started one; it is a no-op when the record is gone or already
// terminal.
func (r *Registry) finalize(queryID string, mutate func(rec *record, now time.Time)) {
	now := time.Now().UTC()

	r.mu.Lock()
	rec, ok := r.store[queryID]
	if !ok || rec.status.IsTerminal() {
		r.mu.Unlock()
		return
	}
	mutate(rec, now)
	rec.finishedAt = now
	rec.ttlExpiresAt = now.Add(r.ttl)

	var conn QueryConn
	if rec.runtime != nil {
		conn = rec.runtime.conn
	}
	started := rec.startedAt
	status := rec.status
	r.mu.Unlock()

	// Only the finalizing goroutine reaches this point for a given record,
	// so the connection is not in use by anyone else.
	r.closeConnSafely(conn)

	r.mu.Lock()
	if rec, ok := r.store[queryID]; ok {
		rec.runtime = nil
	}
	r.mu.Unlock()

	r.metrics.observeTerminal(status, started, now)
}
