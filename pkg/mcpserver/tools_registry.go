package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/registry"
)

func (s *Server) registerRegistryTools() {
	s.mcp.AddTool(mcp.NewTool(
		"submit_query",
		mcp.WithDescription("Submit a SQL query for asynchronous execution and return its query id immediately"),
		mcp.WithString("sql", mcp.Required(), mcp.Description("SQL statement to run")),
		mcp.WithNumber("timeout_seconds", mcp.Description("Mark the query TIMEOUT after this many seconds of running; 0 disables the limit")),
		mcp.WithNumber("max_inline_rows", mcp.Description("How many result rows to keep in memory for paging")),
		mcp.WithNumber("poll_interval_seconds", mcp.Description("Seconds between status checks")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments

		opts := registry.Options{MaxInlineRows: -1}
		if seconds := argInt(args, "timeout_seconds", 0); seconds > 0 {
			opts.QueryTimeout = time.Duration(seconds) * time.Second
		}
		if rows, ok := args["max_inline_rows"].(float64); ok && rows >= 0 {
			opts.MaxInlineRows = int(rows)
		}
		if seconds := argInt(args, "poll_interval_seconds", 0); seconds > 0 {
			opts.PollInterval = time.Duration(seconds) * time.Second
		}

		queryID, err := s.registry.ExecuteQuery(ctx, argString(args, "sql"), &opts)
		if err != nil {
			return s.toolError("submit_query", err)
		}
		return jsonResult(map[string]string{"query_id": queryID})
	})

	s.mcp.AddTool(mcp.NewTool(
		"query_status",
		mcp.WithDescription("Get the current status snapshot of an asynchronous query"),
		mcp.WithString("query_id", mcp.Required(), mcp.Description("Registry query id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		queryID := argString(request.Params.Arguments, "query_id")
		snap := s.registry.GetSnapshot(queryID)
		if snap == nil {
			return mcp.NewToolResultError(fmt.Sprintf("query %s not found", queryID)), nil
		}
		return jsonResult(snap)
	})

	s.mcp.AddTool(mcp.NewTool(
		"query_result",
		mcp.WithDescription("Fetch a page of rows from a succeeded asynchronous query"),
		mcp.WithString("query_id", mcp.Required(), mcp.Description("Registry query id")),
		mcp.WithNumber("offset", mcp.Description("Row offset to start from (default 0)")),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to return; omit for all remaining rows")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		queryID := argString(args, "query_id")

		page := s.registry.FetchResult(queryID, argInt(args, "offset", 0), argInt(args, "limit", -1))
		if page == nil {
			return mcp.NewToolResultError(fmt.Sprintf("no result available for query %s", queryID)), nil
		}
		return jsonResult(page)
	})

	s.mcp.AddTool(mcp.NewTool(
		"cancel_query",
		mcp.WithDescription("Cancel a running asynchronous query"),
		mcp.WithString("query_id", mcp.Required(), mcp.Description("Registry query id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		queryID := argString(request.Params.Arguments, "query_id")
		canceled := s.registry.Cancel(ctx, queryID)
		return jsonResult(map[string]any{"query_id": queryID, "canceled": canceled})
	})

	s.mcp.AddTool(mcp.NewTool(
		"list_queries",
		mcp.WithDescription("List registered queries, optionally filtered by status"),
		mcp.WithString("status", mcp.Description("Filter: pending, running, succeeded, failed, canceled or timeout")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var filter *registry.Status
		if raw := argString(request.Params.Arguments, "status"); raw != "" {
			status, ok := registry.ParseStatus(raw)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", raw)), nil
			}
			filter = &status
		}
		snapshots := s.registry.ListQueries(filter)
		return jsonResult(map[string]any{"queries": snapshots, "count": len(snapshots)})
	})

	s.mcp.AddTool(mcp.NewTool(
		"prune_queries",
		mcp.WithDescription("Remove query records whose retention TTL has expired"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		removed := s.registry.PruneExpired(ctx)
		return jsonResult(map[string]int{"removed": removed})
	})
}
