package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/handler"
)

func (s *Server) registerQueryTools() {
	s.mcp.AddTool(mcp.NewTool(
		"execute_query",
		mcp.WithDescription("Run a SQL statement synchronously and return its rows. Write statements require allow_write."),
		mcp.WithString("sql", mcp.Required(), mcp.Description("SQL statement to run")),
		mcp.WithNumber("timeout_seconds", mcp.Description("Abort the statement after this many seconds (default 30)")),
		mcp.WithBoolean("allow_write", mcp.Description("Permit write statements for this call")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments

		timeout := s.cfg.ExecuteTimeout
		if seconds := argInt(args, "timeout_seconds", 0); seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}
		allowWrite := s.cfg.AllowWrite && argBool(args, "allow_write")

		result, err := handler.ExecuteQuery(ctx, s.querier, argString(args, "sql"), timeout, allowWrite)
		if err != nil {
			return s.toolError("execute_query", err)
		}
		return jsonResult(result)
	})
}
