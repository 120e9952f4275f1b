package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/handler"
)

func (s *Server) registerCatalogTools() {
	s.mcp.AddTool(mcp.NewTool(
		"list_schemas",
		mcp.WithDescription("List schemas in a Snowflake database"),
		mcp.WithString("database", mcp.Required(), mcp.Description("Database name")),
		mcp.WithString("name_contains", mcp.Description("Keep only names containing this substring (case-insensitive)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		info, err := handler.ListSchemas(ctx, s.querier, argString(args, "database"), argNameFilter(args))
		if err != nil {
			return s.toolError("list_schemas", err)
		}
		return jsonResult(info)
	})

	s.mcp.AddTool(mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List tables in a Snowflake schema"),
		mcp.WithString("database", mcp.Required(), mcp.Description("Database name")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema name")),
		mcp.WithString("name_contains", mcp.Description("Keep only names containing this substring (case-insensitive)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		info, err := handler.ListTables(ctx, s.querier, argString(args, "database"), argString(args, "schema"), argNameFilter(args))
		if err != nil {
			return s.toolError("list_tables", err)
		}
		return jsonResult(info)
	})

	s.mcp.AddTool(mcp.NewTool(
		"list_views",
		mcp.WithDescription("List views in a Snowflake schema"),
		mcp.WithString("database", mcp.Required(), mcp.Description("Database name")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema name")),
		mcp.WithString("name_contains", mcp.Description("Keep only names containing this substring (case-insensitive)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		info, err := handler.ListViews(ctx, s.querier, argString(args, "database"), argString(args, "schema"), argNameFilter(args))
		if err != nil {
			return s.toolError("list_views", err)
		}
		return jsonResult(info)
	})

	s.mcp.AddTool(mcp.NewTool(
		"list_roles",
		mcp.WithDescription("List roles visible to the current session"),
		mcp.WithString("name_contains", mcp.Description("Keep only names containing this substring (case-insensitive)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info, err := handler.ListRoles(ctx, s.querier, argNameFilter(request.Params.Arguments))
		if err != nil {
			return s.toolError("list_roles", err)
		}
		return jsonResult(info)
	})

	s.mcp.AddTool(mcp.NewTool(
		"list_warehouses",
		mcp.WithDescription("List warehouses visible to the current session"),
		mcp.WithString("name_contains", mcp.Description("Keep only names containing this substring (case-insensitive)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info, err := handler.ListWarehouses(ctx, s.querier, argNameFilter(request.Params.Arguments))
		if err != nil {
			return s.toolError("list_warehouses", err)
		}
		return jsonResult(info)
	})

	s.mcp.AddTool(mcp.NewTool(
		"describe_table",
		mcp.WithDescription("Describe the columns of a table"),
		mcp.WithString("database", mcp.Required(), mcp.Description("Database name")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema name")),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		info, err := handler.DescribeTable(ctx, s.querier,
			argString(args, "database"), argString(args, "schema"), argString(args, "table"))
		if err != nil {
			return s.toolError("describe_table", err)
		}
		return jsonResult(info)
	})

	s.mcp.AddTool(mcp.NewTool(
		"sample_table_data",
		mcp.WithDescription("Fetch a random row sample from a table"),
		mcp.WithString("database", mcp.Required(), mcp.Description("Database name")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema name")),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
		mcp.WithNumber("sample_size", mcp.Description("Number of rows to sample (default 10)")),
		mcp.WithArray("columns", mcp.Description("Columns to include; all when omitted")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		data, err := handler.SampleTableData(ctx, s.querier,
			argString(args, "database"), argString(args, "schema"), argString(args, "table"),
			argInt(args, "sample_size", 0), argStringSlice(args, "columns"))
		if err != nil {
			return s.toolError("sample_table_data", err)
		}
		return jsonResult(data)
	})

	s.mcp.AddTool(mcp.NewTool(
		"analyze_table_statistics",
		mcp.WithDescription("Compute column statistics (counts, ranges, percentiles, top values) for a table"),
		mcp.WithString("database", mcp.Required(), mcp.Description("Database name")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema name")),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
		mcp.WithArray("columns", mcp.Description("Columns to analyze; every supported column when omitted")),
		mcp.WithNumber("top_k_limit", mcp.Description("How many top values to report for string columns (default 10)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		stats, err := handler.AnalyzeTableStatistics(ctx, s.querier,
			argString(args, "database"), argString(args, "schema"), argString(args, "table"),
			argStringSlice(args, "columns"), argInt(args, "top_k_limit", 0))
		if err != nil {
			return s.toolError("analyze_table_statistics", err)
		}
		return jsonResult(stats)
	})

	s.mcp.AddTool(mcp.NewTool(
		"profile_semi_structured_columns",
		mcp.WithDescription("Profile VARIANT, ARRAY and OBJECT columns over a row sample"),
		mcp.WithString("database", mcp.Required(), mcp.Description("Database name")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema name")),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
		mcp.WithArray("columns", mcp.Description("Columns to profile; every semi-structured column when omitted")),
		mcp.WithNumber("sample_rows", mcp.Description("Sample size in rows (default 10000)")),
		mcp.WithNumber("top_k_limit", mcp.Description("How many top-level keys to report (default 10)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		profile, err := handler.ProfileSemiStructuredColumns(ctx, s.querier,
			argString(args, "database"), argString(args, "schema"), argString(args, "table"),
			argStringSlice(args, "columns"), argInt(args, "sample_rows", 0), argInt(args, "top_k_limit", 0))
		if err != nil {
			return s.toolError("profile_semi_structured_columns", err)
		}
		return jsonResult(profile)
	})
}

func (s *Server) toolError(tool string, err error) (*mcp.CallToolResult, error) {
	s.logger.Warn("tool call failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error()), nil
}
