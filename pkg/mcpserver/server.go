// Package mcpserver wires the tool handlers and the query registry into an
// MCP server speaking stdio. Every tool returns a JSON payload as text
// content; handler errors become tool errors, not protocol errors.
package mcpserver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/handler"
	"github.com/JailtonJunior94/snowflake-mcp/pkg/registry"
)

const serverName = "snowflake-mcp"

// Config tunes the tool surface.
type Config struct {
	Version string
	// AllowWrite lets execute_query run write statements.
	AllowWrite bool
	// ExecuteTimeout bounds synchronous execute_query calls.
	ExecuteTimeout time.Duration
}

// Server owns the MCP protocol endpoint.
type Server struct {
	mcp      *server.MCPServer
	querier  handler.Querier
	registry *registry.Registry
	logger   *zap.Logger
	cfg      Config
}

// New assembles the server and registers every tool.
func New(querier handler.Querier, reg *registry.Registry, logger *zap.Logger, cfg Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		mcp: server.NewMCPServer(
			serverName,
			cfg.Version,
			server.WithLogging(),
			server.WithRecovery(),
		),
		querier:  querier,
		registry: reg,
		logger:   logger,
		cfg:      cfg,
	}
	s.registerCatalogTools()
	s.registerQueryTools()
	s.registerRegistryTools()
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving mcp over stdio", zap.String("server", serverName), zap.String("version", s.cfg.Version))
	return server.ServeStdio(s.mcp)
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func argStringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// argNameFilter reads the optional name_contains argument.
func argNameFilter(args map[string]any) *handler.NameFilter {
	if contains := argString(args, "name_contains"); contains != "" {
		return &handler.NameFilter{Contains: contains}
	}
	return nil
}
