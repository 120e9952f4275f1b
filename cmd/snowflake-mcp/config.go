package main

import (
	"os"
	"strconv"
	"time"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/snowflake"
)

type appConfig struct {
	Snowflake snowflake.Config

	PollInterval    time.Duration
	MaxInlineRows   int
	QueryTTL        time.Duration
	MaxQueryTimeout time.Duration
	Workers         int

	AllowWrite     bool
	ExecuteTimeout time.Duration
	MetricsAddr    string
}

// loadConfig reads everything from the environment. Connection parameters
// come from SNOWFLAKE_*; server behavior from MCP_*.
func loadConfig() (appConfig, error) {
	cfg := appConfig{
		Snowflake: snowflake.Config{
			Account:       os.Getenv("SNOWFLAKE_ACCOUNT"),
			User:          os.Getenv("SNOWFLAKE_USER"),
			Password:      os.Getenv("SNOWFLAKE_PASSWORD"),
			Role:          os.Getenv("SNOWFLAKE_ROLE"),
			Warehouse:     os.Getenv("SNOWFLAKE_WAREHOUSE"),
			Database:      os.Getenv("SNOWFLAKE_DATABASE"),
			Schema:        os.Getenv("SNOWFLAKE_SCHEMA"),
			Authenticator: os.Getenv("SNOWFLAKE_AUTHENTICATOR"),
			Token:         os.Getenv("SNOWFLAKE_TOKEN"),
		},
		PollInterval:    envDuration("MCP_POLL_INTERVAL", time.Second),
		MaxInlineRows:   envInt("MCP_MAX_INLINE_ROWS", 1000),
		QueryTTL:        envDuration("MCP_QUERY_TTL", 24*time.Hour),
		MaxQueryTimeout: envDuration("MCP_MAX_QUERY_TIMEOUT", time.Hour),
		Workers:         envInt("MCP_WORKERS", 8),
		AllowWrite:      envBool("MCP_ALLOW_WRITE"),
		ExecuteTimeout:  envDuration("MCP_EXECUTE_TIMEOUT", 30*time.Second),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
	}
	if err := cfg.Snowflake.Validate(); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
