package mcpserver

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"database":    "SALES",
		"sample_size": float64(25),
		"allow_write": true,
		"columns":     []any{"ID", "NAME", 42},
	}

	assert.Equal(t, "SALES", argString(args, "database"))
	assert.Equal(t, "", argString(args, "missing"))

	assert.Equal(t, 25, argInt(args, "sample_size", 0))
	assert.Equal(t, 7, argInt(args, "missing", 7))

	assert.True(t, argBool(args, "allow_write"))
	assert.False(t, argBool(args, "missing"))

	assert.Equal(t, []string{"ID", "NAME"}, argStringSlice(args, "columns"),
		"non-string items are dropped")
	assert.Nil(t, argStringSlice(args, "missing"))
}

func TestArgNameFilter(t *testing.T) {
	assert.Nil(t, argNameFilter(map[string]any{}))

	filter := argNameFilter(map[string]any{"name_contains": "ord"})
	require.NotNil(t, filter)
	assert.Equal(t, "ord", filter.Contains)
}

func TestJSONResult(t *testing.T) {
	result, err := jsonResult(map[string]int{"removed": 3})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool results are text content")

	var decoded map[string]int
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	assert.Equal(t, 3, decoded["removed"])
}
