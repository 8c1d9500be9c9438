package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Fitzpa/vitest-mcp/security"
)

// argsMap extracts the arguments map from an MCP tool call request.
// Returns an empty map if arguments are nil or not a map.
func argsMap(request mcp.CallToolRequest) map[string]any {
	if request.Params.Arguments != nil {
		if m, ok := request.Params.Arguments.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}

// requiredString returns args[key] as a non-empty string.
func requiredString(args map[string]any, key string) (string, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", &security.Error{
			Kind:   security.KindInvalidInput,
			Param:  key,
			Reason: fmt.Sprintf("%s must be a non-empty string", key),
		}
	}
	return s, nil
}

// optionalString returns args[key] when present. A present non-string value
// is an error; an absent or null value yields "".
func optionalString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	return requiredString(args, key)
}

// stringSlice converts a validated JSON array into []string.
func stringSlice(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// marshalToolResult marshals any value to JSON and returns it as an MCP tool result.
func marshalToolResult(data any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal result: " + err.Error())
	}
	return mcp.NewToolResultText(string(jsonData))
}
