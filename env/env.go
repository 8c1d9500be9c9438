package env

import (
	"sort"
	"strings"
)

// ServerPrefix is the key prefix of the server's own settings.
const ServerPrefix = "VITEST_MCP_"

// MapToSlice converts an env map into KEY=VALUE entries sorted by key.
func MapToSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(env))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}

// SliceToMap converts KEY=VALUE entries into a map, skipping malformed rows.
// Later entries win, matching exec.Cmd semantics.
func SliceToMap(envSlice []string) map[string]string {
	result := make(map[string]string, len(envSlice))
	for _, envVar := range envSlice {
		key, value, ok := strings.Cut(envVar, "=")
		if !ok || key == "" {
			continue
		}
		result[key] = value
	}
	return result
}

// ChildEnvironment returns base without server settings, with overrides applied.
func ChildEnvironment(base []string, overrides map[string]string) []string {
	merged := WithoutPrefix(SliceToMap(base), ServerPrefix)
	for k, v := range overrides {
		merged[k] = v
	}
	return MapToSlice(merged)
}
