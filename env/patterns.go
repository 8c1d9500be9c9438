package env

import (
	"strings"
)

// FilterByPrefix returns the entries whose key starts with prefix.
// The prefix matching is case-insensitive for keys.
//
// Example:
//
//	settings := env.FilterByPrefix(env.SliceToMap(os.Environ()), "VITEST_MCP_")
func FilterByPrefix(envVars map[string]string, prefix string) map[string]string {
	return selectByPrefix(envVars, prefix, true)
}

// WithoutPrefix returns the entries whose key does not start with prefix.
// The prefix matching is case-insensitive for keys.
func WithoutPrefix(envVars map[string]string, prefix string) map[string]string {
	return selectByPrefix(envVars, prefix, false)
}

func selectByPrefix(envVars map[string]string, prefix string, keep bool) map[string]string {
	result := make(map[string]string)
	prefixUpper := strings.ToUpper(prefix)

	for k, v := range envVars {
		if strings.HasPrefix(strings.ToUpper(k), prefixUpper) == keep {
			result[k] = v
		}
	}
	return result
}

// TrimPrefixKeys strips prefix from every key, e.g. VITEST_MCP_DEBUG -> DEBUG.
// Keys without the prefix are dropped.
func TrimPrefixKeys(envVars map[string]string, prefix string) map[string]string {
	result := make(map[string]string)
	prefixUpper := strings.ToUpper(prefix)

	for k, v := range envVars {
		if strings.HasPrefix(strings.ToUpper(k), prefixUpper) {
			result[strings.ToUpper(k[len(prefix):])] = v
		}
	}
	return result
}
