// Package env converts between environment representations and builds the
// environment handed to child processes.
//
// Environment variables arrive as KEY=VALUE slices from os.Environ and are
// easier to inspect as maps. MapToSlice and SliceToMap convert between the two;
// FilterByPrefix and WithoutPrefix select by key prefix.
//
// ChildEnvironment derives the environment for a vitest child process: the
// parent environment minus the server's own VITEST_MCP_ settings, plus
// overrides that keep reporter output machine-readable:
//
//	cmd.Env = env.ChildEnvironment(os.Environ(), map[string]string{"CI": "true"})
package env
