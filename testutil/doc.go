// Package testutil provides common testing utilities for the vitest MCP server.
//
// This package includes helpers for:
//   - Capturing stdout during test execution (CaptureOutput)
//   - Creating temporary directories with automatic cleanup (TempDir)
//   - Writing Node.js project fixtures to disk (WriteFiles)
//   - Multi-substring assertions on command output (ContainsAll)
//
// All functions that take a *testing.T call t.Helper() for proper line reporting.
//
// Example usage:
//
//	func TestCheckCommand(t *testing.T) {
//	    root := testutil.TempDir(t)
//	    testutil.WriteFiles(t, root, map[string]string{"package.json": "{}"})
//
//	    output := testutil.CaptureOutput(t, func() error {
//	        return runCheck(root)
//	    })
//	    if missing, ok := testutil.ContainsAll(output, "valid", root); !ok {
//	        t.Errorf("output missing %q:\n%s", missing, output)
//	    }
//	}
package testutil
