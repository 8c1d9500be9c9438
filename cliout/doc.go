// Package cliout provides structured output formatting for the vitest-mcp CLI.
//
// The serve command never uses this package: its stdout carries the MCP
// protocol. The check and version commands render their results through it.
//
// # Output Formats
//
// Two formats are supported:
//   - default: human-readable text with colors and Unicode symbols
//   - json: indented JSON for scripting
//
// Commands pass both the data and a formatter to Print:
//
//	if err := cliout.SetFormat(outputFlag); err != nil {
//	    return err
//	}
//	return cliout.Print(result, func() {
//	    cliout.Success("Path is valid: %s", result.Path)
//	})
//
// # Color
//
// Colors are emitted only when the output is a terminal (golang.org/x/term)
// and NO_COLOR is unset. ForceColor and NoColor override detection.
//
// # Unicode Detection
//
// Unix-like systems are assumed to render Unicode. On Windows, Unicode symbols
// are used under Windows Terminal, VS Code, ConEmu and PowerShell, with ASCII
// fallbacks ([+], [-], [!], [i]) elsewhere.
//
// # Output Destination
//
// Output goes to os.Stdout, looked up on every call. SetOutput redirects it,
// which tests use to capture output in a buffer.
package cliout
