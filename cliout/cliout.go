// Package cliout provides structured output formatting for the vitest-mcp CLI.
// It supports human-readable text and JSON, with ANSI colors and Unicode
// symbols when stdout is a terminal.
package cliout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Format represents the output format.
type Format string

const (
	// FormatDefault is the default human-readable format.
	FormatDefault Format = "default"
	// FormatJSON is JSON format.
	FormatJSON Format = "json"
)

// ANSI color codes for consistent styling
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightBlue   = "\033[94m"
)

// Unicode symbols
const (
	SymbolCheck   = "✓"
	SymbolCross   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolDot     = "•"
)

// ASCII fallback symbols for terminals that don't support Unicode
const (
	ASCIICheck   = "[+]"
	ASCIICross   = "[-]"
	ASCIIWarning = "[!]"
	ASCIIInfo    = "[i]"
	ASCIIDot     = "*"
)

type colorMode int

const (
	colorAuto colorMode = iota
	colorOn
	colorOff
)

var (
	// mu protects the settings below.
	mu           sync.RWMutex
	globalFormat = FormatDefault
	color        = colorAuto
	output       io.Writer
)

// ForceColor enables color output regardless of terminal detection.
func ForceColor() {
	mu.Lock()
	color = colorOn
	mu.Unlock()
}

// NoColor disables color output.
func NoColor() {
	mu.Lock()
	color = colorOff
	mu.Unlock()
}

// AutoColor restores terminal-based color detection.
func AutoColor() {
	mu.Lock()
	color = colorAuto
	mu.Unlock()
}

// SetOutput redirects all output to w. A nil writer restores os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

func out() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	if output != nil {
		return output
	}
	return os.Stdout
}

// colorEnabled honours ForceColor/NoColor, then NO_COLOR, then whether the
// output is a terminal.
func colorEnabled() bool {
	mu.RLock()
	mode := color
	mu.RUnlock()

	switch mode {
	case colorOn:
		return true
	case colorOff:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func paint(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + Reset
}

// supportsUnicode detects if the terminal supports Unicode symbols
var supportsUnicode = detectUnicodeSupport()

func detectUnicodeSupport() bool {
	if runtime.GOOS != "windows" {
		return true
	}
	// Windows Terminal, VS Code, ConEmu and PowerShell render Unicode.
	switch {
	case os.Getenv("WT_SESSION") != "",
		os.Getenv("TERM_PROGRAM") == "vscode",
		os.Getenv("ConEmuPID") != "",
		os.Getenv("PSModulePath") != "",
		os.Getenv("TERM") != "":
		return true
	}
	// Old Windows Console/CMD
	return false
}

func getIcon(unicode, ascii string) string {
	if supportsUnicode {
		return unicode
	}
	return ascii
}

// SetFormat sets the global output format.
func SetFormat(format string) error {
	mu.Lock()
	defer mu.Unlock()
	switch format {
	case "default", "":
		globalFormat = FormatDefault
	case "json":
		globalFormat = FormatJSON
	default:
		return fmt.Errorf("invalid output format: %s (valid options: default, json)", format)
	}
	return nil
}

// GetFormat returns the current output format.
func GetFormat() Format {
	mu.RLock()
	defer mu.RUnlock()
	return globalFormat
}

// IsJSON returns true if the output format is JSON.
func IsJSON() bool {
	return GetFormat() == FormatJSON
}

// PrintJSON prints data as indented JSON.
func PrintJSON(data interface{}) error {
	encoder := json.NewEncoder(out())
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Print outputs data in the configured format.
// For default format, uses the formatter function.
// For JSON format, marshals the data object.
func Print(data interface{}, formatter func()) error {
	if IsJSON() {
		return PrintJSON(data)
	}
	formatter()
	return nil
}

// Header prints a bold header with a divider
func Header(text string) {
	fmt.Fprintf(out(), "\n%s\n", paint(Bold, text))
	fmt.Fprintln(out(), strings.Repeat("=", len(text)))
}

// Success prints a success message with green checkmark
func Success(format string, args ...interface{}) {
	fmt.Fprintf(out(), "%s %s\n", paint(BrightGreen, getIcon(SymbolCheck, ASCIICheck)), fmt.Sprintf(format, args...))
}

// Error prints an error message with red X
func Error(format string, args ...interface{}) {
	fmt.Fprintf(out(), "%s %s\n", paint(BrightRed, getIcon(SymbolCross, ASCIICross)), fmt.Sprintf(format, args...))
}

// Warning prints a warning message with yellow triangle
func Warning(format string, args ...interface{}) {
	fmt.Fprintf(out(), "%s  %s\n", paint(BrightYellow, getIcon(SymbolWarning, ASCIIWarning)), fmt.Sprintf(format, args...))
}

// Info prints an info message with blue info icon
func Info(format string, args ...interface{}) {
	fmt.Fprintf(out(), "%s  %s\n", paint(BrightBlue, getIcon(SymbolInfo, ASCIIInfo)), fmt.Sprintf(format, args...))
}

// Item prints an indented item
func Item(format string, args ...interface{}) {
	fmt.Fprintf(out(), "   %s\n", fmt.Sprintf(format, args...))
}

// Bullet prints a bulleted list item
func Bullet(format string, args ...interface{}) {
	fmt.Fprintf(out(), "  %s %s\n", getIcon(SymbolDot, ASCIIDot), fmt.Sprintf(format, args...))
}

// Plain prints plain text without any formatting.
func Plain(format string, args ...interface{}) {
	fmt.Fprintf(out(), format+"\n", args...)
}

// Label prints a label and value pair
func Label(label, value string) {
	fmt.Fprintf(out(), "   %s %s\n", paint(Dim, fmt.Sprintf("%-12s", label+":")), value)
}

// Status returns a status word colored by meaning.
func Status(status string) string {
	switch strings.ToLower(status) {
	case "valid", "ok", "passed", "closed":
		return paint(BrightGreen, status)
	case "skipped", "half-open":
		return paint(BrightYellow, status)
	case "rejected", "failed", "error", "open":
		return paint(BrightRed, status)
	default:
		return status
	}
}

// TableRow represents a row in a table as a map of column header to value.
type TableRow map[string]string

// Table prints a simple table with the given headers and rows.
func Table(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}
	w := out()

	widths := make(map[string]int)
	for _, header := range headers {
		widths[header] = len(header)
	}
	for _, row := range rows {
		for _, header := range headers {
			if len(row[header]) > widths[header] {
				widths[header] = len(row[header])
			}
		}
	}

	fmt.Fprint(w, "   ")
	for _, header := range headers {
		fmt.Fprintf(w, "%s  ", paint(Bold, fmt.Sprintf("%-*s", widths[header], header)))
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "   ")
	for _, header := range headers {
		fmt.Fprint(w, strings.Repeat("─", widths[header])+"  ")
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprint(w, "   ")
		for _, header := range headers {
			fmt.Fprintf(w, "%-*s  ", widths[header], row[header])
		}
		fmt.Fprintln(w)
	}
}
