// Package cmdutil runs external commands as argv lists, never through a shell,
// capturing bounded output and optionally streaming it line-by-line.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

// DefaultTimeout is the default timeout for command execution.
const DefaultTimeout = 5 * time.Minute

// DefaultMaxOutputBytes caps each captured stream when Options leaves it unset.
const DefaultMaxOutputBytes = 10 << 20

// OutputLineHandler is a callback for processing output lines in real-time.
type OutputLineHandler func(line string)

// Options configures a command run.
type Options struct {
	Dir            string
	Env            []string // additional KEY=VALUE pairs appended to the parent environment
	Timeout        time.Duration
	MaxOutputBytes int
	OnStderrLine   OutputLineHandler
}

// Result holds the captured outcome of a finished command.
type Result struct {
	Stdout    []byte
	Stderr    []byte
	ExitCode  int
	Truncated bool // either stream exceeded MaxOutputBytes
	Duration  time.Duration
}

// Run executes name with args and waits for it to finish.
//
// A non-zero exit status is returned as an error wrapping *exec.ExitError,
// together with a populated Result so callers can still inspect the output.
func Run(ctx context.Context, name string, args []string, opts Options) (*Result, error) {
	if name == "" {
		return nil, errors.New("command name must not be empty")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := opts.MaxOutputBytes
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)

	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	cmd.Stdout = stdout
	var lines *lineWriter
	if opts.OnStderrLine != nil {
		lines = &lineWriter{output: stderr, handler: opts.OnStderrLine}
		cmd.Stderr = lines
	} else {
		cmd.Stderr = stderr
	}

	start := time.Now()
	err := cmd.Run()
	if lines != nil {
		lines.Flush()
	}

	result := &Result{
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		ExitCode:  cmd.ProcessState.ExitCode(),
		Truncated: stdout.truncated || stderr.truncated,
		Duration:  time.Since(start),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("command timed out after %s: %w", timeout, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, fmt.Errorf("command exited with code %d: %w", result.ExitCode, err)
		}
		return result, fmt.Errorf("command failed: %w", err)
	}
	return result, nil
}

// RunCommandWithOutput runs a command in dir and returns its combined output.
func RunCommandWithOutput(ctx context.Context, name string, args []string, dir string) ([]byte, error) {
	result, err := Run(ctx, name, args, Options{Dir: dir})
	if result == nil {
		return nil, err
	}
	return append(result.Stdout, result.Stderr...), err
}

// FormatCommandLine renders an argv list as a single bash-quoted line for logs.
func FormatCommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, word := range append([]string{name}, args...) {
		quoted, err := syntax.Quote(word, syntax.LangBash)
		if err != nil {
			quoted = strconv.Quote(word)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}
