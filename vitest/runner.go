// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vitest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Fitzpa/vitest-mcp/cmdutil"
	"github.com/Fitzpa/vitest-mcp/env"
	"github.com/Fitzpa/vitest-mcp/fileutil"
	"github.com/Fitzpa/vitest-mcp/logutil"
	"github.com/Fitzpa/vitest-mcp/pathutil"
	"github.com/Fitzpa/vitest-mcp/security"
)

// ErrRunnerUnavailable is returned while the circuit breaker is open.
var ErrRunnerUnavailable = errors.New("vitest runner unavailable: too many consecutive failures")

// coverageSummaryFile is the json-summary reporter's output file name.
const coverageSummaryFile = "coverage-summary.json"

// childEnv keeps vitest output free of colour codes and interactive prompts.
var childEnv = map[string]string{
	"CI":          "true",
	"NO_COLOR":    "1",
	"FORCE_COLOR": "0",
}

// ExecFunc runs a command; cmdutil.Run is the production implementation.
type ExecFunc func(ctx context.Context, name string, args []string, opts cmdutil.Options) (*cmdutil.Result, error)

// Options configures a Runner.
type Options struct {
	// PackageRunner is one of npx, pnpm, yarn or bun.
	PackageRunner   string
	Timeout         time.Duration
	MaxOutputBytes  int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	// OnBreakerStateChange is called whenever the breaker changes state.
	OnBreakerStateChange func(from, to gobreaker.State)
	// Exec replaces cmdutil.Run, mainly for tests.
	Exec ExecFunc
	// LookPath resolves the package runner binary. It defaults to
	// pathutil.LocateTool when Exec is unset and is skipped otherwise.
	LookPath func(tool string) (string, error)
	// FS replaces the host filesystem, mainly for tests.
	FS fileutil.FileSystem
}

// Runner executes vitest behind a circuit breaker.
type Runner struct {
	opts    Options
	exec    ExecFunc
	look    func(tool string) (string, error)
	fs      fileutil.FileSystem
	breaker *gobreaker.CircuitBreaker
	log     *logutil.ComponentLogger
}

// NewRunner creates a Runner. Zero-valued options fall back to defaults.
func NewRunner(opts Options) (*Runner, error) {
	if opts.PackageRunner == "" {
		opts.PackageRunner = "npx"
	}
	if _, ok := launchers[opts.PackageRunner]; !ok {
		return nil, fmt.Errorf("unsupported package runner %q", opts.PackageRunner)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cmdutil.DefaultTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = cmdutil.DefaultMaxOutputBytes
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 3
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	r := &Runner{
		opts: opts,
		exec: opts.Exec,
		look: opts.LookPath,
		fs:   opts.FS,
		log:  logutil.NewLogger("vitest"),
	}
	if r.exec == nil {
		r.exec = cmdutil.Run
		if r.look == nil {
			r.look = pathutil.LocateTool
		}
	}
	if r.fs == nil {
		r.fs = fileutil.OS
	}

	failures := opts.BreakerFailures
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vitest",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
			if opts.OnBreakerStateChange != nil {
				opts.OnBreakerStateChange(from, to)
			}
		},
	})
	return r, nil
}

// WithPackageRunner returns a copy of r that launches vitest through runner,
// sharing r's circuit breaker.
func (r *Runner) WithPackageRunner(runner string) (*Runner, error) {
	if _, ok := launchers[runner]; !ok {
		return nil, fmt.Errorf("unsupported package runner %q", runner)
	}
	clone := *r
	clone.opts.PackageRunner = runner
	return &clone, nil
}

// BreakerState reports the current circuit breaker state.
func (r *Runner) BreakerState() gobreaker.State {
	return r.breaker.State()
}

// CoverageReport pairs the test outcome of a coverage run with its summary.
type CoverageReport struct {
	Tests    *TestRunResult   `json:"tests"`
	Coverage *CoverageSummary `json:"coverage"`
}

// Run executes the tests selected by req. Coverage settings in req are ignored.
func (r *Runner) Run(ctx context.Context, req Request) (*TestRunResult, error) {
	req.Coverage = false
	report, err := r.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return report.Tests, nil
}

// Coverage executes the tests selected by req with coverage enabled.
func (r *Runner) Coverage(ctx context.Context, req Request) (*CoverageReport, error) {
	req.Coverage = true
	return r.execute(ctx, req)
}

func (r *Runner) execute(ctx context.Context, req Request) (*CoverageReport, error) {
	reportPath, err := security.CreateSecureTempPath(req.Root, "vitest-report")
	if err != nil {
		return nil, err
	}
	var coverageDir string
	if req.Coverage {
		if coverageDir, err = security.CreateSecureTempPath(req.Root, "vitest-coverage"); err != nil {
			return nil, err
		}
	}

	inv, err := buildInvocation(r.opts.PackageRunner, req, reportPath, coverageDir)
	if err != nil {
		return nil, err
	}
	if r.look != nil {
		if inv.name, err = r.look(inv.name); err != nil {
			return nil, err
		}
	}
	defer r.cleanup(inv)

	log := r.log.WithOperation("run").WithFields("root", inv.root)
	log.Debug("starting vitest", "command", cmdutil.FormatCommandLine(inv.name, inv.args))

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.invoke(ctx, inv, log)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w (%w)", ErrRunnerUnavailable, err)
		}
		return nil, err
	}
	return out.(*CoverageReport), nil
}

// invoke runs vitest once. Only infrastructure failures are returned as
// errors; failing tests produce a report with Success=false.
func (r *Runner) invoke(ctx context.Context, inv *invocation, log *logutil.ComponentLogger) (*CoverageReport, error) {
	result, runErr := r.exec(ctx, inv.name, inv.args, cmdutil.Options{
		Dir:            inv.root,
		Env:            env.ChildEnvironment(os.Environ(), childEnv),
		Timeout:        r.opts.Timeout,
		MaxOutputBytes: r.opts.MaxOutputBytes,
		OnStderrLine: func(line string) {
			log.Debug("vitest", "stderr", line)
		},
	})
	if result == nil {
		return nil, fmt.Errorf("failed to run vitest: %w", runErr)
	}
	if result.Truncated {
		log.Warn("vitest output truncated", "limit", r.opts.MaxOutputBytes)
	}

	data, readErr := r.fs.ReadFile(inv.reportPath)
	if readErr != nil {
		data = result.Stdout
	}
	tests, err := ParseReport(data, inv.root)
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("vitest failed: %w", runErr)
		}
		return nil, err
	}
	log.Info("vitest finished",
		"success", tests.Success,
		"passed", tests.PassedTests,
		"failed", tests.FailedTests,
		"duration", result.Duration)

	report := &CoverageReport{Tests: tests}
	if inv.coverageDir != "" {
		data, err := r.fs.ReadFile(filepath.Join(inv.coverageDir, coverageSummaryFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read coverage summary: %w", err)
		}
		if report.Coverage, err = ParseCoverageSummary(data, inv.root); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (r *Runner) cleanup(inv *invocation) {
	if err := r.fs.Remove(inv.reportPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.log.Warn("failed to remove report file", "path", inv.reportPath, "error", err)
	}
	if inv.coverageDir != "" {
		if err := r.fs.RemoveAll(inv.coverageDir); err != nil {
			r.log.Warn("failed to remove coverage directory", "path", inv.coverageDir, "error", err)
		}
	}
}

func sortByLineCoverage(files []FileCoverage) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Lines.Pct != files[j].Lines.Pct {
			return files[i].Lines.Pct < files[j].Lines.Pct
		}
		return files[i].Path < files[j].Path
	})
}
