// Package mcpserver exposes vitest over the Model Context Protocol.
//
// Every tool argument passes the security validators before it reaches the
// filesystem or a subprocess. Rejections are returned to the client as tool
// errors carrying the validator's message, logged with the violated rule and
// counted in Prometheus metrics.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Fitzpa/vitest-mcp/config"
	"github.com/Fitzpa/vitest-mcp/fileutil"
	"github.com/Fitzpa/vitest-mcp/logutil"
	"github.com/Fitzpa/vitest-mcp/projecttype"
	"github.com/Fitzpa/vitest-mcp/security"
	"github.com/Fitzpa/vitest-mcp/vitest"
)

// Name is the server name announced to MCP clients.
const Name = "vitest-mcp"

// ErrNoProjectRoot is returned by tools that need a project before one is set.
var ErrNoProjectRoot = errors.New("project root not set: call set_project_root first")

// TestRunner is the subset of *vitest.Runner the tools use.
type TestRunner interface {
	Run(ctx context.Context, req vitest.Request) (*vitest.TestRunResult, error)
	Coverage(ctx context.Context, req vitest.Request) (*vitest.CoverageReport, error)
}

// Option configures a Server.
type Option func(*Server)

// WithFileSystem replaces the host filesystem.
func WithFileSystem(fsys fileutil.FileSystem) Option {
	return func(s *Server) { s.fs = fsys }
}

// WithRunnerFactory replaces how a TestRunner is obtained for a package runner.
func WithRunnerFactory(factory func(packageRunner string) (TestRunner, error)) Option {
	return func(s *Server) { s.runnerFor = factory }
}

// Server holds the MCP server and the per-session project state.
type Server struct {
	cfg       *config.Config
	fs        fileutil.FileSystem
	limiter   *rate.Limiter
	mcp       *server.MCPServer
	tools     map[string]server.ToolHandlerFunc
	runnerFor func(packageRunner string) (TestRunner, error)
	log       *logutil.ComponentLogger

	mu      sync.RWMutex
	project *projecttype.NodeProject
}

// New creates a Server from cfg. If cfg.ProjectRoot is set it is applied as
// if set_project_root had been called.
func New(cfg *config.Config, version string, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		fs:      fileutil.OS,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		tools:   make(map[string]server.ToolHandlerFunc),
		log:     logutil.NewLogger("mcpserver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runnerFor == nil {
		base, err := vitest.NewRunner(vitest.Options{
			PackageRunner:        "npx",
			Timeout:              cfg.TestTimeout,
			MaxOutputBytes:       cfg.MaxOutputBytes,
			BreakerFailures:      cfg.BreakerFailures,
			BreakerTimeout:       cfg.BreakerTimeout,
			OnBreakerStateChange: func(_, to gobreaker.State) { recordBreakerState(to) },
			FS:                   s.fs,
		})
		if err != nil {
			return nil, err
		}
		s.runnerFor = func(packageRunner string) (TestRunner, error) {
			return base.WithPackageRunner(packageRunner)
		}
	}

	s.mcp = server.NewMCPServer(Name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()

	if cfg.ProjectRoot != "" {
		if _, err := s.setProjectRoot(cfg.ProjectRoot); err != nil {
			return nil, fmt.Errorf("initial project root: %w", err)
		}
	}
	return s, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// CallTool invokes a registered tool directly, bypassing the transport.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	handler, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	return handler(ctx, request)
}

// Serve speaks MCP over the given streams until ctx is done or stdin closes.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.log.Info("serving MCP over stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, stdin, stdout)
}

// Project returns the current project, or nil when none is set.
func (s *Server) Project() *projecttype.NodeProject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

func (s *Server) setProjectRoot(path string) (*projecttype.NodeProject, error) {
	project, err := projecttype.DetectNodeProject(s.fs, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.project = project
	s.mu.Unlock()

	s.log.Info("project root set",
		"root", project.Dir,
		"packageManager", project.PackageManager,
		"hasVitest", project.HasVitest)
	return project, nil
}

// currentProject returns the project or ErrNoProjectRoot.
func (s *Server) currentProject() (*projecttype.NodeProject, error) {
	if p := s.Project(); p != nil {
		return p, nil
	}
	return nil, ErrNoProjectRoot
}

// runner returns the TestRunner for project, honoring a configured override.
func (s *Server) runner(project *projecttype.NodeProject) (TestRunner, error) {
	packageRunner := s.cfg.PackageRunner
	if packageRunner == "" {
		packageRunner = project.Runner()
	}
	return s.runnerFor(packageRunner)
}

// addTool registers tool with fn wrapped by handle.
func (s *Server) addTool(tool mcp.Tool, fn toolFunc) {
	handler := s.handle(tool.Name, fn)
	s.tools[tool.Name] = handler
	s.mcp.AddTool(tool, handler)
}

// toolFunc is the body of a tool: it returns a JSON-serializable result.
type toolFunc func(ctx context.Context, args map[string]any, log *logutil.ComponentLogger) (any, error)

// handle wraps a toolFunc with rate limiting, logging, metrics and result encoding.
// Failures become MCP tool errors; the Go error is reserved for protocol faults.
func (s *Server) handle(tool string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		log := s.log.WithTool(tool)

		if !s.limiter.Allow() {
			recordToolCall(tool, outcomeRateLimited, time.Since(start))
			log.Warn("rate limit exceeded")
			return mcp.NewToolResultError(fmt.Sprintf("rate limit exceeded for tool %q, please wait before retrying", tool)), nil
		}

		result, err := fn(ctx, argsMap(request), log)
		if err != nil {
			if kind, ok := security.KindOf(err); ok {
				recordRejection(tool, kind)
				recordToolCall(tool, outcomeRejected, time.Since(start))
				log.Rejection("input rejected", err)
			} else {
				recordToolCall(tool, outcomeError, time.Since(start))
				log.Error("tool failed", "error", err)
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		recordToolCall(tool, outcomeOK, time.Since(start))
		log.Debug("tool completed", "duration", time.Since(start))
		return marshalToolResult(result), nil
	}
}
