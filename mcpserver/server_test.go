package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fitzpa/vitest-mcp/config"
	"github.com/Fitzpa/vitest-mcp/fileutil"
	"github.com/Fitzpa/vitest-mcp/testutil"
	"github.com/Fitzpa/vitest-mcp/vitest"
)

const projectDir = "/work/app"

type fakeRunner struct {
	mu      sync.Mutex
	runner  string
	runs    []vitest.Request
	covers  []vitest.Request
	err     error
	result  *vitest.TestRunResult
	summary *vitest.CoverageSummary
}

func (f *fakeRunner) Run(_ context.Context, req vitest.Request) (*vitest.TestRunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRunner) Coverage(_ context.Context, req vitest.Request) (*vitest.CoverageReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.covers = append(f.covers, req)
	if f.err != nil {
		return nil, f.err
	}
	return &vitest.CoverageReport{Tests: f.result, Coverage: f.summary}, nil
}

func sampleProject() *fileutil.MemFS {
	return fileutil.NewMemFS().
		AddFile(projectDir+"/package.json", `{"devDependencies":{"vitest":"^2.0.0"}}`).
		AddFile(projectDir+"/pnpm-lock.yaml", "").
		AddFile(projectDir+"/vitest.config.ts", "export default {}").
		AddFile(projectDir+"/src/math.ts", "export const add = (a, b) => a + b").
		AddFile(projectDir+"/src/math.test.ts", "import { add } from './math'\n<script>alert(1)</script>\ntest('adds', () => {})").
		AddFile(projectDir+"/src/ui/button.spec.tsx", "test('renders', () => {})").
		AddFile(projectDir+"/src/.cache/old.test.ts", "").
		AddFile(projectDir+"/node_modules/lib/index.test.js", "").
		AddFile(projectDir+"/dist/bundle.test.js", "").
		AddFile(projectDir+"/README.md", "")
}

type harness struct {
	srv    *Server
	runner *fakeRunner
	fs     *fileutil.MemFS
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit = 1000
	cfg.RateBurst = 1000
	if mutate != nil {
		mutate(cfg)
	}

	h := &harness{
		runner: &fakeRunner{result: &vitest.TestRunResult{Success: true, TotalTests: 2, PassedTests: 2}},
		fs:     sampleProject(),
	}
	srv, err := New(cfg, "test",
		WithFileSystem(h.fs),
		WithRunnerFactory(func(packageRunner string) (TestRunner, error) {
			h.runner.runner = packageRunner
			return h.runner, nil
		}),
	)
	require.NoError(t, err)
	h.srv = srv
	return h
}

func (h *harness) call(t *testing.T, tool string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := h.srv.CallTool(context.Background(), tool, args)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	return contentText(t, result.Content[0]), result.IsError
}

func (h *harness) setRoot(t *testing.T) {
	t.Helper()
	_, isErr := h.call(t, "set_project_root", map[string]any{"path": projectDir})
	require.False(t, isErr)
}

func contentText(t *testing.T, c mcp.Content) string {
	t.Helper()
	switch tc := c.(type) {
	case mcp.TextContent:
		return tc.Text
	case *mcp.TextContent:
		return tc.Text
	}
	t.Fatalf("unexpected content type %T", c)
	return ""
}

func TestSetProjectRoot(t *testing.T) {
	h := newHarness(t, nil)

	text, isErr := h.call(t, "set_project_root", map[string]any{"path": projectDir})
	require.False(t, isErr, text)

	var info projectInfo
	require.NoError(t, json.Unmarshal([]byte(text), &info))
	assert.Equal(t, projectDir, info.ProjectRoot)
	assert.Equal(t, "pnpm", info.PackageManager)
	assert.Equal(t, "pnpm", info.Runner)
	assert.Equal(t, "vitest.config.ts", info.ConfigFile)
	assert.True(t, info.HasVitest)
	assert.Empty(t, info.Warning)
	assert.Equal(t, projectDir, h.srv.Project().Dir)
}

func TestSetProjectRoot_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{name: "missing", args: map[string]any{}, wantMsg: "path must be a non-empty string"},
		{name: "non-string", args: map[string]any{"path": 42}, wantMsg: "path must be a non-empty string"},
		{name: "traversal", args: map[string]any{"path": "/work/app/../../etc"}, wantMsg: "dangerous path pattern"},
		{name: "system dir", args: map[string]any{"path": "/etc/nginx"}, wantMsg: "Access to system directory forbidden: /etc"},
		{name: "not node", args: map[string]any{"path": "/work/app/src"}, wantMsg: "package.json not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			text, isErr := h.call(t, "set_project_root", tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.wantMsg)
			assert.Nil(t, h.srv.Project())
		})
	}
}

func TestSetProjectRoot_ConfiguredRunnerWins(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.PackageRunner = "npx" })
	text, isErr := h.call(t, "set_project_root", map[string]any{"path": projectDir})
	require.False(t, isErr)
	assert.Contains(t, text, `"runner": "npx"`)

	_, isErr = h.call(t, "run_tests", map[string]any{"target": "src"})
	require.False(t, isErr)
	assert.Equal(t, "npx", h.runner.runner)
}

func TestNew_InitialProjectRoot(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.ProjectRoot = projectDir })
	require.NotNil(t, h.srv.Project())
	assert.Equal(t, "pnpm", h.srv.Project().PackageManager)

	_, err := New(&config.Config{}, "test")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestToolsRequireProjectRoot(t *testing.T) {
	h := newHarness(t, nil)
	for _, tool := range []string{"list_tests", "run_tests", "analyze_coverage", "read_test_file"} {
		t.Run(tool, func(t *testing.T) {
			text, isErr := h.call(t, tool, map[string]any{"target": "src", "path": "src/math.test.ts"})
			assert.True(t, isErr)
			assert.Contains(t, text, ErrNoProjectRoot.Error())
		})
	}
}

func TestListTests(t *testing.T) {
	h := newHarness(t, nil)
	h.setRoot(t)

	text, isErr := h.call(t, "list_tests", nil)
	require.False(t, isErr, text)
	var list testList
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	assert.Equal(t, []string{"src/math.test.ts", "src/ui/button.spec.tsx"}, list.Files)
	assert.Equal(t, 2, list.Count)

	text, isErr = h.call(t, "list_tests", map[string]any{"path": "src/ui"})
	require.False(t, isErr, text)
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	assert.Equal(t, []string{"src/ui/button.spec.tsx"}, list.Files)

	text, isErr = h.call(t, "list_tests", map[string]any{"path": "../other"})
	assert.True(t, isErr)
	assert.Contains(t, text, "dangerous path pattern")

	text, isErr = h.call(t, "list_tests", map[string]any{"path": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, "failed to list tests")
}

func TestRunTests(t *testing.T) {
	h := newHarness(t, nil)
	h.setRoot(t)

	text, isErr := h.call(t, "run_tests", map[string]any{"target": "src/math.test.ts", "project": "unit"})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"success": true`)

	require.Len(t, h.runner.runs, 1)
	assert.Equal(t, vitest.Request{Root: projectDir, Target: "src/math.test.ts", Project: "unit"}, h.runner.runs[0])
	assert.Equal(t, "pnpm", h.runner.runner)
}

func TestRunTests_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		wantMsg  string
		wantKind string
	}{
		{name: "missing target", args: map[string]any{}, wantMsg: "target must be a non-empty string", wantKind: "InvalidInput"},
		{name: "array target", args: map[string]any{"target": []any{"a"}}, wantMsg: "target must be a non-empty string", wantKind: "InvalidInput"},
		{name: "command injection", args: map[string]any{"target": "src; rm -rf /"}, wantMsg: "target contains dangerous characters", wantKind: "DangerousPattern"},
		{name: "traversal", args: map[string]any{"target": "../../../etc/passwd"}, wantMsg: "target contains dangerous characters", wantKind: "DangerousPattern"},
		{name: "outside root", args: map[string]any{"target": "/work/app2/a.test.ts"}, wantMsg: "outside allowed directory", wantKind: "BoundaryEscape"},
		{name: "wrong extension", args: map[string]any{"target": "src/data.json"}, wantMsg: "File extension '.json' not allowed", wantKind: "ExtensionNotAllowed"},
		{name: "project injection", args: map[string]any{"target": "src", "project": "$(id)"}, wantMsg: "project contains dangerous characters", wantKind: "DangerousPattern"},
		{name: "project type", args: map[string]any{"target": "src", "project": true}, wantMsg: "project must be a non-empty string", wantKind: "InvalidInput"},
		{name: "long target", args: map[string]any{"target": strings.Repeat("a", 300)}, wantMsg: "target too long (maximum 256 characters)", wantKind: "TooLong"},
		{name: "option as target", args: map[string]any{"target": "--outputFile=/tmp/pwned"}, wantMsg: "target must not begin with '-'", wantKind: "DangerousPattern"},
		{name: "config option as target", args: map[string]any{"target": "--config=evil.js"}, wantMsg: "target must not begin with '-'", wantKind: "DangerousPattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.setRoot(t)
			counter := validationRejections.WithLabelValues("run_tests", tt.wantKind)
			before := promtest.ToFloat64(counter)

			text, isErr := h.call(t, "run_tests", tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.wantMsg)
			assert.Empty(t, h.runner.runs, "runner must not be reached")
			assert.Equal(t, before+1, promtest.ToFloat64(counter))
		})
	}
}

func TestRunTests_RunnerError(t *testing.T) {
	h := newHarness(t, nil)
	h.setRoot(t)
	h.runner.err = vitest.ErrRunnerUnavailable

	counter := toolCallsTotal.WithLabelValues("run_tests", outcomeError)
	before := promtest.ToFloat64(counter)

	text, isErr := h.call(t, "run_tests", map[string]any{"target": "src"})
	assert.True(t, isErr)
	assert.Contains(t, text, "vitest runner unavailable")
	assert.Equal(t, before+1, promtest.ToFloat64(counter))
}

func TestAnalyzeCoverage(t *testing.T) {
	h := newHarness(t, nil)
	h.setRoot(t)
	h.runner.summary = &vitest.CoverageSummary{Total: vitest.Metrics{Lines: vitest.Counter{Total: 10, Covered: 9, Pct: 90}}}

	text, isErr := h.call(t, "analyze_coverage", map[string]any{
		"target":  "src",
		"exclude": []any{"dist/**", "**/*.d.ts"},
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"pct": 90`)

	require.Len(t, h.runner.covers, 1)
	assert.Equal(t, []string{"dist/**", "**/*.d.ts"}, h.runner.covers[0].Exclude)
}

func TestAnalyzeCoverage_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		exclude any
		wantMsg string
	}{
		{name: "not an array", exclude: "dist/**", wantMsg: "Exclude patterns must be an array"},
		{name: "traversal", exclude: []any{"../../etc/*"}, wantMsg: "Path traversal not allowed in pattern"},
		{name: "shell", exclude: []any{"$(id)"}, wantMsg: "Invalid glob pattern"},
		{name: "non-string element", exclude: []any{1}, wantMsg: "Each exclude pattern must be a non-empty string"},
		{name: "too many", exclude: make([]any, 51), wantMsg: "Too many exclude patterns (maximum 50)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.setRoot(t)
			text, isErr := h.call(t, "analyze_coverage", map[string]any{"target": "src", "exclude": tt.exclude})
			assert.True(t, isErr)
			assert.Contains(t, text, tt.wantMsg)
			assert.Empty(t, h.runner.covers)
		})
	}
}

func TestReadTestFile(t *testing.T) {
	h := newHarness(t, nil)
	h.setRoot(t)

	text, isErr := h.call(t, "read_test_file", map[string]any{"path": "src/math.test.ts"})
	require.False(t, isErr, text)

	var file testFile
	require.NoError(t, json.Unmarshal([]byte(text), &file))
	assert.Equal(t, "src/math.test.ts", file.Path)
	assert.Contains(t, file.Content, "import { add }")
	assert.NotContains(t, file.Content, "<script>")
}

func TestReadTestFile_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		path    any
		wantMsg string
	}{
		{name: "source file is allowed extension but missing", path: "src/missing.test.ts", wantMsg: "failed to read test file"},
		{name: "markdown", path: "README.md", wantMsg: "File extension '.md' not allowed"},
		{name: "traversal", path: "../../etc/passwd", wantMsg: "dangerous path pattern"},
		{name: "absolute escape", path: "/home/user/.ssh/id_rsa", wantMsg: "outside allowed directory"},
		{name: "nul byte", path: "src/a\x00.test.ts", wantMsg: "dangerous path pattern"},
		{name: "non-string", path: nil, wantMsg: "path must be a non-empty string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.setRoot(t)
			text, isErr := h.call(t, "read_test_file", map[string]any{"path": tt.path})
			assert.True(t, isErr)
			assert.Contains(t, text, tt.wantMsg)
		})
	}
}

func TestSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on Windows")
	}

	base := testutil.TempDir(t)
	root := filepath.Join(base, "proj")
	testutil.WriteFiles(t, root, map[string]string{
		"package.json":   `{"devDependencies":{"vitest":"^2.0.0"}}`,
		"src/ok.test.ts": "test('ok', () => {})",
	})
	testutil.WriteFiles(t, base, map[string]string{"secret.txt": "outside the project"})
	require.NoError(t, os.Symlink(filepath.Join("..", "secret.txt"), filepath.Join(root, "leak.test.ts")))
	require.NoError(t, os.Symlink(base, filepath.Join(root, "up")))

	cfg := config.Default()
	cfg.RateLimit = 1000
	cfg.RateBurst = 1000
	runner := &fakeRunner{result: &vitest.TestRunResult{Success: true}}
	srv, err := New(cfg, "test", WithRunnerFactory(func(string) (TestRunner, error) {
		return runner, nil
	}))
	require.NoError(t, err)
	h := &harness{srv: srv, runner: runner}

	_, isErr := h.call(t, "set_project_root", map[string]any{"path": root})
	require.False(t, isErr)

	text, isErr := h.call(t, "read_test_file", map[string]any{"path": "src/ok.test.ts"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "test('ok'")

	text, isErr = h.call(t, "read_test_file", map[string]any{"path": "leak.test.ts"})
	assert.True(t, isErr)
	assert.Contains(t, text, "outside allowed directory")
	assert.NotContains(t, text, "outside the project")

	text, isErr = h.call(t, "run_tests", map[string]any{"target": "up"})
	assert.True(t, isErr)
	assert.Contains(t, text, "outside allowed directory")
	assert.Empty(t, runner.runs)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.RateLimit = 0.001
		c.RateBurst = 2
	})

	_, isErr := h.call(t, "list_tests", nil)
	assert.True(t, isErr, "no project yet, but the call is admitted")
	_, _ = h.call(t, "list_tests", nil)

	text, isErr := h.call(t, "list_tests", nil)
	assert.True(t, isErr)
	assert.Contains(t, text, `rate limit exceeded for tool "list_tests"`)
}

func TestCallTool_Unknown(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.srv.CallTool(context.Background(), "delete_everything", nil)
	assert.Error(t, err)
}

func TestArgsHelpers(t *testing.T) {
	req := mcp.CallToolRequest{}
	assert.Empty(t, argsMap(req))
	req.Params.Arguments = "not a map"
	assert.Empty(t, argsMap(req))
	req.Params.Arguments = map[string]any{"a": "b"}
	assert.Equal(t, map[string]any{"a": "b"}, argsMap(req))

	s, err := optionalString(map[string]any{"p": nil}, "p")
	assert.NoError(t, err)
	assert.Empty(t, s)
	_, err = optionalString(map[string]any{"p": 3}, "p")
	assert.Error(t, err)

	assert.Equal(t, []string{"a", "b"}, stringSlice([]any{"a", "b"}))
	assert.Equal(t, []string{"x"}, stringSlice([]string{"x"}))
	assert.Nil(t, stringSlice(7))
}

func TestMarshalToolResult_Failure(t *testing.T) {
	result := marshalToolResult(map[string]any{"ch": make(chan int)})
	assert.True(t, result.IsError)
}

func TestRunnerError_IsNotRejection(t *testing.T) {
	h := newHarness(t, nil)
	h.setRoot(t)
	h.runner.err = errors.New("boom")

	text, isErr := h.call(t, "analyze_coverage", map[string]any{"target": "src"})
	assert.True(t, isErr)
	assert.Equal(t, "boom", text)
}
