package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Fitzpa/vitest-mcp/fileutil"
	"github.com/Fitzpa/vitest-mcp/logutil"
	"github.com/Fitzpa/vitest-mcp/projecttype"
	"github.com/Fitzpa/vitest-mcp/security"
	"github.com/Fitzpa/vitest-mcp/vitest"
)

// maxListedTests caps list_tests output.
const maxListedTests = 2000

// skippedDirs are never descended into when listing tests.
var skippedDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("set_project_root",
		mcp.WithDescription("Set the Node.js project directory that subsequent tools operate in. Must contain package.json."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the project root")),
	), s.toolSetProjectRoot)

	s.addTool(mcp.NewTool("list_tests",
		mcp.WithDescription("List vitest test files in the project, optionally under a subdirectory."),
		mcp.WithString("path", mcp.Description("Directory relative to the project root")),
	), s.toolListTests)

	s.addTool(mcp.NewTool("run_tests",
		mcp.WithDescription("Run vitest for a test file or directory and return a structured summary."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Test file or directory relative to the project root")),
		mcp.WithString("project", mcp.Description("Vitest workspace project name")),
	), s.toolRunTests)

	s.addTool(mcp.NewTool("analyze_coverage",
		mcp.WithDescription("Run vitest with coverage and return per-file line, statement, function and branch coverage."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Test file or directory relative to the project root")),
		mcp.WithArray("exclude",
			mcp.Description("Glob patterns to exclude from coverage"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.toolAnalyzeCoverage)

	s.addTool(mcp.NewTool("read_test_file",
		mcp.WithDescription("Read a test file from the project. Content is sanitized before it is returned."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Test file path relative to the project root")),
	), s.toolReadTestFile)
}

type projectInfo struct {
	ProjectRoot    string `json:"projectRoot"`
	PackageManager string `json:"packageManager"`
	Runner         string `json:"runner"`
	ConfigFile     string `json:"configFile,omitempty"`
	HasVitest      bool   `json:"hasVitest"`
	Warning        string `json:"warning,omitempty"`
}

func (s *Server) toolSetProjectRoot(_ context.Context, args map[string]any, _ *logutil.ComponentLogger) (any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}

	project, err := s.setProjectRoot(path)
	if err != nil {
		return nil, err
	}

	info := projectInfo{
		ProjectRoot:    project.Dir,
		PackageManager: project.PackageManager,
		Runner:         project.Runner(),
		ConfigFile:     project.ConfigFile,
		HasVitest:      project.HasVitest,
	}
	if s.cfg.PackageRunner != "" {
		info.Runner = s.cfg.PackageRunner
	}
	if !project.HasVitest {
		info.Warning = "vitest is not listed in package.json and no vitest config was found"
	}
	return info, nil
}

type testList struct {
	Root      string   `json:"root"`
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated,omitempty"`
	Files     []string `json:"files"`
}

func (s *Server) toolListTests(_ context.Context, args map[string]any, _ *logutil.ComponentLogger) (any, error) {
	project, err := s.currentProject()
	if err != nil {
		return nil, err
	}
	sub, err := optionalString(args, "path")
	if err != nil {
		return nil, err
	}

	dir := project.Dir
	if sub != "" {
		if dir, err = security.SecurePathResolve(project.Dir, sub); err != nil {
			return nil, err
		}
	}

	list := testList{Root: project.Dir, Files: []string{}}
	errLimit := errors.New("limit reached")
	err = s.fs.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (skippedDirs[name] || strings.HasPrefix(name, ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if !security.IsTestFileName(name) || security.ValidateTestFilePath(name) != nil {
			return nil
		}
		if len(list.Files) == maxListedTests {
			list.Truncated = true
			return errLimit
		}
		rel, err := filepath.Rel(project.Dir, path)
		if err != nil {
			return err
		}
		list.Files = append(list.Files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	list.Count = len(list.Files)
	return list, nil
}

func (s *Server) toolRunTests(ctx context.Context, args map[string]any, log *logutil.ComponentLogger) (any, error) {
	req, project, err := s.testRequest(args)
	if err != nil {
		return nil, err
	}
	runner, err := s.runner(project)
	if err != nil {
		return nil, err
	}

	log.Info("running tests", "target", req.Target)
	return runner.Run(ctx, req)
}

func (s *Server) toolAnalyzeCoverage(ctx context.Context, args map[string]any, log *logutil.ComponentLogger) (any, error) {
	req, project, err := s.testRequest(args)
	if err != nil {
		return nil, err
	}
	if exclude, ok := args["exclude"]; ok && exclude != nil {
		if err := security.ValidateGlobPatternsValue(exclude); err != nil {
			return nil, err
		}
		req.Exclude = stringSlice(exclude)
	}
	runner, err := s.runner(project)
	if err != nil {
		return nil, err
	}

	log.Info("analyzing coverage", "target", req.Target, "excludes", len(req.Exclude))
	return runner.Coverage(ctx, req)
}

// testRequest validates the target and project arguments shared by
// run_tests and analyze_coverage.
func (s *Server) testRequest(args map[string]any) (vitest.Request, *projecttype.NodeProject, error) {
	project, err := s.currentProject()
	if err != nil {
		return vitest.Request{}, nil, err
	}

	if err := security.ValidateCommandArgumentValue(args["target"], "target"); err != nil {
		return vitest.Request{}, nil, err
	}
	target := args["target"].(string)
	rel, err := vitest.ValidateTarget(project.Dir, target)
	if err != nil {
		return vitest.Request{}, nil, err
	}
	if _, err := fileutil.WithinRoot(s.fs, project.Dir, filepath.Join(project.Dir, filepath.FromSlash(rel))); err != nil {
		return vitest.Request{}, nil, err
	}

	projectName, err := optionalString(args, "project")
	if err != nil {
		return vitest.Request{}, nil, err
	}
	if projectName != "" {
		if err := security.ValidateCommandArgument(projectName, "project"); err != nil {
			return vitest.Request{}, nil, err
		}
	}

	return vitest.Request{Root: project.Dir, Target: target, Project: projectName}, project, nil
}

type testFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) toolReadTestFile(_ context.Context, args map[string]any, _ *logutil.ComponentLogger) (any, error) {
	project, err := s.currentProject()
	if err != nil {
		return nil, err
	}
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}

	resolved, err := security.SecurePathResolve(project.Dir, path)
	if err != nil {
		return nil, err
	}
	if err := security.ValidateTestFilePath(resolved); err != nil {
		return nil, err
	}

	realFile, err := fileutil.WithinRoot(s.fs, project.Dir, resolved)
	if err != nil {
		return nil, err
	}
	if err := security.ValidateTestFilePath(realFile); err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(realFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read test file: %w", err)
	}
	rel, err := filepath.Rel(project.Dir, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to relativize path: %w", err)
	}

	return testFile{
		Path:    filepath.ToSlash(rel),
		Content: security.SanitizeFileContent(string(data)),
	}, nil
}
