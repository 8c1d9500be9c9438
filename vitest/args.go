// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vitest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Fitzpa/vitest-mcp/security"
)

// launchers maps a package runner to the argv prefix that executes vitest.
var launchers = map[string][]string{
	"npx":  {"npx", "--no-install", "vitest"},
	"pnpm": {"pnpm", "exec", "vitest"},
	"yarn": {"yarn", "vitest"},
	"bun":  {"bun", "x", "vitest"},
}

// Request describes a single vitest invocation.
type Request struct {
	// Root is the trusted project directory.
	Root string
	// Target is a test file or directory relative to Root; empty runs everything.
	Target string
	// Project selects a vitest workspace project.
	Project string
	// Coverage enables the json-summary coverage reporter.
	Coverage bool
	// Exclude lists coverage exclusion globs.
	Exclude []string
}

// invocation is a validated request ready to execute.
type invocation struct {
	root        string
	name        string
	args        []string
	reportPath  string
	coverageDir string
}

// buildInvocation validates req and assembles the argv for runner.
// reportPath and coverageDir must already be secure paths inside req.Root.
func buildInvocation(runner string, req Request, reportPath, coverageDir string) (*invocation, error) {
	launcher, ok := launchers[runner]
	if !ok {
		return nil, fmt.Errorf("unsupported package runner %q", runner)
	}
	if err := security.ValidatePathSecurity(req.Root); err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	root, err := filepath.Abs(req.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	args := append([]string{}, launcher[1:]...)
	args = append(args, "run")

	if req.Target != "" {
		target, err := ValidateTarget(root, req.Target)
		if err != nil {
			return nil, err
		}
		if target != "." {
			args = append(args, target)
		}
	}

	if req.Project != "" {
		if err := security.ValidateCommandArgument(req.Project, "project"); err != nil {
			return nil, err
		}
		args = append(args, "--project="+req.Project)
	}

	args = append(args, "--reporter=json", "--outputFile="+reportPath)

	if req.Coverage {
		if err := security.ValidateGlobPatterns(req.Exclude); err != nil {
			return nil, err
		}
		args = append(args,
			"--coverage.enabled=true",
			"--coverage.reporter=json-summary",
			"--coverage.reportsDirectory="+coverageDir,
		)
		for _, pattern := range req.Exclude {
			args = append(args, "--coverage.exclude="+pattern)
		}
	}

	return &invocation{
		root:        root,
		name:        launcher[0],
		args:        args,
		reportPath:  reportPath,
		coverageDir: coverageDir,
	}, nil
}

// ValidateTarget confines target to root and returns it relative to root in
// forward-slash form, the way vitest expects filters. A relative form that
// begins with "-" is rejected because vitest would parse it as an option.
func ValidateTarget(root, target string) (string, error) {
	resolved, err := security.SecurePathResolve(root, target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return "", fmt.Errorf("failed to relativize target: %w", err)
	}
	rel = filepath.ToSlash(rel)

	if strings.HasPrefix(rel, "-") {
		return "", &security.Error{
			Kind:   security.KindDangerousPattern,
			Value:  target,
			Param:  "target",
			Reason: "target must not begin with '-'",
		}
	}
	if filepath.Ext(rel) != "" {
		if err := security.ValidateTestFilePath(rel); err != nil {
			return "", err
		}
	}
	if err := security.ValidateCommandArgument(rel, "target"); err != nil {
		return "", err
	}
	return rel, nil
}
