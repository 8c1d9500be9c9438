// Package projecttype detects the Node.js project a vitest MCP session works in.
package projecttype

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Fitzpa/vitest-mcp/fileutil"
	"github.com/Fitzpa/vitest-mcp/security"
)

// ErrNotNodeProject is returned when the directory has no package.json.
var ErrNotNodeProject = errors.New("not a Node.js project: package.json not found")

// NodeProject represents a detected Node.js project.
type NodeProject struct {
	Dir            string
	PackageManager string // "npm", "pnpm", "yarn", or "bun"
	HasVitest      bool   // vitest is a declared dependency or a config file exists
	ConfigFile     string // vitest or vite config file name, if any
}

// Runner returns the command that executes package binaries for this project.
func (p NodeProject) Runner() string {
	switch p.PackageManager {
	case "pnpm", "yarn", "bun":
		return p.PackageManager
	default:
		return "npx"
	}
}

// lockfiles maps lockfile names to package managers, in detection order.
var lockfiles = []struct {
	name    string
	manager string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lockb", "bun"},
	{"bun.lock", "bun"},
	{"package-lock.json", "npm"},
}

// configFiles are the vitest config names in the order vitest itself looks them up.
var configFiles = []string{
	"vitest.config.ts", "vitest.config.js", "vitest.config.mjs", "vitest.config.cjs",
	"vitest.workspace.ts", "vitest.workspace.js", "vitest.workspace.json",
	"vite.config.ts", "vite.config.js", "vite.config.mjs", "vite.config.cjs",
}

type packageJSON struct {
	PackageManager  string            `json:"packageManager"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DetectNodeProject inspects root and describes the Node.js project in it.
// root must pass security.ValidatePathSecurity.
func DetectNodeProject(fsys fileutil.FileSystem, root string) (*NodeProject, error) {
	if err := security.ValidatePathSecurity(root); err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", dir)
	}
	if !fileutil.FileExists(fsys, dir, "package.json") {
		return nil, ErrNotNodeProject
	}

	var pkg packageJSON
	if err := fileutil.ReadJSON(fsys, filepath.Join(dir, "package.json"), &pkg); err != nil {
		return nil, err
	}

	project := &NodeProject{
		Dir:            dir,
		PackageManager: detectPackageManager(fsys, dir, pkg.PackageManager),
	}

	for _, name := range configFiles {
		if security.ValidateConfigFilePath(name) != nil {
			continue
		}
		if fileutil.FileExists(fsys, dir, name) {
			project.ConfigFile = name
			break
		}
	}

	_, dep := pkg.Dependencies["vitest"]
	_, devDep := pkg.DevDependencies["vitest"]
	project.HasVitest = dep || devDep || strings.HasPrefix(project.ConfigFile, "vitest.")

	return project, nil
}

// detectPackageManager prefers the corepack "packageManager" field, then lockfiles.
func detectPackageManager(fsys fileutil.FileSystem, dir, declared string) string {
	if name, _, _ := strings.Cut(declared, "@"); name != "" {
		switch name {
		case "npm", "pnpm", "yarn", "bun":
			return name
		}
	}
	for _, lf := range lockfiles {
		if fileutil.FileExists(fsys, dir, lf.name) {
			return lf.manager
		}
	}
	return "npm"
}
