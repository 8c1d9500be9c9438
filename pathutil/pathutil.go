// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package pathutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrToolNotFound is returned by LocateTool when a tool is neither in PATH nor
// in a known installation directory.
var ErrToolNotFound = errors.New("tool not found")

// FindToolInPath searches for a tool executable in the system PATH.
// On Windows, PATHEXT is honoured so npx resolves to npx.cmd.
// Returns the full path to the executable if found, empty string otherwise.
func FindToolInPath(toolName string) string {
	path, err := exec.LookPath(toolName)
	if err != nil {
		return ""
	}
	return path
}

// SearchToolInSystemPath searches the directories Node.js toolchains install
// into. MCP clients launched from a desktop often start servers with a
// minimal PATH that misses them.
// Returns the full path to the executable if found, empty string otherwise.
func SearchToolInSystemPath(toolName string) string {
	for _, dir := range searchDirs() {
		if dir == "" {
			continue
		}
		for _, name := range executableNames(toolName) {
			fullPath := filepath.Join(dir, name)
			if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
				return fullPath
			}
		}
	}
	return ""
}

// LocateTool returns the path of toolName from PATH or, failing that, from
// the known installation directories. The error wraps ErrToolNotFound and
// carries an install suggestion.
func LocateTool(toolName string) (string, error) {
	if path := FindToolInPath(toolName); path != "" {
		return path, nil
	}
	if path := SearchToolInSystemPath(toolName); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s is not in PATH. %s", ErrToolNotFound, toolName, GetInstallSuggestion(toolName))
}

// searchDirs is replaced in tests.
var searchDirs = defaultSearchDirs

func defaultSearchDirs() []string {
	homeDir, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "nodejs"),
			filepath.Join(os.Getenv("APPDATA"), "npm"),
			filepath.Join(os.Getenv("LOCALAPPDATA"), "pnpm"),
			filepath.Join(homeDir, ".bun", "bin"),
			filepath.Join(homeDir, "AppData", "Local", "Volta", "bin"),
		}
	}
	return []string{
		"/usr/local/bin",
		"/opt/homebrew/bin",
		"/usr/bin",
		filepath.Join(homeDir, ".volta", "bin"),
		filepath.Join(homeDir, ".bun", "bin"),
		filepath.Join(homeDir, ".local", "share", "pnpm"),
		filepath.Join(homeDir, "Library", "pnpm"),
		filepath.Join(homeDir, ".local", "bin"),
	}
}

func executableNames(toolName string) []string {
	if runtime.GOOS == "windows" && filepath.Ext(toolName) == "" {
		return []string{toolName + ".cmd", toolName + ".exe"}
	}
	return []string{toolName}
}

// GetInstallSuggestion returns a suggestion for how to install a missing tool.
func GetInstallSuggestion(toolName string) string {
	suggestions := map[string]string{
		"node": "Install Node.js from https://nodejs.org/",
		"npm":  "Install Node.js from https://nodejs.org/",
		"npx":  "Install Node.js from https://nodejs.org/ (npx ships with npm)",
		"pnpm": "Install from https://pnpm.io/installation",
		"yarn": "Install from https://yarnpkg.com/getting-started/install",
		"bun":  "Install from https://bun.sh/docs/installation",
	}

	if suggestion, ok := suggestions[toolName]; ok {
		return suggestion
	}
	return fmt.Sprintf("Please install %s manually", toolName)
}
