// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// withSearchDirs points SearchToolInSystemPath at dirs for one test.
func withSearchDirs(t *testing.T, dirs ...string) {
	t.Helper()
	orig := searchDirs
	searchDirs = func() []string { return dirs }
	t.Cleanup(func() { searchDirs = orig })
}

// writeExecutable creates an executable shim named like the platform expects.
func writeExecutable(t *testing.T, dir, tool string) string {
	t.Helper()
	name := executableNames(tool)[0]
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindToolInPath(t *testing.T) {
	dir := t.TempDir()
	want := writeExecutable(t, dir, "fakepnpm")
	t.Setenv("PATH", dir)

	if got := FindToolInPath("fakepnpm"); got != want {
		t.Errorf("FindToolInPath() = %q, want %q", got, want)
	}
	if got := FindToolInPath("nonexistent-tool-xyz-12345"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestSearchToolInSystemPath(t *testing.T) {
	dir := t.TempDir()
	want := writeExecutable(t, dir, "fakebun")
	if err := os.Mkdir(filepath.Join(dir, executableNames("fakedir")[0]), 0o750); err != nil {
		t.Fatal(err)
	}
	withSearchDirs(t, "", filepath.Join(dir, "missing"), dir)

	if got := SearchToolInSystemPath("fakebun"); got != want {
		t.Errorf("SearchToolInSystemPath() = %q, want %q", got, want)
	}
	if got := SearchToolInSystemPath("fakedir"); got != "" {
		t.Errorf("directories must not match, got %q", got)
	}
}

func TestLocateTool(t *testing.T) {
	pathDir := t.TempDir()
	systemDir := t.TempDir()
	inPath := writeExecutable(t, pathDir, "fakeyarn")
	inSystem := writeExecutable(t, systemDir, "fakenpx")
	writeExecutable(t, systemDir, "fakeyarn")
	t.Setenv("PATH", pathDir)
	withSearchDirs(t, systemDir)

	tests := []struct {
		name    string
		tool    string
		want    string
		wantErr bool
	}{
		{"PATH wins", "fakeyarn", inPath, false},
		{"falls back to install dirs", "fakenpx", inSystem, false},
		{"missing", "fakeyarn-missing", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocateTool(tt.tool)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LocateTool() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LocateTool() = %q, want %q", got, tt.want)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrToolNotFound) {
					t.Errorf("expected ErrToolNotFound, got %v", err)
				}
				if !strings.Contains(err.Error(), "Please install fakeyarn-missing manually") {
					t.Errorf("expected install hint in %q", err)
				}
			}
		})
	}
}

func TestGetInstallSuggestion(t *testing.T) {
	tests := []struct {
		toolName string
		contains string
	}{
		{"npx", "nodejs.org"},
		{"pnpm", "pnpm.io"},
		{"yarn", "yarnpkg.com"},
		{"bun", "bun.sh"},
		{"deno", "Please install deno manually"},
	}

	for _, tt := range tests {
		t.Run(tt.toolName, func(t *testing.T) {
			if got := GetInstallSuggestion(tt.toolName); !strings.Contains(got, tt.contains) {
				t.Errorf("GetInstallSuggestion(%q) = %q, want it to contain %q", tt.toolName, got, tt.contains)
			}
		})
	}
}

func TestExecutableNames(t *testing.T) {
	got := executableNames("pnpm")
	if runtime.GOOS == "windows" {
		if len(got) != 2 || got[0] != "pnpm.cmd" || got[1] != "pnpm.exe" {
			t.Errorf("unexpected Windows names: %v", got)
		}
		return
	}
	if len(got) != 1 || got[0] != "pnpm" {
		t.Errorf("unexpected names: %v", got)
	}
}
