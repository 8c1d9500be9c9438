// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package fileutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fitzpa/vitest-mcp/security"
)

// File permissions
const (
	// DirPermission is the default permission for creating directories (rwxr-x---)
	DirPermission = 0750
	// FilePermission is the default permission for creating files (rw-r--r--)
	FilePermission = 0644
)

// renameAttempts bounds the retries for the final rename of an atomic write.
const renameAttempts = 5

// FileSystem is the filesystem surface used by the server.
// Callers pass paths that have already been resolved against the project root.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Remove(name string) error
	RemoveAll(path string) error
	MkdirAll(path string, perm fs.FileMode) error
	WalkDir(root string, fn fs.WalkDirFunc) error
	EvalSymlinks(path string) (string, error)
}

// OSFileSystem implements FileSystem on the host filesystem.
// WriteFile is atomic: data lands in a temp file that is renamed into place.
type OSFileSystem struct{}

// OS is the shared host filesystem.
var OS FileSystem = OSFileSystem{}

// Stat implements FileSystem.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile implements FileSystem.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- callers pass paths from security.SecurePathResolve
	return os.ReadFile(name)
}

// WriteFile implements FileSystem.
func (OSFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return AtomicWriteFile(name, data, perm)
}

// Remove implements FileSystem.
func (OSFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// RemoveAll implements FileSystem.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// MkdirAll implements FileSystem.
func (OSFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WalkDir implements FileSystem.
func (OSFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// EvalSymlinks implements FileSystem.
func (OSFileSystem) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

// AtomicWriteFile writes raw bytes to a file atomically.
// The temp file is created next to the target so the rename never crosses
// filesystems, and it is removed on every failure path.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = tmpFile.Close() }()

	fail := func(step string, err error) error {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to %s temp file: %w", step, err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fail("close", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fail("chmod", err)
	}

	// Rename can transiently fail on Windows while scanners hold the target.
	var renameErr error
	for attempt := 0; attempt < renameAttempts; attempt++ {
		if renameErr = os.Rename(tmpPath, path); renameErr == nil {
			return nil
		}
		if attempt < renameAttempts-1 {
			time.Sleep(time.Duration(20*(attempt+1)) * time.Millisecond)
		}
	}
	return fail("rename", renameErr)
}

// AtomicWriteJSON marshals data as indented JSON and writes it atomically.
func AtomicWriteJSON(path string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return AtomicWriteFile(path, jsonData, FilePermission)
}

// ReadJSON reads JSON from a file into target.
// A missing file is not an error and leaves target unchanged.
func ReadJSON(fsys FileSystem, path string, target any) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse JSON %s: %w", filepath.Base(path), err)
	}
	return nil
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(fsys FileSystem, path string) error {
	if err := fsys.MkdirAll(path, DirPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// FileExists reports whether filename exists as a regular file in dir.
func FileExists(fsys FileSystem, dir, filename string) bool {
	info, err := fsys.Stat(filepath.Join(dir, filename))
	return err == nil && !info.IsDir()
}

// FirstExisting returns the first of filenames that exists in dir, or "".
func FirstExisting(fsys FileSystem, dir string, filenames ...string) string {
	for _, filename := range filenames {
		if FileExists(fsys, dir, filename) {
			return filename
		}
	}
	return ""
}

// ContainsText reports whether the file at rel under root contains text.
// The path is resolved with security.SecurePathResolve first; any validation
// or read failure reports false.
func ContainsText(fsys FileSystem, root, rel, text string) bool {
	resolved, err := security.SecurePathResolve(root, rel)
	if err != nil {
		return false
	}

	data, err := fsys.ReadFile(resolved)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), text)
}

// WithinRoot resolves symbolic links in path and root and verifies the real
// path is root itself or inside it. A path that does not exist yet is checked
// as written. It returns the real path, which callers should open instead of
// path.
func WithinRoot(fsys FileSystem, root, path string) (string, error) {
	realRoot, err := realPath(fsys, root)
	if err != nil {
		return "", fmt.Errorf("cannot resolve symbolic links in root: %w", err)
	}
	resolved, err := realPath(fsys, path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve symbolic links: %w", err)
	}

	if resolved != realRoot && !strings.HasPrefix(resolved, realRoot+string(filepath.Separator)) {
		return "", &security.Error{
			Kind:   security.KindBoundaryEscape,
			Value:  path,
			Reason: "Path resolves outside allowed directory",
		}
	}
	return resolved, nil
}

func realPath(fsys FileSystem, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	target, err := fsys.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		return "", err
	}
	return filepath.Clean(target), nil
}
