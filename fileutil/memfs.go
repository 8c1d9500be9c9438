// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package fileutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemFS is an in-memory FileSystem for tests.
// Parent directories are created implicitly by WriteFile.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemFS returns an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile stores content at name, creating parent directories.
func (m *MemFS) AddFile(name, content string) *MemFS {
	_ = m.WriteFile(name, []byte(content), FilePermission)
	return m
}

// Stat implements FileSystem.
func (m *MemFS) Stat(name string) (fs.FileInfo, error) {
	name = filepath.Clean(name)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statLocked(name)
}

func (m *MemFS) statLocked(name string) (fs.FileInfo, error) {
	if data, ok := m.files[name]; ok {
		return memInfo{name: filepath.Base(name), size: int64(len(data))}, nil
	}
	if m.dirs[name] {
		return memInfo{name: filepath.Base(name), dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// EvalSymlinks implements FileSystem. MemFS has no links, so an existing
// path resolves to itself.
func (m *MemFS) EvalSymlinks(path string) (string, error) {
	path = filepath.Clean(path)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, err := m.statLocked(path); err != nil {
		return "", &fs.PathError{Op: "lstat", Path: path, Err: fs.ErrNotExist}
	}
	return path, nil
}

// ReadFile implements FileSystem.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	name = filepath.Clean(name)

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[name]
	if !ok {
		if m.dirs[name] {
			return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// WriteFile implements FileSystem.
func (m *MemFS) WriteFile(name string, data []byte, _ fs.FileMode) error {
	name = filepath.Clean(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dirs[name] {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid}
	}
	m.mkdirAllLocked(filepath.Dir(name))
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// Remove implements FileSystem.
func (m *MemFS) Remove(name string) error {
	name = filepath.Clean(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[name]; ok {
		delete(m.files, name)
		return nil
	}
	if m.dirs[name] {
		if len(m.childrenLocked(name)) > 0 {
			return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrExist}
		}
		delete(m.dirs, name)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

// RemoveAll implements FileSystem. A missing path is not an error.
func (m *MemFS) RemoveAll(path string) error {
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)

	m.mu.Lock()
	defer m.mu.Unlock()

	for name := range m.files {
		if name == path || strings.HasPrefix(name, prefix) {
			delete(m.files, name)
		}
	}
	for name := range m.dirs {
		if name == path || strings.HasPrefix(name, prefix) {
			delete(m.dirs, name)
		}
	}
	return nil
}

// MkdirAll implements FileSystem.
func (m *MemFS) MkdirAll(path string, _ fs.FileMode) error {
	path = filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; ok {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}
	m.mkdirAllLocked(path)
	return nil
}

func (m *MemFS) mkdirAllLocked(path string) {
	for {
		m.dirs[path] = true
		parent := filepath.Dir(path)
		if parent == path {
			return
		}
		path = parent
	}
}

// childrenLocked returns the sorted direct children of dir.
func (m *MemFS) childrenLocked(dir string) []string {
	seen := make(map[string]bool)
	add := func(name string) {
		if name != dir && filepath.Dir(name) == dir {
			seen[name] = true
		}
	}
	for name := range m.files {
		add(name)
	}
	for name := range m.dirs {
		add(name)
	}

	children := make([]string, 0, len(seen))
	for name := range seen {
		children = append(children, name)
	}
	sort.Strings(children)
	return children
}

// WalkDir implements FileSystem with the lexical ordering and fs.SkipDir
// semantics of filepath.WalkDir.
func (m *MemFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	root = filepath.Clean(root)

	m.mu.RLock()
	info, err := m.statLocked(root)
	m.mu.RUnlock()
	if err != nil {
		return fn(root, nil, err)
	}

	err = m.walk(root, fs.FileInfoToDirEntry(info), fn)
	if err == fs.SkipDir || err == fs.SkipAll {
		return nil
	}
	return err
}

func (m *MemFS) walk(path string, d fs.DirEntry, fn fs.WalkDirFunc) error {
	if err := fn(path, d, nil); err != nil || !d.IsDir() {
		if err == fs.SkipDir && d.IsDir() {
			return nil
		}
		return err
	}

	m.mu.RLock()
	children := m.childrenLocked(path)
	m.mu.RUnlock()

	for _, child := range children {
		m.mu.RLock()
		info, err := m.statLocked(child)
		m.mu.RUnlock()
		if err != nil {
			continue
		}
		if err := m.walk(child, fs.FileInfoToDirEntry(info), fn); err != nil {
			if err == fs.SkipDir {
				return nil
			}
			return err
		}
	}
	return nil
}

type memInfo struct {
	name string
	size int64
	dir  bool
}

func (i memInfo) Name() string { return i.name }
func (i memInfo) Size() int64  { return i.size }
func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | DirPermission
	}
	return FilePermission
}
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }
