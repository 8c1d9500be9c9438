// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package security provides security utilities for path validation, input sanitization,
// and protection against common vulnerabilities like path traversal attacks.
package security

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ValidatePathSecurity checks that a caller-supplied path is syntactically safe.
//
// Checks run in order and the first failure wins:
//   - empty input
//   - length over MaxPathLength
//   - ".." anywhere, NUL bytes, or other control characters
//   - more than MaxPathDepth segments after normalization
//   - a POSIX or Windows system directory, matched case-insensitively
//
// A path that passes is not yet confined to any root; use SecurePathResolve for that.
func ValidatePathSecurity(p string) error {
	if p == "" {
		return newError(KindInvalidInput, p, "Invalid path: path must be a non-empty string")
	}

	if utf8.RuneCountInString(p) > MaxPathLength {
		err := newError(KindTooLong, p, fmt.Sprintf("Path too long: maximum length is %d characters", MaxPathLength))
		err.Limit = MaxPathLength
		return err
	}

	if containsDangerousPathPattern(p) {
		return newError(KindDangerousPattern, p, "Path contains dangerous path pattern")
	}

	normalized := normalizeSlashes(p)
	if depth := pathDepth(normalized); depth > MaxPathDepth {
		err := newError(KindTooDeep, p, fmt.Sprintf("Path too deep: maximum depth is %d levels", MaxPathDepth))
		err.Limit = MaxPathDepth
		return err
	}

	if dir, ok := matchSystemDirectory(normalized); ok {
		return newError(KindSystemDirectory, p, fmt.Sprintf("Access to system directory forbidden: %s", dir))
	}

	return nil
}

// SecurePathResolve resolves candidate against the trusted root and returns
// the normalized absolute path. The result is either root itself or a path
// beginning with root followed by a separator.
//
// candidate is checked with ValidatePathSecurity before it is joined, so
// traversal sequences never reach the join. An absolute candidate replaces
// root, and is then subject to the same boundary check.
func SecurePathResolve(root, candidate string) (string, error) {
	if root == "" {
		return "", newError(KindInvalidInput, root, "Invalid root: root must be a non-empty string")
	}

	if err := ValidatePathSecurity(candidate); err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", newError(KindInvalidInput, root, fmt.Sprintf("Invalid root: cannot resolve path: %v", err))
	}
	absRoot = filepath.Clean(absRoot)

	var resolved string
	if filepath.IsAbs(candidate) {
		resolved = filepath.Clean(candidate)
	} else {
		resolved = filepath.Join(absRoot, candidate)
	}

	if !withinRoot(resolved, absRoot) {
		return "", newError(KindBoundaryEscape, candidate, "Path resolves outside allowed directory")
	}

	return resolved, nil
}

// withinRoot reports whether p equals root or lies beneath it.
func withinRoot(p, root string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

func containsDangerousPathPattern(p string) bool {
	if strings.Contains(p, "..") {
		return true
	}
	for i := 0; i < len(p); i++ {
		if p[i] < 0x20 || p[i] == 0x7f {
			return true
		}
	}
	return false
}

// normalizeSlashes converts backslashes to forward slashes and cleans the result.
func normalizeSlashes(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func pathDepth(normalized string) int {
	depth := 0
	for _, segment := range strings.Split(normalized, "/") {
		if segment != "" && segment != "." {
			depth++
		}
	}
	return depth
}

// matchSystemDirectory returns the forbidden directory a normalized path falls under.
func matchSystemDirectory(normalized string) (string, bool) {
	lower := strings.ToLower(normalized)

	for _, dir := range posixSystemDirs {
		if hasDirPrefix(lower, dir) {
			return dir, true
		}
	}

	if len(lower) >= 2 && lower[1] == ':' && isASCIILetter(lower[0]) {
		rest := lower[2:]
		for _, dir := range windowsSystemDirs {
			if hasDirPrefix(rest, dir) {
				return lower[:2] + dir, true
			}
		}
	}

	for _, segment := range strings.Split(lower, "/") {
		for _, forbidden := range windowsSystemSegments {
			if segment == forbidden {
				return forbidden, true
			}
		}
	}

	return "", false
}

func hasDirPrefix(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
