// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ValidateFileExtension checks that path ends in one of the allowed extensions.
// Extensions include the leading dot and are compared case-insensitively;
// multi-part entries such as ".test.ts" match the end of the file name.
func ValidateFileExtension(p string, allowed []string) error {
	if p == "" {
		return newError(KindInvalidInput, p, "Invalid path: path must be a non-empty string")
	}

	base := strings.ToLower(baseName(p))
	ext := filepath.Ext(base)

	for _, candidate := range allowed {
		candidate = strings.ToLower(candidate)
		if candidate == "" {
			continue
		}
		if ext == candidate || (strings.Count(candidate, ".") > 1 && strings.HasSuffix(base, candidate)) {
			return nil
		}
	}

	return newError(KindExtensionNotAllowed, p,
		fmt.Sprintf("File extension '%s' not allowed. Allowed extensions: %s", ext, strings.Join(allowed, ", ")))
}

// ValidateTestFilePath checks that path names a test file or a source file.
// Source files are accepted because coverage can target them directly.
func ValidateTestFilePath(p string) error {
	return ValidateFileExtension(p, testFileExtensions)
}

// ValidateConfigFilePath checks that path names a JavaScript, TypeScript or
// JSON configuration file with a plain file name. The extension is checked first.
func ValidateConfigFilePath(p string) error {
	if err := ValidateFileExtension(p, configFileExtensions); err != nil {
		return err
	}

	if name := baseName(p); !configFileName.MatchString(name) {
		return newError(KindInvalidCharacters, p, fmt.Sprintf("Invalid config file name: %s", name))
	}

	return nil
}

// IsTestFileName reports whether name carries a test-file marker such as
// ".test." or ".spec." rather than being a plain source file.
func IsTestFileName(name string) bool {
	lower := strings.ToLower(baseName(name))
	for _, ext := range testFileExtensions {
		if strings.Count(ext, ".") > 1 && strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// baseName returns the last element of p, treating both slash styles as separators.
func baseName(p string) string {
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}
