// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateGlobPatterns checks coverage exclude patterns. It stops at the
// first failing pattern.
//
// At most MaxPatterns patterns are accepted. Each must be non-empty, at most
// MaxPatternLength characters, use only [A-Za-z0-9-/.*], and contain no ".."
// path segment. Backslashes fall outside the allowlist, so Windows-style
// traversal is rejected as an invalid pattern.
func ValidateGlobPatterns(patterns []string) error {
	if len(patterns) > MaxPatterns {
		err := newError(KindTooManyPatterns, "", fmt.Sprintf("Too many exclude patterns (maximum %d)", MaxPatterns))
		err.Limit = MaxPatterns
		return err
	}

	for _, pattern := range patterns {
		if err := validateGlobPattern(pattern); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGlobPatternsValue validates a decoded, untyped pattern list such as
// a JSON array. Non-array values and non-string elements are rejected.
func ValidateGlobPatternsValue(v any) error {
	switch patterns := v.(type) {
	case []string:
		return ValidateGlobPatterns(patterns)
	case []any:
		if len(patterns) > MaxPatterns {
			err := newError(KindTooManyPatterns, "", fmt.Sprintf("Too many exclude patterns (maximum %d)", MaxPatterns))
			err.Limit = MaxPatterns
			return err
		}
		for _, item := range patterns {
			s, ok := item.(string)
			if !ok {
				return newError(KindInvalidInput, "", "Each exclude pattern must be a non-empty string")
			}
			if err := validateGlobPattern(s); err != nil {
				return err
			}
		}
		return nil
	default:
		return newError(KindInvalidInput, "", "Exclude patterns must be an array")
	}
}

func validateGlobPattern(pattern string) error {
	if pattern == "" {
		return newError(KindInvalidInput, pattern, "Each exclude pattern must be a non-empty string")
	}

	if utf8.RuneCountInString(pattern) > MaxPatternLength {
		err := newError(KindTooLong, pattern, fmt.Sprintf("Pattern too long (maximum %d characters)", MaxPatternLength))
		err.Limit = MaxPatternLength
		return err
	}

	if !globAllowed.MatchString(pattern) {
		return newError(KindInvalidCharacters, pattern, fmt.Sprintf("Invalid glob pattern: %s", pattern))
	}

	for _, segment := range strings.Split(pattern, "/") {
		if segment == ".." {
			return newError(KindPathTraversalInPattern, pattern, fmt.Sprintf("Path traversal not allowed in pattern: %s", pattern))
		}
	}

	return nil
}
