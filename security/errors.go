// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"errors"
	"fmt"
)

// Kind identifies which validation rule an input violated.
type Kind int

const (
	// KindInvalidInput indicates an empty or wrongly typed value.
	KindInvalidInput Kind = iota + 1
	// KindTooLong indicates a path, argument, or pattern over its length limit.
	KindTooLong
	// KindTooDeep indicates a path with too many segments.
	KindTooDeep
	// KindDangerousPattern indicates traversal sequences, NUL bytes, or control characters.
	KindDangerousPattern
	// KindSystemDirectory indicates a path inside a forbidden system directory.
	KindSystemDirectory
	// KindExtensionNotAllowed indicates a file extension outside the allowed set.
	KindExtensionNotAllowed
	// KindBoundaryEscape indicates a resolved path outside its trusted root.
	KindBoundaryEscape
	// KindTooManyPatterns indicates a glob pattern list over its element limit.
	KindTooManyPatterns
	// KindInvalidCharacters indicates characters outside an allowlist.
	KindInvalidCharacters
	// KindPathTraversalInPattern indicates a "../" sequence inside a glob pattern.
	KindPathTraversalInPattern
)

var (
	// ErrInvalidInput is the sentinel for KindInvalidInput.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooLong is the sentinel for KindTooLong.
	ErrTooLong = errors.New("value too long")
	// ErrTooDeep is the sentinel for KindTooDeep.
	ErrTooDeep = errors.New("path too deep")
	// ErrDangerousPattern is the sentinel for KindDangerousPattern.
	ErrDangerousPattern = errors.New("dangerous pattern")
	// ErrSystemDirectory is the sentinel for KindSystemDirectory.
	ErrSystemDirectory = errors.New("system directory forbidden")
	// ErrExtensionNotAllowed is the sentinel for KindExtensionNotAllowed.
	ErrExtensionNotAllowed = errors.New("extension not allowed")
	// ErrBoundaryEscape is the sentinel for KindBoundaryEscape.
	ErrBoundaryEscape = errors.New("path escapes allowed directory")
	// ErrTooManyPatterns is the sentinel for KindTooManyPatterns.
	ErrTooManyPatterns = errors.New("too many patterns")
	// ErrInvalidCharacters is the sentinel for KindInvalidCharacters.
	ErrInvalidCharacters = errors.New("invalid characters")
	// ErrPathTraversal is the sentinel for KindPathTraversalInPattern.
	ErrPathTraversal = errors.New("path traversal detected")
)

var kindNames = map[Kind]string{
	KindInvalidInput:           "InvalidInput",
	KindTooLong:                "TooLong",
	KindTooDeep:                "TooDeep",
	KindDangerousPattern:       "DangerousPattern",
	KindSystemDirectory:        "SystemDirectoryForbidden",
	KindExtensionNotAllowed:    "ExtensionNotAllowed",
	KindBoundaryEscape:         "BoundaryEscape",
	KindTooManyPatterns:        "TooManyPatterns",
	KindInvalidCharacters:      "InvalidCharacters",
	KindPathTraversalInPattern: "PathTraversalInPattern",
}

var kindSentinels = map[Kind]error{
	KindInvalidInput:           ErrInvalidInput,
	KindTooLong:                ErrTooLong,
	KindTooDeep:                ErrTooDeep,
	KindDangerousPattern:       ErrDangerousPattern,
	KindSystemDirectory:        ErrSystemDirectory,
	KindExtensionNotAllowed:    ErrExtensionNotAllowed,
	KindBoundaryEscape:         ErrBoundaryEscape,
	KindTooManyPatterns:        ErrTooManyPatterns,
	KindInvalidCharacters:      ErrInvalidCharacters,
	KindPathTraversalInPattern: ErrPathTraversal,
}

// String returns the taxonomy name of the kind, e.g. "DangerousPattern".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the failure returned by every validator in this package.
//
// The message returned by Error() is stable and may be matched by callers.
// Structured fields carry the offending value and the limit that was exceeded
// so call sites can log the specific rule without parsing the message.
type Error struct {
	Kind   Kind
	Value  string // offending input, truncated for very long values
	Param  string // parameter name for argument validation
	Limit  int    // the exceeded limit for TooLong, TooDeep and TooManyPatterns
	Reason string // human-readable message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Reason
}

// Unwrap returns the sentinel for the error's kind so errors.Is works.
func (e *Error) Unwrap() error {
	return kindSentinels[e.Kind]
}

// KindOf returns the Kind of a security error anywhere in err's chain.
// It returns 0 and false when err is not a security error.
func KindOf(err error) (Kind, bool) {
	var secErr *Error
	if errors.As(err, &secErr) {
		return secErr.Kind, true
	}
	return 0, false
}

// maxEchoLen caps how much of an offending value is retained on an Error.
const maxEchoLen = 128

func newError(kind Kind, value, reason string) *Error {
	if len(value) > maxEchoLen {
		value = truncateRunes(value, maxEchoLen)
	}
	return &Error{Kind: kind, Value: value, Reason: reason}
}
