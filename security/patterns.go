// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import "regexp"

// Limits enforced by the validators. Length limits count characters
// (runes), not bytes.
const (
	// MaxPathLength is the longest path accepted by ValidatePathSecurity.
	MaxPathLength = 4096
	// MaxPathDepth is the maximum number of segments in a normalized path.
	MaxPathDepth = 20
	// MaxArgumentLength is the longest command argument accepted.
	MaxArgumentLength = 256
	// MaxPatternLength is the longest glob pattern accepted.
	MaxPatternLength = 256
	// MaxPatterns is the maximum number of glob patterns in one call.
	MaxPatterns = 50
	// MaxContentLength is the size, in bytes, sanitized content is truncated to.
	MaxContentLength = 1024 * 1024
	// TempTokenBytes is the number of random bytes in a temp path token (64 hex chars).
	TempTokenBytes = 32
)

// posixSystemDirs are matched as a path prefix, case-insensitively.
var posixSystemDirs = []string{
	"/etc",
	"/usr",
	"/bin",
	"/sbin",
	"/root",
	"/sys",
	"/proc",
	"/boot",
	"/dev",
	"/lib",
	"/lib64",
	"/var/log",
	"/var/run",
	"/private/etc",
	"/system",
	"/library",
}

// windowsSystemDirs are stored lower-case with forward slashes and are
// matched after the drive letter, so D:\Windows is forbidden as well.
var windowsSystemDirs = []string{
	"/windows",
	"/program files",
	"/program files (x86)",
	"/programdata",
	"/system volume information",
	"/recovery",
}

// windowsSystemSegments are forbidden anywhere in a path, on any drive.
var windowsSystemSegments = []string{
	"system32",
	"syswow64",
}

// dangerousArgumentSequences are rejected in command arguments.
var dangerousArgumentSequences = []string{
	";", "|", "&", "`", "$(", "${", ">", "<", "..", "\n", "\r", "\x00",
}

// testFileExtensions covers test files and the source files coverage targets.
var testFileExtensions = []string{
	".test.ts", ".spec.ts",
	".test.tsx", ".spec.tsx",
	".test.js", ".spec.js",
	".test.jsx", ".spec.jsx",
	".test.mts", ".spec.mts",
	".test.mjs", ".spec.mjs",
	".ts", ".tsx", ".js", ".jsx",
}

var configFileExtensions = []string{".ts", ".js", ".json", ".mjs", ".cjs"}

var (
	// tempPrefixStrip removes everything outside the temp prefix whitelist.
	tempPrefixStrip = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

	// globAllowed is the character allowlist for glob patterns.
	globAllowed = regexp.MustCompile(`^[a-zA-Z0-9\-/.*]+$`)

	// configFileName restricts config file base names to plain characters.
	configFileName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

	scriptBlock      = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	dangerousScheme  = regexp.MustCompile(`(?i)\b(?:javascript|vbscript|livescript|data)(?:\s*:)+`)
	controlCharacter = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

// TestFileExtensions returns a copy of the extensions accepted by ValidateTestFilePath.
func TestFileExtensions() []string {
	return append([]string(nil), testFileExtensions...)
}

// ConfigFileExtensions returns a copy of the extensions accepted by ValidateConfigFilePath.
func ConfigFileExtensions() []string {
	return append([]string(nil), configFileExtensions...)
}
