// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"path/filepath"
	"strings"
	"testing"
)

func FuzzValidatePathSecurity(f *testing.F) {
	seeds := []string{
		"src/app.test.ts", "../etc/passwd", "a/../b", "a\x00b", "/etc/passwd",
		"C:\\Windows\\System32", "..\\..\\x", "....//", "%2e%2e/", "\u202e/x",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, p string) {
		err := ValidatePathSecurity(p)
		if strings.Contains(p, "..") || strings.ContainsAny(p, "\x00\n\r\t\x1b") {
			if err == nil {
				t.Fatalf("ValidatePathSecurity(%q) accepted a dangerous path", p)
			}
			if kind, _ := KindOf(err); kind != KindDangerousPattern && kind != KindInvalidInput && kind != KindTooLong {
				t.Fatalf("ValidatePathSecurity(%q) kind = %s", p, kind)
			}
		}
	})
}

func FuzzSecurePathResolve(f *testing.F) {
	seeds := []string{"a", "a/b", "/", ".", "/tmp", "C:\\x", "x/./y", "~/.ssh", "a\\..\\b"}
	for _, s := range seeds {
		f.Add(s)
	}

	root := f.TempDir()
	f.Fuzz(func(t *testing.T, candidate string) {
		got, err := SecurePathResolve(root, candidate)
		if err != nil {
			return
		}
		if got != root && !strings.HasPrefix(got, root+string(filepath.Separator)) {
			t.Fatalf("SecurePathResolve(%q) = %q escapes %q", candidate, got, root)
		}
	})
}

func FuzzSanitizeFileContent(f *testing.F) {
	seeds := []string{
		`Hello <script>alert("xss")</script> World`,
		"<scr<script>x</script>ipt>",
		"java\x00script:x",
		"data:,",
		"plain",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, content string) {
		once := SanitizeFileContent(content)
		if twice := SanitizeFileContent(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", content, once, twice)
		}
		if len(once) > MaxContentLength {
			t.Fatalf("result exceeds MaxContentLength: %d", len(once))
		}
	})
}

func FuzzValidateGlobPatterns(f *testing.F) {
	for _, s := range []string{"**/*.test.ts", "../x", "..\\x", "a/../b", "a/..", ""} {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, pattern string) {
		if ValidateGlobPatterns([]string{pattern}) != nil {
			return
		}
		if strings.ContainsAny(pattern, "\\;|&$`<> ") {
			t.Fatalf("accepted pattern with forbidden characters: %q", pattern)
		}
		for _, segment := range strings.Split(pattern, "/") {
			if segment == ".." {
				t.Fatalf("accepted traversal pattern: %q", pattern)
			}
		}
	})
}
