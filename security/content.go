// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"strings"
	"unicode/utf8"
)

// maxSanitizePasses bounds the repeat-until-stable loop in SanitizeFileContent.
// Each pass peels one layer of nesting, so legitimate content settles in one
// or two passes.
const maxSanitizePasses = 16

// SanitizeFileContent strips executable markup from untrusted file content
// before it is rendered. It never fails and runs in time linear in the input.
//
// Script blocks, dangerous URI schemes (javascript:, vbscript:, livescript:,
// data:) and non-printable control characters are removed until none remain,
// then the result is truncated to MaxContentLength bytes on a rune boundary.
// Truncation runs last so it cannot reintroduce a removed construct.
//
// Content still changing after maxSanitizePasses is nested on purpose. For
// that content every "<" is dropped, which leaves no tag to reassemble.
func SanitizeFileContent(content string) string {
	stable := false
	for range maxSanitizePasses {
		next := sanitizePass(content)
		if next == content {
			stable = true
			break
		}
		content = next
	}

	if !stable {
		content = controlCharacter.ReplaceAllString(content, "")
		content = strings.ReplaceAll(content, "<", "")
		content = dangerousScheme.ReplaceAllString(content, "")
	}

	return truncateRunes(content, MaxContentLength)
}

func sanitizePass(content string) string {
	next := scriptBlock.ReplaceAllString(content, "")
	next = dangerousScheme.ReplaceAllString(next, "")
	return controlCharacter.ReplaceAllString(next, "")
}

// SanitizeValue sanitizes a decoded, untyped value. Anything that is not a
// string, including nil, yields an empty string.
func SanitizeValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return SanitizeFileContent(s)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
