// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tempSuffix is appended to every generated temp file name.
const tempSuffix = ".tmp"

// defaultTempPrefix is used when sanitization leaves the prefix empty.
const defaultTempPrefix = "tmp"

// maxTempPrefixLength bounds the sanitized prefix.
const maxTempPrefixLength = 64

// CreateSecureTempPath returns an unpredictable path under root of the form
// <prefix>-<64 hex chars>.tmp.
//
// prefix is a label only: characters outside [A-Za-z0-9_-] are stripped rather
// than rejected. The call fails only when root itself is invalid.
func CreateSecureTempPath(root, prefix string) (string, error) {
	if err := ValidatePathSecurity(root); err != nil {
		return "", err
	}

	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate temp path token: %w", err)
	}

	return SecurePathResolve(root, fmt.Sprintf("%s-%s%s", SanitizeTempPrefix(prefix), token, tempSuffix))
}

// SanitizeTempPrefix strips every character outside [A-Za-z0-9_-] from prefix
// and caps the result at 64 characters.
func SanitizeTempPrefix(prefix string) string {
	sanitized := tempPrefixStrip.ReplaceAllString(prefix, "")
	if sanitized == "" {
		return defaultTempPrefix
	}
	if len(sanitized) > maxTempPrefixLength {
		sanitized = sanitized[:maxTempPrefixLength]
	}
	return sanitized
}

func randomToken() (string, error) {
	buf := make([]byte, TempTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
