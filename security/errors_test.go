// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "DangerousPattern", KindDangerousPattern.String())
	assert.Equal(t, "SystemDirectoryForbidden", KindSystemDirectory.String())
	assert.Equal(t, "PathTraversalInPattern", KindPathTraversalInPattern.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestErrorUnwrapsToSentinel(t *testing.T) {
	for kind, sentinel := range kindSentinels {
		err := newError(kind, "v", "reason")
		assert.True(t, errors.Is(err, sentinel), "kind %s", kind)
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := ValidatePathSecurity("../x")
	wrapped := fmt.Errorf("run_tests: %w", inner)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindDangerousPattern, kind)
	assert.True(t, errors.Is(wrapped, ErrDangerousPattern))

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestErrorFields(t *testing.T) {
	err := ValidatePathSecurity(strings.Repeat("a", MaxPathLength+1))

	var secErr *Error
	require.True(t, errors.As(err, &secErr))
	assert.Equal(t, KindTooLong, secErr.Kind)
	assert.Equal(t, MaxPathLength, secErr.Limit)
	assert.Len(t, secErr.Value, maxEchoLen)
	assert.Equal(t, secErr.Reason, secErr.Error())
}
