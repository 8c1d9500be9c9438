// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vitest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReport(t *testing.T) {
	result, err := ParseReport([]byte(sampleReport), "/work/app")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 4, result.TotalTests)
	assert.Equal(t, 2, result.PassedTests)
	assert.Equal(t, 1, result.FailedTests)
	assert.Equal(t, 1, result.SkippedTests)
	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 1500*time.Millisecond, result.Duration)

	require.Len(t, result.Files, 2)
	assert.Equal(t, "src/math.test.ts", result.Files[0].Path)
	assert.Equal(t, "failed", result.Files[0].Status)
	require.Len(t, result.Files[0].Failures, 1)
	failure := result.Files[0].Failures[0]
	assert.Equal(t, "math divides", failure.Name)
	require.Len(t, failure.Messages, 1)
	assert.NotContains(t, failure.Messages[0], "<script>", "messages are sanitized")
	assert.Contains(t, failure.Messages[0], "expected 2 to be 3")

	assert.Equal(t, "src/util.spec.js", result.Files[1].Path)
	assert.Empty(t, result.Files[1].Failures)
}

func TestParseReport_NoisyOutput(t *testing.T) {
	noisy := "\x1b[33mwarning: something\x1b[0m\n" + sampleReport + "\nDone.\n"
	result, err := ParseReport([]byte(noisy), "/work/app")
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalTests)
}

func TestParseReport_Errors(t *testing.T) {
	for name, data := range map[string]string{
		"empty":     "",
		"no object": "FAIL  no tests found",
		"truncated": `{"numTotalTests": 3, "testResults": [`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReport([]byte(data), "/work/app")
			assert.ErrorIs(t, err, ErrNoReport)
		})
	}
}

func TestParseReport_CapsFailureMessages(t *testing.T) {
	report := `{"numTotalTests":1,"numFailedTests":1,"testResults":[{"name":"a.test.ts","status":"failed",
		"assertionResults":[{"title":"t","status":"failed","failureMessages":["1","2","3","4","5","6","7"]}]}]}`

	result, err := ParseReport([]byte(report), "/work/app")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "a.test.ts", result.Files[0].Path, "relative paths pass through")
	assert.Equal(t, "t", result.Files[0].Failures[0].Name, "title used when fullName is empty")
	assert.Len(t, result.Files[0].Failures[0].Messages, maxFailureMessages)
	assert.Equal(t, 1, result.TotalFiles, "file count falls back to results")
}

func TestTestRunResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(TestRunResult{Success: true, TotalTests: 1, Duration: 1500 * time.Millisecond})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1500), decoded["durationMs"])
	assert.Equal(t, true, decoded["success"])
}

func TestParseCoverageSummary(t *testing.T) {
	summary, err := ParseCoverageSummary([]byte(sampleCoverage), "/work/app")
	require.NoError(t, err)

	assert.Equal(t, Percent(75), summary.Total.Lines.Pct)
	assert.Equal(t, 15, summary.Total.Lines.Covered)
	assert.Equal(t, Percent(100), summary.Total.Branches.Pct, `"Unknown" means nothing to cover`)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, "src/util.ts", summary.Files[0].Path, "weakest file first")
	assert.Equal(t, Percent(50), summary.Files[0].Lines.Pct)
	assert.Equal(t, "src/math.ts", summary.Files[1].Path)
}

func TestParseCoverageSummary_Errors(t *testing.T) {
	_, err := ParseCoverageSummary([]byte(`{"src/a.ts": {}}`), "/work/app")
	assert.ErrorContains(t, err, "no total entry")

	_, err = ParseCoverageSummary([]byte(`[]`), "/work/app")
	assert.ErrorContains(t, err, "failed to parse coverage summary")

	_, err = ParseCoverageSummary([]byte(`{"total": {"lines": {"pct": true}}}`), "/work/app")
	assert.Error(t, err)
}

func TestPercent_StringNumber(t *testing.T) {
	var p Percent
	require.NoError(t, json.Unmarshal([]byte(`"87.5"`), &p))
	assert.Equal(t, Percent(87.5), p)
}
