// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Fitzpa/vitest-mcp/security"
)

// maxFailureMessages caps how many failure messages are kept per test.
const maxFailureMessages = 5

// ErrNoReport is returned when vitest produced no parsable JSON report.
var ErrNoReport = errors.New("vitest produced no JSON report")

// TestRunResult summarizes a vitest JSON report.
type TestRunResult struct {
	Success      bool          `json:"success"`
	TotalTests   int           `json:"totalTests"`
	PassedTests  int           `json:"passedTests"`
	FailedTests  int           `json:"failedTests"`
	SkippedTests int           `json:"skippedTests"`
	TotalFiles   int           `json:"totalFiles"`
	Duration     time.Duration `json:"durationMs"`
	Files        []FileResult  `json:"files"`
}

// FileResult is the outcome of one test file.
type FileResult struct {
	Path     string        `json:"path"`
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Failures []TestFailure `json:"failures,omitempty"`
}

// TestFailure is a single failed assertion group.
type TestFailure struct {
	Name     string   `json:"name"`
	Messages []string `json:"messages"`
}

// MarshalJSON reports Duration in milliseconds.
func (r TestRunResult) MarshalJSON() ([]byte, error) {
	type alias TestRunResult
	return json.Marshal(struct {
		alias
		Duration int64 `json:"durationMs"`
	}{alias: alias(r), Duration: r.Duration.Milliseconds()})
}

// jsonReport mirrors the subset of vitest's Jest-compatible JSON reporter we use.
type jsonReport struct {
	NumTotalTestSuites int   `json:"numTotalTestSuites"`
	NumTotalTests      int   `json:"numTotalTests"`
	NumPassedTests     int   `json:"numPassedTests"`
	NumFailedTests     int   `json:"numFailedTests"`
	NumPendingTests    int   `json:"numPendingTests"`
	NumTodoTests       int   `json:"numTodoTests"`
	StartTime          int64 `json:"startTime"`
	Success            bool  `json:"success"`
	TestResults        []struct {
		Name             string `json:"name"`
		Status           string `json:"status"`
		Message          string `json:"message"`
		StartTime        int64  `json:"startTime"`
		EndTime          int64  `json:"endTime"`
		AssertionResults []struct {
			FullName        string   `json:"fullName"`
			Title           string   `json:"title"`
			Status          string   `json:"status"`
			FailureMessages []string `json:"failureMessages"`
		} `json:"assertionResults"`
	} `json:"testResults"`
}

// ParseReport decodes a vitest JSON report. File paths are made relative to
// root and all echoed text passes through security.SanitizeFileContent.
func ParseReport(data []byte, root string) (*TestRunResult, error) {
	data = extractJSON(data)
	if len(data) == 0 {
		return nil, ErrNoReport
	}

	var report jsonReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoReport, err)
	}

	result := &TestRunResult{
		Success:      report.Success,
		TotalTests:   report.NumTotalTests,
		PassedTests:  report.NumPassedTests,
		FailedTests:  report.NumFailedTests,
		SkippedTests: report.NumPendingTests + report.NumTodoTests,
		TotalFiles:   report.NumTotalTestSuites,
		Files:        make([]FileResult, 0, len(report.TestResults)),
	}

	var lastEnd int64
	for _, tr := range report.TestResults {
		file := FileResult{
			Path:    relativeTo(root, tr.Name),
			Status:  tr.Status,
			Message: security.SanitizeFileContent(tr.Message),
		}
		for _, ar := range tr.AssertionResults {
			if ar.Status != "failed" {
				continue
			}
			name := ar.FullName
			if name == "" {
				name = ar.Title
			}
			failure := TestFailure{Name: security.SanitizeFileContent(name)}
			for i, msg := range ar.FailureMessages {
				if i == maxFailureMessages {
					break
				}
				failure.Messages = append(failure.Messages, security.SanitizeFileContent(msg))
			}
			file.Failures = append(file.Failures, failure)
		}
		if tr.EndTime > lastEnd {
			lastEnd = tr.EndTime
		}
		result.Files = append(result.Files, file)
	}

	if report.StartTime > 0 && lastEnd > report.StartTime {
		result.Duration = time.Duration(lastEnd-report.StartTime) * time.Millisecond
	}
	if result.TotalFiles == 0 {
		result.TotalFiles = len(result.Files)
	}
	return result, nil
}

// extractJSON trims anything printed around the report object.
func extractJSON(data []byte) []byte {
	start := bytes.IndexByte(data, '{')
	end := bytes.LastIndexByte(data, '}')
	if start < 0 || end < start {
		return nil
	}
	return data[start : end+1]
}

// relativeTo renders an absolute report path relative to root when it lies inside it.
func relativeTo(root, p string) string {
	if p == "" || !filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || (len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// Percent is an istanbul percentage, which older reporters emit as "Unknown"
// when there is nothing to cover.
type Percent float64

// UnmarshalJSON accepts numbers and numeric or "Unknown" strings.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = Percent(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid coverage percentage %s", data)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*p = Percent(f)
		return nil
	}
	*p = 100
	return nil
}

// Counter is one istanbul coverage metric.
type Counter struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Skipped int     `json:"skipped"`
	Pct     Percent `json:"pct"`
}

// Metrics groups the four istanbul coverage metrics.
type Metrics struct {
	Lines      Counter `json:"lines"`
	Statements Counter `json:"statements"`
	Functions  Counter `json:"functions"`
	Branches   Counter `json:"branches"`
}

// FileCoverage is the coverage of one source file.
type FileCoverage struct {
	Path string `json:"path"`
	Metrics
}

// CoverageSummary is a parsed coverage-summary.json.
type CoverageSummary struct {
	Total Metrics        `json:"total"`
	Files []FileCoverage `json:"files"`
}

// ParseCoverageSummary decodes istanbul's json-summary output.
// Files are sorted by ascending line coverage so the weakest come first.
func ParseCoverageSummary(data []byte, root string) (*CoverageSummary, error) {
	var raw map[string]Metrics
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse coverage summary: %w", err)
	}
	total, ok := raw["total"]
	if !ok {
		return nil, errors.New("coverage summary has no total entry")
	}

	summary := &CoverageSummary{Total: total}
	for path, m := range raw {
		if path == "total" {
			continue
		}
		summary.Files = append(summary.Files, FileCoverage{Path: relativeTo(root, path), Metrics: m})
	}
	sortByLineCoverage(summary.Files)
	return summary, nil
}
