// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vitest

const sampleReport = `{
  "numTotalTestSuites": 2,
  "numPassedTestSuites": 1,
  "numFailedTestSuites": 1,
  "numTotalTests": 4,
  "numPassedTests": 2,
  "numFailedTests": 1,
  "numPendingTests": 1,
  "numTodoTests": 0,
  "startTime": 1700000000000,
  "success": false,
  "testResults": [
    {
      "name": "/work/app/src/math.test.ts",
      "status": "failed",
      "message": "",
      "startTime": 1700000000100,
      "endTime": 1700000001500,
      "assertionResults": [
        {"fullName": "math adds", "title": "adds", "status": "passed", "failureMessages": []},
        {"fullName": "math divides", "title": "divides", "status": "failed",
         "failureMessages": ["AssertionError: expected 2 to be 3 <script>alert(1)</script>"]},
        {"fullName": "math later", "title": "later", "status": "skipped", "failureMessages": []}
      ]
    },
    {
      "name": "/work/app/src/util.spec.js",
      "status": "passed",
      "message": "",
      "startTime": 1700000000100,
      "endTime": 1700000000900,
      "assertionResults": [
        {"fullName": "util works", "title": "works", "status": "passed", "failureMessages": []}
      ]
    }
  ]
}`

const sampleCoverage = `{
  "total": {
    "lines": {"total": 20, "covered": 15, "skipped": 0, "pct": 75},
    "statements": {"total": 22, "covered": 16, "skipped": 0, "pct": 72.72},
    "functions": {"total": 4, "covered": 3, "skipped": 0, "pct": 75},
    "branches": {"total": 0, "covered": 0, "skipped": 0, "pct": "Unknown"}
  },
  "/work/app/src/math.ts": {
    "lines": {"total": 10, "covered": 10, "skipped": 0, "pct": 100},
    "statements": {"total": 10, "covered": 10, "skipped": 0, "pct": 100},
    "functions": {"total": 2, "covered": 2, "skipped": 0, "pct": 100},
    "branches": {"total": 0, "covered": 0, "skipped": 0, "pct": 100}
  },
  "/work/app/src/util.ts": {
    "lines": {"total": 10, "covered": 5, "skipped": 0, "pct": 50},
    "statements": {"total": 12, "covered": 6, "skipped": 0, "pct": 50},
    "functions": {"total": 2, "covered": 1, "skipped": 0, "pct": 50},
    "branches": {"total": 0, "covered": 0, "skipped": 0, "pct": "Unknown"}
  }
}`
