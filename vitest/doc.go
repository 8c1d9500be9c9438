// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package vitest runs vitest in a project directory and parses its reports.
//
// Every dynamic element of the command line is validated before a process is
// started: the test target is resolved inside the project root and checked
// against the test-file extensions, the project name passes the command
// argument rules and coverage exclusions pass the glob rules. Commands are
// executed as argv lists through cmdutil, never via a shell.
//
// Runs go through a circuit breaker (github.com/sony/gobreaker). Failing tests
// are a normal outcome and do not count against the breaker; timeouts, missing
// binaries and unreadable reports do.
//
// Reports are written to files named by security.CreateSecureTempPath inside
// the project and removed after parsing.
package vitest
