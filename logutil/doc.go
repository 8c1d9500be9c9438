// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package logutil is the vitest MCP server's log/slog setup.
//
// The server speaks MCP over stdout, so every log line goes to stderr. The
// cobra root command calls SetupLogger once from --debug and --log-format,
// and everything else logs through a ComponentLogger tagged with the
// package it belongs to:
//
//	log := logutil.NewLogger("vitest").WithOperation("coverage")
//	log.Info("vitest finished", "exitCode", res.ExitCode, "duration", res.Duration)
//	log.Debug("argv", "command", cmdutil.FormatCommandLine(name, args))
//
// Package-level Debug, Info, Warn and Error write through the same handler
// for code that has no component.
//
// # Levels and Formats
//
// The default level is info. --debug or VITEST_MCP_DEBUG=true lowers it to
// debug, which adds the vitest argv and its stderr lines. --log-format json
// switches the slog.TextHandler for a slog.JSONHandler so an MCP client can
// ingest stderr as structured events.
//
// # Validation Rejections
//
// Rejection logs a failed security check at warn level. Next to the error
// message it adds the rule name, parameter and limit from the *security.Error,
// so rejections can be filtered by rule.
//
//	log := logutil.NewLogger("mcpserver").WithTool("run_tests")
//	log.Rejection("target rejected", err)
package logutil
