// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package logutil

import (
	"errors"
	"log/slog"

	"github.com/Fitzpa/vitest-mcp/security"
)

// ComponentLogger provides component-scoped structured logging.
type ComponentLogger struct {
	slogger   *slog.Logger
	component string
}

// NewLogger creates a logger scoped to a named component.
func NewLogger(component string) *ComponentLogger {
	return &ComponentLogger{
		slogger:   Logger().With("component", component),
		component: component,
	}
}

// WithTool returns a new logger with the MCP tool name added.
func (l *ComponentLogger) WithTool(name string) *ComponentLogger {
	return l.WithFields("tool", name)
}

// WithOperation returns a new logger with the operation context added.
func (l *ComponentLogger) WithOperation(name string) *ComponentLogger {
	return l.WithFields("operation", name)
}

// WithFields returns a new logger with additional alternating key-value fields.
func (l *ComponentLogger) WithFields(fields ...any) *ComponentLogger {
	return &ComponentLogger{
		slogger:   l.slogger.With(fields...),
		component: l.component,
	}
}

// Component returns the component name for this logger.
func (l *ComponentLogger) Component() string {
	return l.component
}

// Debug logs a message at debug level.
func (l *ComponentLogger) Debug(msg string, args ...any) {
	if IsDebugEnabled() {
		l.slogger.Debug(msg, args...)
	}
}

// Info logs a message at info level.
func (l *ComponentLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs a message at warn level.
func (l *ComponentLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs a message at error level.
func (l *ComponentLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// Rejection logs a failed validation at warn level with the violated rule.
// Security errors contribute their kind, parameter and limit as fields;
// other errors are logged with the error text only.
func (l *ComponentLogger) Rejection(msg string, err error) {
	args := []any{"error", err}

	var secErr *security.Error
	if errors.As(err, &secErr) {
		args = append(args, "rule", secErr.Kind.String())
		if secErr.Param != "" {
			args = append(args, "param", secErr.Param)
		}
		if secErr.Limit > 0 {
			args = append(args, "limit", secErr.Limit)
		}
	}

	l.slogger.Warn(msg, args...)
}
