package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// WithFields returns logger carrying a copy of fields. Loggers without the
// FieldsLogger extension are returned as is.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	with, ok := logger.(interfaces.FieldsLogger)
	if !ok || len(fields) == 0 {
		return logger
	}
	return with.WithFields(maps.Clone(fields))
}

// WithDocumentContext tags logger with the document being processed. Blank
// values are left out.
func WithDocumentContext(logger interfaces.Logger, path, runID, action string) interfaces.Logger {
	fields := make(map[string]any, 3)
	for key, value := range map[string]string{
		fieldDocumentPath: path,
		fieldRunID:        runID,
		fieldAction:       action,
	} {
		if value = strings.TrimSpace(value); value != "" {
			fields[key] = value
		}
	}
	return WithFields(logger, fields)
}

// Ensure returns logger, or NoOp when it is nil.
func Ensure(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
