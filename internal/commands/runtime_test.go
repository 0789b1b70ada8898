package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

func TestExecutionContextAppliesTimeout(t *testing.T) {
	ctx, cancel := executionContext(nil, time.Minute)
	defer cancel()
	if ctx == nil {
		t.Fatal("expected a context for nil parent")
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected deadline when timeout is positive")
	}

	plain, cancelPlain := executionContext(context.Background(), 0)
	defer cancelPlain()
	if _, ok := plain.Deadline(); ok {
		t.Fatal("expected no deadline when timeout is zero")
	}
}

func TestDefaultTelemetryLevels(t *testing.T) {
	logger := &levelLogger{}
	telemetry := DefaultTelemetry[testMessage](logger)

	telemetry(context.Background(), testMessage{}, TelemetryInfo{Status: TelemetryStatusSuccess})
	telemetry(context.Background(), testMessage{}, TelemetryInfo{Status: TelemetryStatusInterrupted, Error: context.Canceled})
	telemetry(context.Background(), testMessage{}, TelemetryInfo{Status: TelemetryStatusFailed, Error: errors.New("disk full")})

	want := []string{
		"info:command.execute.success",
		"warn:command.execute.interrupted",
		"error:command.execute.failed",
	}
	if len(logger.entries) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), logger.entries)
	}
	for i, entry := range want {
		if logger.entries[i] != entry {
			t.Fatalf("entry %d: expected %s, got %s", i, entry, logger.entries[i])
		}
	}
}

func TestCommandLoggerDefaultsModule(t *testing.T) {
	provider := &namingProvider{}
	if CommandLogger(provider, " ") == nil {
		t.Fatal("expected logger")
	}
	if provider.last != "fmnorm.commands.core" {
		t.Fatalf("expected fmnorm.commands.core, got %s", provider.last)
	}
	CommandLogger(provider, "frontmatter")
	if provider.last != "fmnorm.commands.frontmatter" {
		t.Fatalf("expected fmnorm.commands.frontmatter, got %s", provider.last)
	}
}

type namingProvider struct {
	last string
}

func (p *namingProvider) GetLogger(name string) interfaces.Logger {
	p.last = name
	return &levelLogger{}
}

type levelLogger struct {
	entries []string
}

func (l *levelLogger) Trace(msg string, _ ...any) { l.entries = append(l.entries, "trace:"+msg) }
func (l *levelLogger) Debug(msg string, _ ...any) { l.entries = append(l.entries, "debug:"+msg) }
func (l *levelLogger) Info(msg string, _ ...any)  { l.entries = append(l.entries, "info:"+msg) }
func (l *levelLogger) Warn(msg string, _ ...any)  { l.entries = append(l.entries, "warn:"+msg) }
func (l *levelLogger) Error(msg string, _ ...any) { l.entries = append(l.entries, "error:"+msg) }
func (l *levelLogger) Fatal(msg string, _ ...any) { l.entries = append(l.entries, "fatal:"+msg) }

func (l *levelLogger) WithContext(context.Context) interfaces.Logger { return l }
