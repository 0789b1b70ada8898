package commands

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

const (
	// DefaultCommandTimeout bounds a directory run.
	DefaultCommandTimeout = 5 * time.Minute
	// DefaultFileCommandTimeout bounds a single document, e.g. one watch event.
	DefaultFileCommandTimeout = 30 * time.Second
)

const commandModuleRoot = "fmnorm.commands"

// executionContext never returns a nil context. A non-positive timeout leaves
// the parent deadline in charge.
func executionContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns logger, or a no-op logger when nil.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	return logging.Ensure(logger)
}

// CommandLogger names handler loggers fmnorm.commands.<module> and tags
// every entry with the command module.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	return logging.WithFields(logging.ModuleLogger(provider, commandModuleRoot+"."+name), map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
