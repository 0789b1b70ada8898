package frontmattercmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-fmnorm/internal/commands"
	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

const (
	normalizeDirectoryOperation = "frontmatter.normalize_directory"
	normalizeFileOperation      = "frontmatter.normalize_file"
)

var (
	_ command.Commander[NormalizeDirectoryCommand] = (*NormalizeDirectoryHandler)(nil)
	_ command.Commander[NormalizeFileCommand]      = (*NormalizeFileHandler)(nil)
)

// DirectoryResultHook receives the summary of a directory run, including
// runs that ended with per-file failures.
type DirectoryResultHook func(ctx context.Context, msg NormalizeDirectoryCommand, result *interfaces.NormalizeResult)

// FileResultHook receives the outcome of a single file run.
type FileResultHook func(ctx context.Context, msg NormalizeFileCommand, result *interfaces.FileResult)

// NormalizeDirectoryHandler runs directory normalization through the shared command handler.
type NormalizeDirectoryHandler struct {
	inner *commands.Handler[NormalizeDirectoryCommand]
}

// NewNormalizeDirectoryHandler creates a handler bound to the supplied service.
func NewNormalizeDirectoryHandler(service interfaces.FrontMatterService, logger interfaces.Logger, gates FeatureGates, hook DirectoryResultHook, opts ...commands.HandlerOption[NormalizeDirectoryCommand]) *NormalizeDirectoryHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg NormalizeDirectoryCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dryRun := msg.DryRun || !gates.writesEnabled()
		result, err := service.NormalizeDirectory(ctx, msg.Directory, interfaces.NormalizeOptions{
			DryRun:  dryRun,
			Pattern: msg.Pattern,
		})
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"normalized_count": result.Normalized,
				"unchanged_count":  result.Unchanged,
				"skipped_count":    result.Skipped,
				"failed_count":     result.Failed,
				"run_id":           result.RunID,
				"dry_run":          dryRun,
			}).Info("frontmatter.command.normalize_directory.completed")
			if hook != nil {
				hook(ctx, msg, result)
			}
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[NormalizeDirectoryCommand]{
		commands.WithLogger[NormalizeDirectoryCommand](baseLogger),
		commands.WithOperation[NormalizeDirectoryCommand](normalizeDirectoryOperation),
		commands.WithMessageFields(func(msg NormalizeDirectoryCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.Pattern != "" {
				fields["pattern"] = msg.Pattern
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[NormalizeDirectoryCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &NormalizeDirectoryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[NormalizeDirectoryCommand].
func (h *NormalizeDirectoryHandler) Execute(ctx context.Context, msg NormalizeDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}

// NormalizeFileHandler runs single file normalization through the shared command handler.
type NormalizeFileHandler struct {
	inner *commands.Handler[NormalizeFileCommand]
}

// NewNormalizeFileHandler creates a handler bound to the supplied service.
func NewNormalizeFileHandler(service interfaces.FrontMatterService, logger interfaces.Logger, gates FeatureGates, hook FileResultHook, opts ...commands.HandlerOption[NormalizeFileCommand]) *NormalizeFileHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg NormalizeFileCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dryRun := msg.DryRun || !gates.writesEnabled()
		result, err := service.NormalizeFile(ctx, msg.Path, interfaces.NormalizeOptions{DryRun: dryRun})
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"document_path": result.FilePath,
				"status":        string(result.Status),
				"dry_run":       dryRun,
			}).Info("frontmatter.command.normalize_file.completed")
			if hook != nil {
				hook(ctx, msg, result)
			}
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[NormalizeFileCommand]{
		commands.WithLogger[NormalizeFileCommand](baseLogger),
		commands.WithOperation[NormalizeFileCommand](normalizeFileOperation),
		commands.WithTimeout[NormalizeFileCommand](commands.DefaultFileCommandTimeout),
		commands.WithMessageFields(func(msg NormalizeFileCommand) map[string]any {
			fields := map[string]any{
				"path": msg.Path,
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[NormalizeFileCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &NormalizeFileHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[NormalizeFileCommand].
func (h *NormalizeFileHandler) Execute(ctx context.Context, msg NormalizeFileCommand) error {
	return h.inner.Execute(ctx, msg)
}
