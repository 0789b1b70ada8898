package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-fmnorm/internal/commands"
	frontmattercmd "github.com/goliatone/go-fmnorm/internal/commands/frontmatter"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [dir]",
		Short: "Normalize front matter in every matching document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, flags, args, false)
		},
	}
}

func newCheckCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "List documents whose front matter would change; exit 1 if any",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, flags, args, true)
		},
	}
}

func newWatchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Normalize once, then keep normalizing documents as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags, args)
		},
	}
}

func newLedgerCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "List documents recorded in the state ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(cmd, flags)
		},
	}
}

func runWatch(cmd *cobra.Command, flags *globalFlags, args []string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	opts := flags.options(cmd, args)
	opts.Subscribe = true
	opts.FileResultHook = func(_ context.Context, _ frontmattercmd.NormalizeFileCommand, result *interfaces.FileResult) {
		switch {
		case result == nil:
		case result.Status == interfaces.FileStatusFailed:
			fmt.Fprintf(stderr, "Failed to process %s: %v\n", result.FilePath, result.Err)
		default:
			printFile(stdout, result, false)
		}
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Module == nil {
		return fmt.Errorf("watch mode requires a filesystem backed module")
	}
	defer module.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := normalizeTree(ctx, module, module.Config.DryRun)
	if result != nil {
		printResult(stdout, stderr, result, module.Config.DryRun)
	}
	if err != nil {
		if commands.IsInterrupted(err) {
			return nil
		}
		// Failed files are retried on their next change.
		module.Logger.Warn("fmnorm.watch.initial_run_failed", "error", err)
	}

	watcher, err := module.Module.NewWatcher(nil)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Stop()
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	fmt.Fprintf(stdout, "Watching %s for changes\n", module.Config.ContentDir)

	<-ctx.Done()
	watcher.Stop()

	stats := watcher.Stats()
	module.Logger.Info("fmnorm.watch.stopped",
		"events", stats.Events,
		"dispatched", stats.Dispatched,
		"errors", stats.Errors,
	)
	return nil
}

func runLedger(cmd *cobra.Command, flags *globalFlags) error {
	module, err := moduleBuilder(flags.options(cmd, nil))
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil {
		return fmt.Errorf("module not configured")
	}
	defer module.Close()

	if module.Ledger == nil {
		return fmt.Errorf("state ledger is disabled; pass --state or set state.enabled")
	}

	entries, err := module.Ledger.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list ledger: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, entry := range entries {
		checksum := entry.Checksum
		if len(checksum) > 12 {
			checksum = checksum[:12]
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", entry.Path, checksum, entry.NormalizedAt.Format(time.RFC3339), entry.Title)
	}
	fmt.Fprintf(out, "%d documents recorded\n", len(entries))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
