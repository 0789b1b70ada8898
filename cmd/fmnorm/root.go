package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-fmnorm"
	"github.com/goliatone/go-fmnorm/cmd/fmnorm/internal/bootstrap"
	"github.com/goliatone/go-fmnorm/internal/commands"
	frontmattercmd "github.com/goliatone/go-fmnorm/internal/commands/frontmatter"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

var errChangesPending = errors.New("front matter changes pending")

type globalFlags struct {
	configPath    string
	contentDir    string
	pattern       string
	recursive     bool
	author        string
	taxonomy      string
	match         string
	sortKeys      bool
	normalizeTags bool
	statePath     string
	logLevel      string
	logFormat     string
	logProvider   string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "fmnorm [dir]",
		Short: "Normalize YAML front matter across a markdown tree",
		Long: `fmnorm makes sure every markdown document carries a title, an author,
tags and categories. Missing values are inferred from the document title
and merged into whatever front matter already exists.

Run without a subcommand to normalize the content directory once.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, flags, args, false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&flags.contentDir, "content-dir", "content", "Markdown content root")
	pf.StringVar(&flags.pattern, "pattern", "*.md", "Glob applied to file names during discovery")
	pf.BoolVar(&flags.recursive, "recursive", true, "Descend into subdirectories")
	pf.StringVar(&flags.author, "author", "", "Author written when a document has none")
	pf.StringVar(&flags.taxonomy, "taxonomy", "", "YAML keyword table replacing the built-in one")
	pf.StringVar(&flags.match, "match", "", "Keyword matching mode: substring or word (default: the taxonomy's mode)")
	pf.BoolVar(&flags.sortKeys, "sort-keys", false, "Sort front matter keys on rewrite")
	pf.BoolVar(&flags.normalizeTags, "normalize-tags", false, "Slugify tag values")
	pf.StringVar(&flags.statePath, "state", "", "SQLite ledger path; enables checksum based skipping")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format for the selected provider")
	pf.StringVar(&flags.logProvider, "log-provider", "console", "Logger provider: console, gologger or zap")

	root.AddCommand(
		newRunCommand(flags),
		newCheckCommand(flags),
		newWatchCommand(flags),
		newLedgerCommand(flags),
	)
	return root
}

// options turns the flags that were explicitly set into config overrides so
// file and environment values are not clobbered by flag defaults.
func (f *globalFlags) options(cmd *cobra.Command, args []string) bootstrap.Options {
	set := cmd.Flags().Changed
	var overrides []func(*fmnorm.Config)
	add := func(name string, apply func(*fmnorm.Config)) {
		if set(name) {
			overrides = append(overrides, apply)
		}
	}

	add("content-dir", func(c *fmnorm.Config) { c.ContentDir = f.contentDir })
	add("pattern", func(c *fmnorm.Config) { c.Pattern = f.pattern })
	add("recursive", func(c *fmnorm.Config) { c.Recursive = f.recursive })
	add("author", func(c *fmnorm.Config) { c.FrontMatter.Author = f.author })
	add("taxonomy", func(c *fmnorm.Config) { c.FrontMatter.TaxonomyFile = f.taxonomy })
	add("match", func(c *fmnorm.Config) { c.FrontMatter.Match = f.match })
	add("sort-keys", func(c *fmnorm.Config) { c.FrontMatter.SortKeys = f.sortKeys })
	add("normalize-tags", func(c *fmnorm.Config) { c.FrontMatter.NormalizeTags = f.normalizeTags })
	add("state", func(c *fmnorm.Config) {
		c.State.Path = f.statePath
		c.State.Enabled = strings.TrimSpace(f.statePath) != ""
	})
	add("log-level", func(c *fmnorm.Config) { c.Logging.Level = f.logLevel })
	add("log-format", func(c *fmnorm.Config) { c.Logging.Format = f.logFormat })
	add("log-provider", func(c *fmnorm.Config) { c.Logging.Provider = f.logProvider })

	opts := bootstrap.Options{
		ConfigPath: f.configPath,
		Overrides:  overrides,
	}
	if len(args) > 0 {
		opts.ContentDir = args[0]
	}
	return opts
}

func runNormalize(cmd *cobra.Command, flags *globalFlags, args []string, check bool) error {
	module, err := moduleBuilder(flags.options(cmd, args))
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Service == nil {
		return fmt.Errorf("front matter service not configured")
	}
	defer module.Close()

	dryRun := check || module.Config.DryRun
	result, err := normalizeTree(commandContext(cmd), module, dryRun)
	if result != nil {
		printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, dryRun)
	}
	switch {
	case err == nil:
	case commands.IsInterrupted(err):
		return fmt.Errorf("normalization interrupted: %w", err)
	case commands.IsValidationError(err):
		return fmt.Errorf("invalid normalize command: %w", err)
	default:
		return fmt.Errorf("execute normalize command: %w", err)
	}
	if check && result != nil && result.Normalized > 0 {
		return errChangesPending
	}
	return nil
}

func normalizeTree(ctx context.Context, module *bootstrap.Module, dryRun bool) (*interfaces.NormalizeResult, error) {
	var result *interfaces.NormalizeResult
	handler := frontmattercmd.NewNormalizeDirectoryHandler(module.Service, module.Logger, frontmattercmd.FeatureGates{
		WritesEnabled: func() bool { return !dryRun },
	}, func(_ context.Context, _ frontmattercmd.NormalizeDirectoryCommand, r *interfaces.NormalizeResult) {
		result = r
	})

	err := handler.Execute(ctx, frontmattercmd.NormalizeDirectoryCommand{
		Directory: ".",
		DryRun:    dryRun,
	})
	return result, err
}

func printResult(stdout, stderr io.Writer, result *interfaces.NormalizeResult, dryRun bool) {
	for _, file := range result.Files {
		switch file.Status {
		case interfaces.FileStatusNormalized:
			printFile(stdout, file, dryRun)
		case interfaces.FileStatusFailed:
			fmt.Fprintf(stderr, "Failed to process %s: %v\n", file.FilePath, file.Err)
		}
		for _, warning := range file.Warnings {
			fmt.Fprintf(stderr, "Warning: %s: %s\n", file.FilePath, warning)
		}
	}
	fmt.Fprintf(stdout, "%d normalized, %d unchanged, %d skipped, %d failed\n",
		result.Normalized, result.Unchanged, result.Skipped, result.Failed)
}

func printFile(w io.Writer, file *interfaces.FileResult, dryRun bool) {
	if file == nil || !file.Changed() {
		return
	}
	if dryRun || file.DryRun {
		fmt.Fprintf(w, "Would update %s\n", file.FilePath)
		return
	}
	fmt.Fprintf(w, "Processed front matter in %s\n", file.FilePath)
}
