package bootstrap

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fmnorm"
	frontmattercmd "github.com/goliatone/go-fmnorm/internal/commands/frontmatter"
	"github.com/goliatone/go-fmnorm/internal/di"
	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/internal/state"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// Options captures configuration for fmnorm CLI bootstraps.
type Options struct {
	// ConfigPath points at an optional YAML config file.
	ConfigPath string
	// ContentDir overrides the configured content root when set.
	ContentDir string
	// Overrides applies command line flags after file and environment layers.
	Overrides []func(*fmnorm.Config)
	// Subscribe attaches the command handlers to the go-command dispatcher.
	Subscribe bool
	// FileResultHook observes files normalized through dispatched commands.
	FileResultHook frontmattercmd.FileResultHook
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the fmnorm module and the pieces the CLI commands use.
type Module struct {
	Module  *fmnorm.Module
	Config  fmnorm.Config
	Service interfaces.FrontMatterService
	Ledger  *state.Ledger
	Logger  interfaces.Logger
}

// Close releases the underlying module when one was built.
func (m *Module) Close() error {
	if m == nil || m.Module == nil {
		return nil
	}
	return m.Module.Close()
}

// BuildModule loads configuration and constructs an fmnorm module.
func BuildModule(opts Options) (*Module, error) {
	cfg, err := ResolveConfig(opts)
	if err != nil {
		return nil, err
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}
	if opts.Subscribe {
		diOpts = append(diOpts, di.WithDispatcherSubscription())
	}
	if opts.FileResultHook != nil {
		diOpts = append(diOpts, di.WithFrontMatterCommandOptions(frontmattercmd.WithFileResultHook(opts.FileResultHook)))
	}

	module, err := fmnorm.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise fmnorm module: %w", err)
	}

	return &Module{
		Module:  module,
		Config:  cfg,
		Service: module.FrontMatter(),
		Ledger:  module.Ledger(),
		Logger:  logging.ModuleLogger(module.LoggerProvider(), "fmnorm.cli"),
	}, nil
}

// ResolveConfig layers defaults, the config file, FMNORM_* variables and
// the command line overrides, in that order.
func ResolveConfig(opts Options) (fmnorm.Config, error) {
	cfg, err := fmnorm.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmnorm.Config{}, err
	}
	for _, apply := range opts.Overrides {
		if apply != nil {
			apply(&cfg)
		}
	}
	if dir := strings.TrimSpace(opts.ContentDir); dir != "" {
		cfg.ContentDir = dir
	}
	return cfg, nil
}
