package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	frontmattercmd "github.com/goliatone/go-fmnorm/internal/commands/frontmatter"
	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/internal/logging/console"
	"github.com/goliatone/go-fmnorm/internal/logging/gologger"
	"github.com/goliatone/go-fmnorm/internal/logging/zaplogger"
	"github.com/goliatone/go-fmnorm/internal/markdown"
	"github.com/goliatone/go-fmnorm/internal/runtimeconfig"
	"github.com/goliatone/go-fmnorm/internal/state"
	"github.com/goliatone/go-fmnorm/internal/taxonomy"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// Option mutates the container before services are built.
type Option func(*Container)

// Container wires configuration, logging, the ledger and the front matter
// service together.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logWriter      io.Writer

	taxonomy    *taxonomy.Taxonomy
	ledger      *state.Ledger
	ownsLedger  bool
	service     *markdown.Service
	frontMatter interfaces.FrontMatterService

	registry      frontmattercmd.CommandRegistry
	gates         frontmattercmd.FeatureGates
	commandOpts   []frontmattercmd.Option
	handlers      *frontmattercmd.HandlerSet
	subscribe     bool
	unsubscribers []func()
}

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithLogWriter redirects console and zap output, mostly for tests.
func WithLogWriter(w io.Writer) Option {
	return func(c *Container) {
		c.logWriter = w
	}
}

// WithTaxonomy replaces the built-in or file based keyword table.
func WithTaxonomy(t taxonomy.Taxonomy) Option {
	return func(c *Container) {
		c.taxonomy = &t
	}
}

// WithLedger injects an already opened ledger. The container will not close it.
func WithLedger(ledger *state.Ledger) Option {
	return func(c *Container) {
		c.ledger = ledger
	}
}

// WithFrontMatterService swaps the filesystem backed service used by the
// command handlers.
func WithFrontMatterService(svc interfaces.FrontMatterService) Option {
	return func(c *Container) {
		c.frontMatter = svc
	}
}

// WithCommandRegistry registers the front matter handlers with reg.
func WithCommandRegistry(reg frontmattercmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// WithFeatureGates sets the gates consulted by the command handlers.
func WithFeatureGates(gates frontmattercmd.FeatureGates) Option {
	return func(c *Container) {
		c.gates = gates
	}
}

// WithFrontMatterCommandOptions forwards options to the command registration.
func WithFrontMatterCommandOptions(opts ...frontmattercmd.Option) Option {
	return func(c *Container) {
		c.commandOpts = append(c.commandOpts, opts...)
	}
}

// WithDispatcherSubscription subscribes the handlers to the go-command
// dispatcher so messages can be sent with dispatcher.Dispatch. Subscriptions
// are removed by Close.
func WithDispatcherSubscription() Option {
	return func(c *Container) {
		c.subscribe = true
	}
}

// NewContainer validates cfg and builds every service it describes.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureTaxonomy(); err != nil {
		return nil, err
	}
	if err := c.configureLedger(); err != nil {
		return nil, err
	}
	if err := c.configureFrontMatter(); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.configureCommands(); err != nil {
		_ = c.Close()
		return nil, err
	}

	logging.ModuleLogger(c.loggerProvider, "fmnorm").Debug("container.configured",
		"content_dir", cfg.ContentDir,
		"pattern", cfg.Pattern,
		"recursive", cfg.Recursive,
		"ledger", c.ledger != nil,
		"subscribed", c.subscribe,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}

	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	case "zap":
		provider, err := zaplogger.NewProvider(zaplogger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Writer:    c.logWriter,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		provider, err := console.NewProvider(console.Options{
			Writer: c.logWriter,
			Level:  logCfg.Level,
			Format: console.Format(logCfg.Format),
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	return nil
}

func (c *Container) configureTaxonomy() error {
	logger := logging.TaxonomyLogger(c.loggerProvider)
	source := "injected"

	if c.taxonomy == nil {
		var table taxonomy.Taxonomy
		if path := strings.TrimSpace(c.Config.FrontMatter.TaxonomyFile); path != "" {
			loaded, err := taxonomy.Load(path)
			if err != nil {
				logger.Error("taxonomy.load.failed", "path", path, "error", err)
				return err
			}
			table = loaded
			source = path
		} else {
			table = taxonomy.Default()
			source = "builtin"
		}
		c.taxonomy = &table
	}

	// An explicit match setting overrides the mode carried by the table.
	if match := strings.TrimSpace(c.Config.FrontMatter.Match); match != "" {
		mode, err := taxonomy.ParseMatchMode(match)
		if err != nil {
			return err
		}
		configured := c.taxonomy.WithMatch(mode)
		c.taxonomy = &configured
	}

	logger.Debug("taxonomy.configured",
		"source", source,
		"rules", len(c.taxonomy.Rules),
		"match", string(c.taxonomy.Match),
	)
	return nil
}

func (c *Container) configureLedger() error {
	if c.ledger != nil || !c.Config.State.Enabled {
		return nil
	}
	ledger, err := state.Open(context.Background(), c.Config.State.Path)
	if err != nil {
		logging.StateLogger(c.loggerProvider).Error("state.open.failed",
			"path", c.Config.State.Path,
			"error", err,
		)
		return err
	}
	c.ledger = ledger
	c.ownsLedger = true
	logging.StateLogger(c.loggerProvider).Debug("state.opened", "path", c.Config.State.Path)
	return nil
}

func (c *Container) configureFrontMatter() error {
	if c.frontMatter != nil {
		return nil
	}

	opts := []markdown.ServiceOption{
		markdown.WithLogger(logging.FrontMatterLogger(c.loggerProvider)),
	}
	if c.ledger != nil {
		opts = append(opts, markdown.WithLedger(c.ledger))
	}

	svc, err := markdown.NewService(markdown.Config{
		ContentDir: c.Config.ContentDir,
		Pattern:    c.Config.Pattern,
		Recursive:  c.Config.Recursive,
		Normalizer: markdown.Normalizer{
			Taxonomy:      *c.taxonomy,
			Author:        c.Config.FrontMatter.Author,
			SortKeys:      c.Config.FrontMatter.SortKeys,
			NormalizeTags: c.Config.FrontMatter.NormalizeTags,
		},
	}, opts...)
	if err != nil {
		return err
	}
	c.service = svc
	c.frontMatter = svc
	return nil
}

func (c *Container) configureCommands() error {
	handlers, err := frontmattercmd.RegisterFrontMatterCommands(c.registry, c.frontMatter, c.loggerProvider, c.gates, c.commandOpts...)
	if err != nil {
		return fmt.Errorf("register front matter commands: %w", err)
	}
	c.handlers = handlers
	if c.subscribe {
		c.unsubscribers = append(c.unsubscribers, handlers.Subscribe(c.Config.Watch.Retries))
	}
	return nil
}

// LoggerProvider returns the configured provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Taxonomy returns the keyword table in effect.
func (c *Container) Taxonomy() taxonomy.Taxonomy {
	if c.taxonomy == nil {
		return taxonomy.Default()
	}
	return *c.taxonomy
}

// FrontMatterService returns the normalization service.
func (c *Container) FrontMatterService() interfaces.FrontMatterService {
	return c.frontMatter
}

// MarkdownService returns the filesystem service, or nil when one was injected
// through WithFrontMatterService.
func (c *Container) MarkdownService() *markdown.Service {
	return c.service
}

// Ledger returns the processed file ledger, nil when state is disabled.
func (c *Container) Ledger() *state.Ledger {
	return c.ledger
}

// Commands returns the front matter command handlers.
func (c *Container) Commands() *frontmattercmd.HandlerSet {
	return c.handlers
}

// Close removes dispatcher subscriptions and closes the ledger when the
// container opened it.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	for _, unsubscribe := range c.unsubscribers {
		unsubscribe()
	}
	c.unsubscribers = nil

	var errs []error
	if c.ownsLedger && c.ledger != nil {
		if err := c.ledger.Close(); err != nil {
			errs = append(errs, err)
		}
		c.ledger = nil
		c.ownsLedger = false
	}
	if syncer, ok := c.loggerProvider.(interface{ Sync() error }); ok {
		// zap returns EINVAL when syncing stderr on some platforms.
		_ = syncer.Sync()
	}
	return errors.Join(errs...)
}
