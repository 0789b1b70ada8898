// Package fmnorm normalizes the YAML front matter of markdown trees so every
// document carries a title, an author, tags and categories inferred from its
// title.
package fmnorm

import (
	"context"
	"errors"

	"github.com/goliatone/go-command/dispatcher"

	frontmattercmd "github.com/goliatone/go-fmnorm/internal/commands/frontmatter"
	"github.com/goliatone/go-fmnorm/internal/di"
	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/internal/state"
	"github.com/goliatone/go-fmnorm/internal/watch"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// FrontMatterService exports the normalization contract.
type FrontMatterService = interfaces.FrontMatterService

// NormalizeOptions exports the per call options.
type NormalizeOptions = interfaces.NormalizeOptions

// NormalizeResult exports the directory run summary.
type NormalizeResult = interfaces.NormalizeResult

// FileResult exports the per document outcome.
type FileResult = interfaces.FileResult

// Ledger exports the processed file ledger.
type Ledger = state.Ledger

// LedgerEntry exports a single ledger row.
type LedgerEntry = state.Entry

// Watcher exports the debounced content watcher.
type Watcher = watch.Watcher

// NormalizeDirectoryCommand exports the directory command message.
type NormalizeDirectoryCommand = frontmattercmd.NormalizeDirectoryCommand

// NormalizeFileCommand exports the single file command message.
type NormalizeFileCommand = frontmattercmd.NormalizeFileCommand

var ErrWatchUnavailable = errors.New("fmnorm: watching requires the filesystem front matter service")

// Module represents the top level fmnorm runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.container.Config
}

// FrontMatter returns the front matter service.
func (m *Module) FrontMatter() FrontMatterService {
	return m.container.FrontMatterService()
}

// Logger returns the root module logger.
func (m *Module) Logger() interfaces.Logger {
	return logging.ModuleLogger(m.container.LoggerProvider(), "fmnorm")
}

// LoggerProvider returns the configured logger provider.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.container.LoggerProvider()
}

// Ledger returns the processed file ledger, nil unless state is enabled.
func (m *Module) Ledger() *Ledger {
	return m.container.Ledger()
}

// NormalizeDirectory runs the directory command handler, which applies
// feature gates and reports through the configured hooks.
func (m *Module) NormalizeDirectory(ctx context.Context, msg NormalizeDirectoryCommand) error {
	return m.container.Commands().Directory.Execute(ctx, msg)
}

// NormalizeFile runs the file command handler.
func (m *Module) NormalizeFile(ctx context.Context, msg NormalizeFileCommand) error {
	return m.container.Commands().File.Execute(ctx, msg)
}

// NewWatcher builds a watcher over the content directory that hands every
// settled markdown path to handler. A nil handler dispatches a
// NormalizeFileCommand through the go-command dispatcher, which requires the
// module to be built with di.WithDispatcherSubscription.
func (m *Module) NewWatcher(handler watch.Handler) (*Watcher, error) {
	svc := m.container.MarkdownService()
	if svc == nil {
		return nil, ErrWatchUnavailable
	}
	if handler == nil {
		handler = func(ctx context.Context, path string) error {
			return dispatcher.Dispatch(ctx, NormalizeFileCommand{Path: path})
		}
	}
	return watch.New(watch.Config{
		Root:     svc.Root(),
		Debounce: m.container.Config.Watch.Debounce,
		Match:    svc.Matches,
		Handler:  handler,
		Logger:   logging.WatchLogger(m.container.LoggerProvider()),
	})
}

// Close releases the ledger and dispatcher subscriptions.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	return m.container.Close()
}
