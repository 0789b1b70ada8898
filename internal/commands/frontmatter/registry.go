package frontmattercmd

import (
	"errors"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-fmnorm/internal/commands"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers produced by RegisterFrontMatterCommands.
type HandlerSet struct {
	Directory *NormalizeDirectoryHandler
	File      *NormalizeFileHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	directoryHook        DirectoryResultHook
	fileHook             FileResultHook
	directoryHandlerOpts []commands.HandlerOption[NormalizeDirectoryCommand]
	fileHandlerOpts      []commands.HandlerOption[NormalizeFileCommand]
}

// WithDirectoryResultHook registers a callback for directory run summaries.
func WithDirectoryResultHook(hook DirectoryResultHook) Option {
	return func(cfg *options) {
		cfg.directoryHook = hook
	}
}

// WithFileResultHook registers a callback for single file outcomes.
func WithFileResultHook(hook FileResultHook) Option {
	return func(cfg *options) {
		cfg.fileHook = hook
	}
}

// WithDirectoryHandlerOptions forwards options to the NormalizeDirectoryHandler constructor.
func WithDirectoryHandlerOptions(opts ...commands.HandlerOption[NormalizeDirectoryCommand]) Option {
	return func(cfg *options) {
		cfg.directoryHandlerOpts = append(cfg.directoryHandlerOpts, opts...)
	}
}

// WithFileHandlerOptions forwards options to the NormalizeFileHandler constructor.
func WithFileHandlerOptions(opts ...commands.HandlerOption[NormalizeFileCommand]) Option {
	return func(cfg *options) {
		cfg.fileHandlerOpts = append(cfg.fileHandlerOpts, opts...)
	}
}

// RegisterFrontMatterCommands builds the front matter handlers and registers them with the
// provided registry when one is supplied.
func RegisterFrontMatterCommands(reg CommandRegistry, service interfaces.FrontMatterService, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("frontmatter command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "frontmatter")

	directoryHandler := NewNormalizeDirectoryHandler(service, logger, gates, cfg.directoryHook, cfg.directoryHandlerOpts...)
	fileHandler := NewNormalizeFileHandler(service, logger, gates, cfg.fileHook, cfg.fileHandlerOpts...)

	if reg != nil {
		if err := reg.RegisterCommand(directoryHandler); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(fileHandler); err != nil {
			return nil, err
		}
	}

	return &HandlerSet{
		Directory: directoryHandler,
		File:      fileHandler,
	}, nil
}

// Subscribe attaches the handlers to the go-command dispatcher. File commands
// get fileRetries extra attempts, which absorbs editors that write a file in
// several steps. The returned function removes both subscriptions.
func (s *HandlerSet) Subscribe(fileRetries int) func() {
	if s == nil {
		return func() {}
	}
	if fileRetries < 0 {
		fileRetries = 0
	}
	directorySub := dispatcher.SubscribeCommand(s.Directory, runner.WithMaxRetries(0))
	fileSub := dispatcher.SubscribeCommand(s.File, runner.WithMaxRetries(fileRetries))
	return func() {
		directorySub.Unsubscribe()
		fileSub.Unsubscribe()
	}
}
