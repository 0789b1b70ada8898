package runtimeconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var ErrContentDirRequired = errors.New("fmnorm config: content directory is required")
var ErrPatternInvalid = errors.New("fmnorm config: discovery pattern is invalid")
var ErrAuthorRequired = errors.New("fmnorm config: default author is required")
var ErrMatchModeInvalid = errors.New("fmnorm config: keyword match mode is invalid")
var ErrStatePathRequired = errors.New("fmnorm config: state path is required when the ledger is enabled")
var ErrWatchDebounceInvalid = errors.New("fmnorm config: watch debounce must be zero or positive")
var ErrWatchRetriesInvalid = errors.New("fmnorm config: watch retries must be zero or positive")
var ErrLoggingProviderRequired = errors.New("fmnorm config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("fmnorm config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("fmnorm config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("fmnorm config: logging format is invalid")

// Config aggregates everything a normalization run needs. Tags drive both
// the YAML config file and FMNORM_* environment overrides.
type Config struct {
	ContentDir  string            `yaml:"content_dir" env:"CONTENT_DIR"`
	Pattern     string            `yaml:"pattern" env:"PATTERN"`
	Recursive   bool              `yaml:"recursive" env:"RECURSIVE"`
	DryRun      bool              `yaml:"dry_run" env:"DRY_RUN"`
	FrontMatter FrontMatterConfig `yaml:"front_matter" envPrefix:"FRONT_MATTER_"`
	State       StateConfig       `yaml:"state" envPrefix:"STATE_"`
	Watch       WatchConfig       `yaml:"watch" envPrefix:"WATCH_"`
	Logging     LoggingConfig     `yaml:"logging" envPrefix:"LOG_"`
}

// FrontMatterConfig controls the merge policy.
type FrontMatterConfig struct {
	// Author is written when a document has no author key.
	Author string `yaml:"author" env:"AUTHOR"`
	// TaxonomyFile points at a YAML keyword table; empty uses the built-in one.
	TaxonomyFile string `yaml:"taxonomy_file" env:"TAXONOMY_FILE"`
	// Match selects keyword matching: "substring" or "word". Empty keeps the
	// taxonomy's own mode, which is substring for the built-in table.
	Match string `yaml:"match" env:"MATCH"`
	// SortKeys re-orders front matter keys alphabetically on rewrite.
	SortKeys bool `yaml:"sort_keys" env:"SORT_KEYS"`
	// NormalizeTags slugifies tag entries.
	NormalizeTags bool `yaml:"normalize_tags" env:"NORMALIZE_TAGS"`
}

// StateConfig configures the SQLite ledger of processed files.
type StateConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
	// Retries is the number of extra attempts for a file that fails to
	// normalize, typically because an editor is still writing it.
	Retries int `yaml:"retries" env:"RETRIES"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider" env:"PROVIDER"`
	Level     string   `yaml:"level" env:"LEVEL"`
	Format    string   `yaml:"format" env:"FORMAT"`
	AddSource bool     `yaml:"add_source" env:"ADD_SOURCE"`
	Focus     []string `yaml:"focus" env:"FOCUS" envSeparator:","`
}

// DefaultConfig walks ./content recursively for *.md files and signs
// documents as Keith Thomson.
func DefaultConfig() Config {
	return Config{
		ContentDir: "content",
		Pattern:    "*.md",
		Recursive:  true,
		FrontMatter: FrontMatterConfig{
			Author: "Keith Thomson",
		},
		State: StateConfig{
			Path: ".fmnorm.db",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
			Retries:  2,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.ContentDir) == "" {
		return ErrContentDirRequired
	}
	if pattern := strings.TrimSpace(cfg.Pattern); pattern != "" {
		if _, err := filepath.Match(pattern, "sample.md"); err != nil {
			return fmt.Errorf("%w: %s", ErrPatternInvalid, pattern)
		}
	}
	if strings.TrimSpace(cfg.FrontMatter.Author) == "" {
		return ErrAuthorRequired
	}
	if !isSupportedMatch(cfg.FrontMatter.Match) {
		return fmt.Errorf("%w: %s", ErrMatchModeInvalid, cfg.FrontMatter.Match)
	}
	if cfg.State.Enabled && strings.TrimSpace(cfg.State.Path) == "" {
		return ErrStatePathRequired
	}
	if cfg.Watch.Debounce < 0 {
		return ErrWatchDebounceInvalid
	}
	if cfg.Watch.Retries < 0 {
		return ErrWatchRetriesInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(provider, format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedMatch(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "substring", "word":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "zap":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(provider, format string) bool {
	format = strings.ToLower(strings.TrimSpace(format))
	switch provider {
	case "gologger":
		return format == "json" || format == "console" || format == "pretty"
	case "zap":
		return format == "json" || format == "console"
	default:
		return format == "console" || format == "logfmt"
	}
}
