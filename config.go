package fmnorm

import "github.com/goliatone/go-fmnorm/internal/runtimeconfig"

var (
	ErrContentDirRequired      = runtimeconfig.ErrContentDirRequired
	ErrPatternInvalid          = runtimeconfig.ErrPatternInvalid
	ErrAuthorRequired          = runtimeconfig.ErrAuthorRequired
	ErrMatchModeInvalid        = runtimeconfig.ErrMatchModeInvalid
	ErrStatePathRequired       = runtimeconfig.ErrStatePathRequired
	ErrWatchDebounceInvalid    = runtimeconfig.ErrWatchDebounceInvalid
	ErrWatchRetriesInvalid     = runtimeconfig.ErrWatchRetriesInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config            = runtimeconfig.Config
	FrontMatterConfig = runtimeconfig.FrontMatterConfig
	StateConfig       = runtimeconfig.StateConfig
	WatchConfig       = runtimeconfig.WatchConfig
	LoggingConfig     = runtimeconfig.LoggingConfig
)

// DefaultConfig returns the defaults used by the fmnorm CLI.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig layers an optional YAML file and FMNORM_* variables over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
