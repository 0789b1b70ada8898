package logging

import (
	"strings"

	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// RootModule names the top level logger. Every other module logger is a
// dotted child of it.
const RootModule = "fmnorm"

const (
	fieldModule       = "module"
	fieldDocumentPath = "document_path"
	fieldRunID        = "run_id"
	fieldAction       = "action"
)

// ModuleName qualifies name under RootModule: "watch" becomes
// "fmnorm.watch", while "", "fmnorm" and "fmnorm.cli" pass through.
func ModuleName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), ".")
	switch {
	case name == "":
		return RootModule
	case name == RootModule, strings.HasPrefix(name, RootModule+"."):
		return name
	default:
		return RootModule + "." + name
	}
}

// ModuleLogger asks provider for the logger of module and tags it with a
// module field. A nil provider, or one returning nil, yields NoOp.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = ModuleName(module)

	var logger interfaces.Logger
	if provider != nil {
		logger = provider.GetLogger(module)
	}
	return WithFields(Ensure(logger), map[string]any{fieldModule: module})
}

func FrontMatterLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, "frontmatter")
}

func TaxonomyLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, "taxonomy")
}

func StateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, "state")
}

func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, "watch")
}
