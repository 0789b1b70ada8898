package frontmattercmd

import (
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	normalizeDirectoryMessageType = "fmnorm.frontmatter.normalize_directory"
	normalizeFileMessageType      = "fmnorm.frontmatter.normalize_file"
)

// NormalizeDirectoryCommand normalizes every matching markdown document
// under Directory, relative to the configured content root.
type NormalizeDirectoryCommand struct {
	// Directory selects the sub-tree to process; "." is the content root.
	Directory string `json:"directory"`
	// Pattern overrides the configured glob for this run.
	Pattern string `json:"pattern,omitempty"`
	// DryRun reports what would change without writing.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (NormalizeDirectoryCommand) Type() string { return normalizeDirectoryMessageType }

// Validate ensures directory input is present and the pattern is a valid glob.
func (cmd NormalizeDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("fmnorm.frontmatter.normalize_directory.directory_required", "directory is required")
			}
			return nil
		})),
		validation.Field(&cmd.Pattern, validation.By(func(value any) error {
			pattern := strings.TrimSpace(value.(string))
			if pattern == "" {
				return nil
			}
			if _, err := filepath.Match(pattern, ""); err != nil {
				return validation.NewError("fmnorm.frontmatter.normalize_directory.pattern_invalid", "pattern is not a valid glob")
			}
			return nil
		})),
	)
}

// NormalizeFileCommand normalizes a single markdown document.
type NormalizeFileCommand struct {
	// Path is relative to the content root, or absolute inside it.
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (NormalizeFileCommand) Type() string { return normalizeFileMessageType }

// Validate ensures a markdown path is supplied.
func (cmd NormalizeFileCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(func(value any) error {
			path := strings.TrimSpace(value.(string))
			if path == "" {
				return validation.NewError("fmnorm.frontmatter.normalize_file.path_required", "path is required")
			}
			if !strings.HasSuffix(strings.ToLower(path), ".md") {
				return validation.NewError("fmnorm.frontmatter.normalize_file.path_extension", "path must reference a .md file")
			}
			return nil
		})),
	)
}
