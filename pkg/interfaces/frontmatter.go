package interfaces

import (
	"context"
	"time"
)

// FrontMatterService normalizes the YAML front matter of markdown documents
// so every file carries a title, an author, tags and categories.
type FrontMatterService interface {
	// NormalizeFile processes a single markdown file relative to the content root.
	NormalizeFile(ctx context.Context, path string, opts NormalizeOptions) (*FileResult, error)
	// NormalizeDirectory processes every matching markdown file under dir.
	NormalizeDirectory(ctx context.Context, dir string, opts NormalizeOptions) (*NormalizeResult, error)
}

// NormalizeOptions tweak a single normalization call.
type NormalizeOptions struct {
	// DryRun computes the outcome without touching the filesystem.
	DryRun bool
	// Pattern overrides the configured discovery glob (e.g. "*.md").
	Pattern string
	// Recursive overrides the configured traversal mode when non-nil.
	Recursive *bool
}

// FileStatus describes what happened to a file during a run.
type FileStatus string

const (
	// FileStatusNormalized means the front matter was rewritten (or would be on dry run).
	FileStatusNormalized FileStatus = "normalized"
	// FileStatusUnchanged means the front matter already satisfied the policy.
	FileStatusUnchanged FileStatus = "unchanged"
	// FileStatusSkipped means the ledger reported the file as already processed.
	FileStatusSkipped FileStatus = "skipped"
	// FileStatusFailed means the file could not be read, normalized or written.
	FileStatusFailed FileStatus = "failed"
)

// FileResult reports the outcome for one document.
type FileResult struct {
	RunID          string
	FilePath       string
	Status         FileStatus
	Title          string
	Tags           []string
	Categories     []string
	Added          []string
	HadFrontMatter bool
	Malformed      bool
	Warnings       []string
	DryRun         bool
	Checksum       []byte
	LastModified   time.Time
	Err            error
}

// Changed reports whether the document content differs after normalization.
func (r *FileResult) Changed() bool {
	return r != nil && r.Status == FileStatusNormalized
}

// NormalizeResult summarises a directory run.
type NormalizeResult struct {
	RunID      string
	Files      []*FileResult
	Normalized int
	Unchanged  int
	Skipped    int
	Failed     int
	Errors     []error
}

// Add folds a file result into the summary counters.
func (r *NormalizeResult) Add(file *FileResult) {
	if r == nil || file == nil {
		return
	}
	r.Files = append(r.Files, file)
	switch file.Status {
	case FileStatusNormalized:
		r.Normalized++
	case FileStatusUnchanged:
		r.Unchanged++
	case FileStatusSkipped:
		r.Skipped++
	case FileStatusFailed:
		r.Failed++
		if file.Err != nil {
			r.Errors = append(r.Errors, file.Err)
		}
	}
}

// ChangedFiles lists the paths that were (or would be) rewritten.
func (r *NormalizeResult) ChangedFiles() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, r.Normalized)
	for _, file := range r.Files {
		if file.Changed() {
			out = append(out, file.FilePath)
		}
	}
	return out
}
