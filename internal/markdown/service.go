package markdown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/internal/state"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

var (
	ErrFilesFailed    = errors.New("markdown service: one or more files failed")
	ErrPathRequired   = errors.New("markdown service: path required")
	ErrContentDirStat = errors.New("markdown service: content directory unavailable")
)

// Ledger remembers the checksum of the last content written per document.
type Ledger interface {
	Lookup(ctx context.Context, path string) (*state.Entry, error)
	Record(ctx context.Context, entry state.Entry) error
}

// Config controls how the service discovers and normalizes files.
type Config struct {
	ContentDir string
	Pattern    string
	Recursive  bool
	Normalizer Normalizer
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLedger enables checksum based skipping and recording.
func WithLedger(ledger Ledger) ServiceOption {
	return func(s *Service) {
		s.ledger = ledger
	}
}

// WithLogger sets the logger used for per-file events.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logging.Ensure(logger)
	}
}

// Service implements interfaces.FrontMatterService for a content directory on disk.
type Service struct {
	cfg         Config
	fingerprint string
	root        string
	loader *Loader
	ledger Ledger
	logger interfaces.Logger
	newID  func() string
}

var _ interfaces.FrontMatterService = (*Service)(nil)

// NewService constructs a service rooted at cfg.ContentDir.
func NewService(cfg Config, opts ...ServiceOption) (*Service, error) {
	root := strings.TrimSpace(cfg.ContentDir)
	if root == "" {
		root = "."
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContentDirStat, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrContentDirStat, root)
	}

	svc := &Service{
		cfg:         cfg,
		fingerprint: cfg.Normalizer.Fingerprint(),
		root:        root,
		loader: NewLoader(os.DirFS(root), LoaderConfig{
			Pattern:   cfg.Pattern,
			Recursive: cfg.Recursive,
		}),
		logger: logging.NoOp(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Root returns the content directory the service operates on.
func (s *Service) Root() string {
	return s.root
}

// Matches reports whether a path relative to the root is selected by the
// configured pattern.
func (s *Service) Matches(path string) bool {
	return s.loader.Matches(path, "")
}

// NormalizeFile normalizes a single document. The returned error mirrors
// FileResult.Err.
func (s *Service) NormalizeFile(ctx context.Context, path string, opts interfaces.NormalizeOptions) (*interfaces.FileResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = s.newID()
	}
	result := s.processFile(ctx, s.relativePath(path), runID, opts)
	return result, result.Err
}

// NormalizeDirectory normalizes every matching document under dir, one file
// at a time. Failures are collected and processing continues with the next
// file.
func (s *Service) NormalizeDirectory(ctx context.Context, dir string, opts interfaces.NormalizeOptions) (*interfaces.NormalizeResult, error) {
	runID := s.newID()
	ctx = logging.ContextWithRun(ctx, runID)
	result := &interfaces.NormalizeResult{RunID: runID}

	paths, err := s.loader.Discover(ctx, s.relativePath(dir), LoadParams{
		Pattern:   opts.Pattern,
		Recursive: opts.Recursive,
	})
	if err != nil {
		return result, err
	}

	runLogger := s.logger.WithContext(ctx)
	runLogger.Debug("frontmatter.run.started", "directory", s.displayPath(dir), "files", len(paths), "dry_run", opts.DryRun)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Add(s.processFile(ctx, path, runID, opts))
	}

	runLogger.Info("frontmatter.run.completed",
		"normalized", result.Normalized,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"dry_run", opts.DryRun,
	)

	if result.Failed > 0 {
		return result, fmt.Errorf("%w: %d of %d: %w", ErrFilesFailed, result.Failed, len(paths), errors.Join(result.Errors...))
	}
	return result, nil
}

func (s *Service) processFile(ctx context.Context, rel, runID string, opts interfaces.NormalizeOptions) *interfaces.FileResult {
	display := s.displayPath(rel)
	logger := logging.WithDocumentContext(s.logger, display, runID, "normalize")
	result := &interfaces.FileResult{
		RunID:    runID,
		FilePath: display,
		DryRun:   opts.DryRun,
	}

	file, err := s.loader.LoadFile(ctx, rel)
	if err != nil {
		return s.fail(result, logger, err)
	}
	result.Checksum = file.Checksum
	result.LastModified = file.LastModified

	if s.ledger != nil {
		entry, err := s.ledger.Lookup(ctx, file.Path)
		switch {
		case err != nil:
			logger.Warn("frontmatter.ledger.lookup_failed", "error", err)
		case entry != nil && entry.Checksum == s.ledgerChecksum(file.Checksum):
			result.Status = interfaces.FileStatusSkipped
			result.Title = entry.Title
			logger.Debug("frontmatter.file.skipped")
			return result
		}
	}

	outcome, err := s.cfg.Normalizer.Normalize(file.Path, file.Source)
	if err != nil {
		return s.fail(result, logger, err)
	}
	result.Title = outcome.Title
	result.Tags = outcome.Tags
	result.Categories = outcome.Categories
	result.Added = outcome.Added
	result.HadFrontMatter = outcome.HadFrontMatter
	result.Malformed = outcome.Malformed
	result.Warnings = outcome.Warnings

	result.Status = interfaces.FileStatusUnchanged
	if outcome.Changed {
		result.Status = interfaces.FileStatusNormalized
		if !opts.DryRun {
			if err := s.write(file, outcome.Content); err != nil {
				return s.fail(result, logger, err)
			}
			sum := sha256.Sum256(outcome.Content)
			result.Checksum = sum[:]
		}
	}

	for _, warning := range outcome.Warnings {
		logger.Warn("frontmatter.file.warning", "warning", warning)
	}

	if s.ledger != nil && !opts.DryRun {
		if err := s.ledger.Record(ctx, state.Entry{
			Path:     file.Path,
			Checksum: s.ledgerChecksum(result.Checksum),
			Title:    result.Title,
		}); err != nil {
			logger.Warn("frontmatter.ledger.record_failed", "error", err)
		}
	}

	logger.Info("frontmatter.file.normalized",
		"status", string(result.Status),
		"added", result.Added,
		"tags", result.Tags,
		"categories", result.Categories,
		"dry_run", opts.DryRun,
	)
	return result
}

// ledgerChecksum pairs a content checksum with the normalizer fingerprint,
// so recorded files are processed again after a settings change.
func (s *Service) ledgerChecksum(sum []byte) string {
	return hex.EncodeToString(sum) + "+" + s.fingerprint
}

func (s *Service) fail(result *interfaces.FileResult, logger interfaces.Logger, err error) *interfaces.FileResult {
	result.Status = interfaces.FileStatusFailed
	result.Err = fmt.Errorf("frontmatter %s: %w", result.FilePath, err)
	logger.Error("frontmatter.file.failed", "error", err)
	return result
}

func (s *Service) write(file *SourceFile, content []byte) error {
	target := filepath.Join(s.root, filepath.FromSlash(file.Path))
	perm := file.Mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(target, content, perm); err != nil {
		return fmt.Errorf("markdown service write %s: %w", file.Path, err)
	}
	return nil
}

func (s *Service) displayPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func (s *Service) relativePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) {
		base, err := filepath.Abs(s.root)
		if err == nil {
			if rel, err := filepath.Rel(base, clean); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(clean)
}

// RelativePath converts a path on disk into one relative to the content root.
// Paths outside the root are returned unchanged.
func (s *Service) RelativePath(path string) (string, bool) {
	base, err := filepath.Abs(s.root)
	if err != nil {
		return path, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, false
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return path, false
	}
	return filepath.ToSlash(rel), true
}
