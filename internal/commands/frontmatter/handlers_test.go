package frontmattercmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

type directoryCall struct {
	directory string
	options   interfaces.NormalizeOptions
}

type fileCall struct {
	path    string
	options interfaces.NormalizeOptions
}

type stubFrontMatterService struct {
	directoryCalls []directoryCall
	fileCalls      []fileCall

	directoryResult *interfaces.NormalizeResult
	fileResult      *interfaces.FileResult

	directoryErr error
	fileErr      error
}

func (s *stubFrontMatterService) NormalizeDirectory(ctx context.Context, dir string, opts interfaces.NormalizeOptions) (*interfaces.NormalizeResult, error) {
	s.directoryCalls = append(s.directoryCalls, directoryCall{directory: dir, options: opts})
	return s.directoryResult, s.directoryErr
}

func (s *stubFrontMatterService) NormalizeFile(ctx context.Context, path string, opts interfaces.NormalizeOptions) (*interfaces.FileResult, error) {
	s.fileCalls = append(s.fileCalls, fileCall{path: path, options: opts})
	return s.fileResult, s.fileErr
}

type captureLogger struct {
	fields        []map[string]any
	infoMessages  []string
	errorMessages []string
}

var _ interfaces.Logger = (*captureLogger)(nil)

func (c *captureLogger) Trace(string, ...any) {}
func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(msg string, _ ...any) {
	c.infoMessages = append(c.infoMessages, msg)
}
func (c *captureLogger) Warn(string, ...any) {}
func (c *captureLogger) Error(msg string, _ ...any) {
	c.errorMessages = append(c.errorMessages, msg)
}
func (c *captureLogger) Fatal(string, ...any) {}

func (c *captureLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	c.fields = append(c.fields, copied)
	return c
}

func (c *captureLogger) WithContext(context.Context) interfaces.Logger {
	return c
}

func (c *captureLogger) hasInfo(msg string) bool {
	for _, entry := range c.infoMessages {
		if entry == msg {
			return true
		}
	}
	return false
}

func TestNormalizeDirectoryHandlerInvokesService(t *testing.T) {
	service := &stubFrontMatterService{
		directoryResult: &interfaces.NormalizeResult{RunID: "run-1", Normalized: 2, Unchanged: 3},
	}
	logger := &captureLogger{}

	var hooked *interfaces.NormalizeResult
	handler := NewNormalizeDirectoryHandler(service, logger, FeatureGates{}, func(_ context.Context, msg NormalizeDirectoryCommand, result *interfaces.NormalizeResult) {
		hooked = result
	})

	err := handler.Execute(context.Background(), NormalizeDirectoryCommand{Directory: "posts", Pattern: "*.md"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(service.directoryCalls) != 1 {
		t.Fatalf("expected one service call, got %d", len(service.directoryCalls))
	}
	call := service.directoryCalls[0]
	if call.directory != "posts" || call.options.Pattern != "*.md" || call.options.DryRun {
		t.Fatalf("unexpected service call %+v", call)
	}
	if hooked == nil || hooked.RunID != "run-1" {
		t.Fatalf("expected hook to receive result, got %+v", hooked)
	}
	if !logger.hasInfo("frontmatter.command.normalize_directory.completed") {
		t.Fatalf("expected completion log, got %v", logger.infoMessages)
	}
	if !logger.hasInfo("command.execute.success") {
		t.Fatalf("expected telemetry success log, got %v", logger.infoMessages)
	}

	var sawCounts bool
	for _, fields := range logger.fields {
		if fields["normalized_count"] == 2 && fields["unchanged_count"] == 3 {
			sawCounts = true
		}
	}
	if !sawCounts {
		t.Fatalf("expected count fields, got %v", logger.fields)
	}
}

func TestNormalizeDirectoryHandlerForcesDryRunWhenWritesDisabled(t *testing.T) {
	service := &stubFrontMatterService{directoryResult: &interfaces.NormalizeResult{}}
	handler := NewNormalizeDirectoryHandler(service, nil, FeatureGates{
		WritesEnabled: func() bool { return false },
	}, nil)

	if err := handler.Execute(context.Background(), NormalizeDirectoryCommand{Directory: "."}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !service.directoryCalls[0].options.DryRun {
		t.Fatal("expected dry run when writes are disabled")
	}
}

func TestNormalizeDirectoryHandlerReportsPartialFailures(t *testing.T) {
	failure := errors.New("2 files failed")
	service := &stubFrontMatterService{
		directoryResult: &interfaces.NormalizeResult{Failed: 2},
		directoryErr:    failure,
	}
	logger := &captureLogger{}

	hookCalled := false
	handler := NewNormalizeDirectoryHandler(service, logger, FeatureGates{}, func(context.Context, NormalizeDirectoryCommand, *interfaces.NormalizeResult) {
		hookCalled = true
	})

	err := handler.Execute(context.Background(), NormalizeDirectoryCommand{Directory: "."})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped service error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !hookCalled {
		t.Fatal("expected hook to see the partial result")
	}
	if len(logger.errorMessages) == 0 {
		t.Fatal("expected failure to be logged")
	}
}

func TestNormalizeDirectoryHandlerValidationError(t *testing.T) {
	service := &stubFrontMatterService{}
	handler := NewNormalizeDirectoryHandler(service, nil, FeatureGates{}, nil)

	err := handler.Execute(context.Background(), NormalizeDirectoryCommand{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.directoryCalls) != 0 {
		t.Fatal("expected service not to be called")
	}
}

func TestNormalizeFileHandlerInvokesService(t *testing.T) {
	service := &stubFrontMatterService{
		fileResult: &interfaces.FileResult{FilePath: "content/posts/go.md", Status: interfaces.FileStatusNormalized},
	}

	var hooked *interfaces.FileResult
	handler := NewNormalizeFileHandler(service, &captureLogger{}, FeatureGates{}, func(_ context.Context, _ NormalizeFileCommand, result *interfaces.FileResult) {
		hooked = result
	})

	if err := handler.Execute(context.Background(), NormalizeFileCommand{Path: "posts/go.md", DryRun: true}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(service.fileCalls) != 1 || service.fileCalls[0].path != "posts/go.md" || !service.fileCalls[0].options.DryRun {
		t.Fatalf("unexpected service calls %+v", service.fileCalls)
	}
	if hooked == nil || !hooked.Changed() {
		t.Fatalf("expected hook with changed result, got %+v", hooked)
	}
}

func TestNormalizeFileHandlerRejectsNonMarkdown(t *testing.T) {
	service := &stubFrontMatterService{}
	handler := NewNormalizeFileHandler(service, nil, FeatureGates{}, nil)

	err := handler.Execute(context.Background(), NormalizeFileCommand{Path: "notes.txt"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.fileCalls) != 0 {
		t.Fatal("expected service not to be called")
	}
}
