package markdown

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/internal/state"
	"github.com/goliatone/go-fmnorm/internal/taxonomy"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

const completeDocument = "---\ntitle: About\nauthor: Jane\ntags:\n  - general\ncategories:\n  - Technology\n---\nAbout page.\n"

func writeFile(t *testing.T, root, rel, content string, mode os.FileMode) {
	t.Helper()
	target := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(target, []byte(content), mode); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func newContentTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "about.md", completeDocument, 0o644)
	writeFile(t, root, "posts/go_tips.md", "# Go Tips\n\nBody\n", 0o600)
	writeFile(t, root, "posts/notes.txt", "# Not markdown\n", 0o644)
	return root
}

func newTestService(t *testing.T, root string, opts ...ServiceOption) *Service {
	t.Helper()
	svc, err := NewService(Config{
		ContentDir: root,
		Pattern:    "*.md",
		Recursive:  true,
		Normalizer: Normalizer{Taxonomy: taxonomy.Default(), Author: DefaultAuthor},
	}, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestServiceNormalizeDirectoryRewritesChangedFiles(t *testing.T) {
	root := newContentTree(t)
	logger := &recordingLogger{}
	svc := newTestService(t, root, WithLogger(logger))

	result, err := svc.NormalizeDirectory(context.Background(), ".", interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("NormalizeDirectory: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 markdown files, got %d", len(result.Files))
	}
	if result.Normalized != 1 || result.Unchanged != 1 || result.Failed != 0 {
		t.Fatalf("unexpected counters %+v", result)
	}

	changed := result.ChangedFiles()
	if len(changed) != 1 || changed[0] != filepath.Join(root, "posts", "go_tips.md") {
		t.Fatalf("unexpected changed files %v", changed)
	}

	content := readFile(t, root, "posts/go_tips.md")
	if !strings.HasPrefix(content, "---\ntitle: Go Tips\n") {
		t.Fatalf("expected front matter to be written, got %q", content)
	}
	if !strings.HasSuffix(content, "---\n# Go Tips\n\nBody\n") {
		t.Fatalf("expected body to be preserved, got %q", content)
	}
	if got := readFile(t, root, "about.md"); got != completeDocument {
		t.Fatalf("expected complete document untouched, got %q", got)
	}
	if got := readFile(t, root, "posts/notes.txt"); got != "# Not markdown\n" {
		t.Fatalf("expected non markdown file untouched, got %q", got)
	}

	info, err := os.Stat(filepath.Join(root, "posts", "go_tips.md"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600 to be preserved, got %v", info.Mode().Perm())
	}

	if !logger.has("frontmatter.file.normalized") || !logger.has("frontmatter.run.completed") {
		t.Fatalf("expected normalization log entries, got %v", logger.messages())
	}
}

func TestServiceDryRunDoesNotWrite(t *testing.T) {
	root := newContentTree(t)
	svc := newTestService(t, root)

	result, err := svc.NormalizeDirectory(context.Background(), "", interfaces.NormalizeOptions{DryRun: true})
	if err != nil {
		t.Fatalf("NormalizeDirectory: %v", err)
	}
	if result.Normalized != 1 {
		t.Fatalf("expected one file reported as normalized, got %+v", result)
	}
	for _, file := range result.Files {
		if !file.DryRun {
			t.Fatalf("expected dry run flag on %s", file.FilePath)
		}
	}
	if got := readFile(t, root, "posts/go_tips.md"); got != "# Go Tips\n\nBody\n" {
		t.Fatalf("dry run modified file: %q", got)
	}
}

func TestServiceNormalizeFile(t *testing.T) {
	root := newContentTree(t)
	svc := newTestService(t, root)

	result, err := svc.NormalizeFile(context.Background(), "posts/go_tips.md", interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("NormalizeFile: %v", err)
	}
	if result.Status != interfaces.FileStatusNormalized {
		t.Fatalf("expected normalized status, got %s", result.Status)
	}
	if result.Title != "Go Tips" {
		t.Fatalf("expected title Go Tips, got %q", result.Title)
	}
	if strings.Join(result.Categories, ",") != "Programming" {
		t.Fatalf("unexpected categories %v", result.Categories)
	}

	abs := filepath.Join(root, "posts", "go_tips.md")
	again, err := svc.NormalizeFile(context.Background(), abs, interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("NormalizeFile absolute: %v", err)
	}
	if again.Status != interfaces.FileStatusUnchanged {
		t.Fatalf("expected second pass to be unchanged, got %s", again.Status)
	}
}

func TestServiceNormalizeFileMissing(t *testing.T) {
	svc := newTestService(t, newContentTree(t))

	result, err := svc.NormalizeFile(context.Background(), "missing.md", interfaces.NormalizeOptions{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if result == nil || result.Status != interfaces.FileStatusFailed {
		t.Fatalf("expected failed result, got %+v", result)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	if _, err := svc.NormalizeFile(context.Background(), " ", interfaces.NormalizeOptions{}); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}

func TestServiceNonRecursiveOverride(t *testing.T) {
	root := newContentTree(t)
	svc := newTestService(t, root)

	no := false
	result, err := svc.NormalizeDirectory(context.Background(), ".", interfaces.NormalizeOptions{Recursive: &no})
	if err != nil {
		t.Fatalf("NormalizeDirectory: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].FilePath != filepath.Join(root, "about.md") {
		t.Fatalf("expected only about.md, got %+v", result.Files)
	}
}

func TestServiceLedgerSkipsProcessedFiles(t *testing.T) {
	root := newContentTree(t)
	ledger := newMemoryLedger()
	svc := newTestService(t, root, WithLedger(ledger))
	ctx := context.Background()

	first, err := svc.NormalizeDirectory(ctx, ".", interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Skipped != 0 || len(ledger.entries) != 2 {
		t.Fatalf("expected both files recorded, got %+v and %d entries", first, len(ledger.entries))
	}

	second, err := svc.NormalizeDirectory(ctx, ".", interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Skipped != 2 {
		t.Fatalf("expected both files skipped, got %+v", second)
	}

	writeFile(t, root, "about.md", "# About Docker\n", 0o644)
	third, err := svc.NormalizeDirectory(ctx, ".", interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Normalized != 1 || third.Skipped != 1 {
		t.Fatalf("expected edited file to be processed again, got %+v", third)
	}
	if ledger.entries["about.md"].Title != "About Docker" {
		t.Fatalf("expected ledger title update, got %+v", ledger.entries["about.md"])
	}
}

func TestServiceLedgerReprocessesAfterSettingsChange(t *testing.T) {
	root := newContentTree(t)
	ledger := newMemoryLedger()
	ctx := context.Background()

	svc := newTestService(t, root, WithLedger(ledger))
	if _, err := svc.NormalizeDirectory(ctx, ".", interfaces.NormalizeOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	tax := taxonomy.Default()
	tax.Rules = append([]taxonomy.Rule{{Keyword: "go", Category: "Languages", Tags: []string{"go"}}}, tax.Rules...)
	changed, err := NewService(Config{
		ContentDir: root,
		Pattern:    "*.md",
		Recursive:  true,
		Normalizer: Normalizer{Taxonomy: tax, Author: DefaultAuthor},
	}, WithLedger(ledger))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := changed.NormalizeDirectory(ctx, ".", interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Skipped != 0 || result.Normalized != 1 || result.Unchanged != 1 {
		t.Fatalf("expected files to be reprocessed under new settings, got %+v", result)
	}
	if !strings.Contains(readFile(t, root, "posts/go_tips.md"), "- Languages") {
		t.Fatalf("expected new category, got:\n%s", readFile(t, root, "posts/go_tips.md"))
	}

	again, err := changed.NormalizeDirectory(ctx, ".", interfaces.NormalizeOptions{})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if again.Skipped != 2 {
		t.Fatalf("expected both files skipped under unchanged settings, got %+v", again)
	}
}

func TestNormalizerFingerprint(t *testing.T) {
	base := Normalizer{Taxonomy: taxonomy.Default(), Author: DefaultAuthor}
	implicit := base
	implicit.Taxonomy.Match = ""
	if base.Fingerprint() == "" || base.Fingerprint() != implicit.Fingerprint() {
		t.Fatalf("expected equal fingerprints for equivalent settings")
	}

	for name, mutate := range map[string]func(*Normalizer){
		"author":   func(n *Normalizer) { n.Author = "Jane" },
		"sort":     func(n *Normalizer) { n.SortKeys = true },
		"slug":     func(n *Normalizer) { n.NormalizeTags = true },
		"match":    func(n *Normalizer) { n.Taxonomy = n.Taxonomy.WithMatch(taxonomy.MatchWord) },
		"defaults": func(n *Normalizer) { n.Taxonomy.DefaultTag = "misc" },
	} {
		other := Normalizer{Taxonomy: taxonomy.Default(), Author: DefaultAuthor}
		mutate(&other)
		if other.Fingerprint() == base.Fingerprint() {
			t.Errorf("%s: expected fingerprint to change", name)
		}
	}
}

func TestServiceDryRunDoesNotRecord(t *testing.T) {
	root := newContentTree(t)
	ledger := newMemoryLedger()
	svc := newTestService(t, root, WithLedger(ledger))

	if _, err := svc.NormalizeDirectory(context.Background(), ".", interfaces.NormalizeOptions{DryRun: true}); err != nil {
		t.Fatalf("NormalizeDirectory: %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Fatalf("expected no ledger entries on dry run, got %d", len(ledger.entries))
	}
}

func TestServiceCancelledContext(t *testing.T) {
	svc := newTestService(t, newContentTree(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.NormalizeDirectory(ctx, ".", interfaces.NormalizeOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceRequiresDirectory(t *testing.T) {
	if _, err := NewService(Config{ContentDir: filepath.Join(t.TempDir(), "missing")}); !errors.Is(err, ErrContentDirStat) {
		t.Fatalf("expected ErrContentDirStat, got %v", err)
	}
}

func TestServiceRelativePath(t *testing.T) {
	root := newContentTree(t)
	svc := newTestService(t, root)

	rel, ok := svc.RelativePath(filepath.Join(root, "posts", "go_tips.md"))
	if !ok || rel != "posts/go_tips.md" {
		t.Fatalf("expected posts/go_tips.md, got %q (%v)", rel, ok)
	}
	if _, ok := svc.RelativePath(filepath.Join(filepath.Dir(root), "elsewhere.md")); ok {
		t.Fatal("expected path outside the root to be rejected")
	}
	if !svc.Matches("posts/go_tips.md") || svc.Matches("posts/notes.txt") {
		t.Fatal("unexpected pattern matching")
	}
}

type memoryLedger struct {
	entries map[string]state.Entry
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: map[string]state.Entry{}}
}

func (l *memoryLedger) Lookup(_ context.Context, path string) (*state.Entry, error) {
	entry, ok := l.entries[path]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (l *memoryLedger) Record(_ context.Context, entry state.Entry) error {
	l.entries[entry.Path] = entry
	return nil
}

func TestServiceNormalizeFileReusesRunIDFromContext(t *testing.T) {
	root := newContentTree(t)
	svc := newTestService(t, root)

	ctx := logging.ContextWithRun(context.Background(), "run-42")
	result, err := svc.NormalizeFile(ctx, "posts/go_tips.md", interfaces.NormalizeOptions{DryRun: true})
	if err != nil {
		t.Fatalf("NormalizeFile: %v", err)
	}
	if result.RunID != "run-42" {
		t.Fatalf("expected context run id, got %q", result.RunID)
	}

	fresh, err := svc.NormalizeFile(context.Background(), "posts/go_tips.md", interfaces.NormalizeOptions{DryRun: true})
	if err != nil {
		t.Fatalf("NormalizeFile: %v", err)
	}
	if fresh.RunID == "" || fresh.RunID == "run-42" {
		t.Fatalf("expected generated run id, got %q", fresh.RunID)
	}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, msg)
}

func (l *recordingLogger) has(msg string) bool {
	for _, entry := range l.messages() {
		if entry == msg {
			return true
		}
	}
	return false
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *recordingLogger) Trace(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Debug(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Fatal(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) WithContext(context.Context) interfaces.Logger {
	return l
}
