package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/internal/logging/console"
)

var fixedClock = func() time.Time {
	return time.Date(2024, 3, 14, 15, 9, 26, 535897000, time.UTC)
}

func TestColumnsFormatPrintsLoggerColumn(t *testing.T) {
	var buf bytes.Buffer
	provider, err := console.NewProvider(console.Options{Writer: &buf, Clock: fixedClock, Level: "debug"})
	require.NoError(t, err)

	logger := logging.FrontMatterLogger(provider)
	ctx := logging.ContextWithRun(context.Background(), "run-1234")
	logger.WithContext(ctx).Info("frontmatter.file.normalized",
		"document_path", "posts/go_tips.md",
		"tags", []string{"go", "golang"},
	)

	want := "15:09:26 INFO  fmnorm.frontmatter frontmatter.file.normalized document_path=posts/go_tips.md run_id=run-1234 tags=go,golang\n"
	require.Equal(t, want, buf.String())
}

func TestLogfmtFormatQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	provider, err := console.NewProvider(console.Options{Writer: &buf, Clock: fixedClock, Format: console.FormatLogfmt})
	require.NoError(t, err)

	provider.GetLogger("fmnorm.state").Error("state.record.failed", "error", errors.New("disk full"), "dangling")

	want := `ts=2024-03-14T15:09:26.535897Z level=error logger=fmnorm.state msg=state.record.failed arg_2=dangling error="disk full"` + "\n"
	require.Equal(t, want, buf.String())
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	provider, err := console.NewProvider(console.Options{Writer: &buf, Level: "warning"})
	require.NoError(t, err)

	logger := provider.GetLogger("fmnorm.watch")
	logger.Info("watch.event", "path", "a.md")
	logger.Warn("watch.dispatch_failed", "path", "a.md")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "WARN  fmnorm.watch watch.dispatch_failed path=a.md")
}

func TestNewProviderRejectsUnknownSettings(t *testing.T) {
	_, err := console.NewProvider(console.Options{Level: "verbose"})
	require.Error(t, err)

	_, err = console.NewProvider(console.Options{Format: "json"})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]console.Level{
		"trace":   console.LevelTrace,
		"DEBUG":   console.LevelDebug,
		"":        console.LevelInfo,
		"warning": console.LevelWarn,
		" error ": console.LevelError,
		"fatal":   console.LevelFatal,
	}
	for input, want := range cases {
		got, ok := console.ParseLevel(input)
		require.True(t, ok, input)
		require.Equal(t, want, got, input)
	}
	_, ok := console.ParseLevel("verbose")
	require.False(t, ok)
}
