package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-fmnorm/internal/logging"
	"github.com/goliatone/go-fmnorm/pkg/interfaces"
)

// Level is the severity of an entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a logging.level value onto a Level. An empty name is INFO.
func ParseLevel(name string) (Level, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "":
		return LevelInfo, true
	case "WARNING":
		return LevelWarn, true
	}
	for i, label := range levelNames {
		if label == name {
			return Level(i), true
		}
	}
	return LevelInfo, false
}

// Format selects how entries are laid out.
type Format string

const (
	// FormatColumns prints "15:04:05 INFO  logger message key=value".
	FormatColumns Format = "console"
	// FormatLogfmt prints every part of the entry as a key=value pair.
	FormatLogfmt Format = "logfmt"
)

// Options configures the provider. Zero values write INFO and above to
// stderr in FormatColumns.
type Options struct {
	Writer     io.Writer
	Clock      func() time.Time
	Level      string
	Format     Format
	TimeLayout string
}

// Provider hands out loggers sharing one writer.
type Provider struct {
	out    io.Writer
	clock  func() time.Time
	min    Level
	format Format
	layout string
	mu     sync.Mutex
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider validates opts and builds a provider.
func NewProvider(opts Options) (*Provider, error) {
	level, ok := ParseLevel(opts.Level)
	if !ok {
		return nil, fmt.Errorf("console logger: unknown level %q", opts.Level)
	}

	p := &Provider{
		out:    opts.Writer,
		clock:  opts.Clock,
		min:    level,
		format: Format(strings.ToLower(strings.TrimSpace(string(opts.Format)))),
		layout: opts.TimeLayout,
	}
	switch p.format {
	case "":
		p.format = FormatColumns
	case FormatColumns, FormatLogfmt:
	default:
		return nil, fmt.Errorf("console logger: unknown format %q", opts.Format)
	}
	if p.out == nil {
		p.out = os.Stderr
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.layout == "" {
		if p.format == FormatLogfmt {
			p.layout = time.RFC3339Nano
		} else {
			p.layout = time.TimeOnly
		}
	}
	return p, nil
}

// GetLogger returns a logger that prints name in the logger column.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	return &logger{provider: p, name: name}
}

type logger struct {
	provider *Provider
	name     string
	fields   map[string]any
	ctx      context.Context
}

var _ interfaces.FieldsLogger = (*logger)(nil)

func (l *logger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *logger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	next := *l
	next.fields = make(map[string]any, len(l.fields)+len(fields))
	maps.Copy(next.fields, l.fields)
	maps.Copy(next.fields, fields)
	return &next
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	next := *l
	next.ctx = ctx
	return &next
}

func (l *logger) write(level Level, msg string, args []any) {
	p := l.provider
	if p == nil || level < p.min {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(args)/2)
	maps.Copy(fields, l.fields)
	maps.Copy(fields, logging.ContextFields(l.ctx))
	collectArgs(fields, args)
	// ModuleLogger repeats the provider name as "module".
	if fields["module"] == l.name {
		delete(fields, "module")
	}

	var b strings.Builder
	ts := p.clock().UTC().Format(p.layout)
	if p.format == FormatLogfmt {
		writePair(&b, "ts", ts)
		writePair(&b, "level", strings.ToLower(level.String()))
		if l.name != "" {
			writePair(&b, "logger", l.name)
		}
		writePair(&b, "msg", msg)
	} else {
		fmt.Fprintf(&b, "%s %-5s ", ts, level)
		if l.name != "" {
			b.WriteString(l.name)
			b.WriteByte(' ')
		}
		b.WriteString(msg)
	}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		writePair(&b, key, render(fields[key]))
	}
	b.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, b.String())
}

// collectArgs folds alternating key/value args into fields. A value without
// a usable key is stored under its position, e.g. arg_2.
func collectArgs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields["arg_"+strconv.Itoa(i)] = args[i]
			return
		}
		if key, ok := args[i].(string); ok && key != "" {
			fields[key] = args[i+1]
			continue
		}
		fields["arg_"+strconv.Itoa(i+1)] = args[i+1]
	}
}

func writePair(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(quote(value))
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
