// Package state records which documents have already been normalized so
// repeated runs can skip files whose content has not changed since.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var (
	ErrLedgerUnavailable = errors.New("state: ledger requires a database")
	ErrPathRequired      = errors.New("state: document path required")
	ErrDSNRequired       = errors.New("state: dsn required")
)

// Entry describes the last recorded normalization of a document.
type Entry struct {
	Path         string
	Checksum     string
	Title        string
	NormalizedAt time.Time
}

// Ledger persists entries in a SQLite database through bun.
type Ledger struct {
	db  *bun.DB
	now func() time.Time
}

// Open connects to the SQLite database described by dsn and ensures the
// ledger table exists. A bare file path is a valid dsn.
func Open(ctx context.Context, dsn string) (*Ledger, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrDSNRequired
	}
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", dsn, err)
	}
	sqldb.SetMaxOpenConns(1)

	ledger := NewLedger(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := ledger.ensureSchema(ctx); err != nil {
		_ = ledger.Close()
		return nil, err
	}
	return ledger, nil
}

// NewLedger wraps an existing bun database. Callers own schema creation
// unless they go through Open.
func NewLedger(db *bun.DB) *Ledger {
	return &Ledger{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Lookup returns the entry recorded for path, or nil when none exists.
func (l *Ledger) Lookup(ctx context.Context, path string) (*Entry, error) {
	if l == nil || l.db == nil {
		return nil, ErrLedgerUnavailable
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	var model documentModel
	err := l.db.NewSelect().Model(&model).Where("path = ?", trimmed).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("state: lookup %s: %w", trimmed, err)
	}
	entry := modelToEntry(&model)
	return &entry, nil
}

// Record upserts the entry for entry.Path in a single statement. A zero
// NormalizedAt is stamped with the current time.
func (l *Ledger) Record(ctx context.Context, entry Entry) error {
	if l == nil || l.db == nil {
		return ErrLedgerUnavailable
	}
	entry.Path = strings.TrimSpace(entry.Path)
	if entry.Path == "" {
		return ErrPathRequired
	}
	if entry.NormalizedAt.IsZero() {
		entry.NormalizedAt = l.now()
	}

	model := modelFromEntry(entry)
	if _, err := l.db.NewInsert().
		Model(&model).
		On("CONFLICT (path) DO UPDATE").
		Set("checksum = EXCLUDED.checksum").
		Set("title = EXCLUDED.title").
		Set("normalized_at = EXCLUDED.normalized_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("state: record %s: %w", entry.Path, err)
	}
	return nil
}

// List returns every entry ordered by path.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	if l == nil || l.db == nil {
		return nil, ErrLedgerUnavailable
	}
	var models []documentModel
	if err := l.db.NewSelect().Model(&models).Order("path ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("state: list: %w", err)
	}
	out := make([]Entry, len(models))
	for i := range models {
		out[i] = modelToEntry(&models[i])
	}
	return out, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) ensureSchema(ctx context.Context) error {
	if _, err := l.db.NewCreateTable().Model((*documentModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("state: create table: %w", err)
	}
	return nil
}

type documentModel struct {
	bun.BaseModel `bun:"table:normalized_documents"`

	Path         string    `bun:"path,pk"`
	Checksum     string    `bun:"checksum,notnull"`
	Title        string    `bun:"title"`
	NormalizedAt time.Time `bun:"normalized_at,notnull"`
}

func modelFromEntry(entry Entry) documentModel {
	return documentModel{
		Path:         entry.Path,
		Checksum:     entry.Checksum,
		Title:        entry.Title,
		NormalizedAt: entry.NormalizedAt.UTC(),
	}
}

func modelToEntry(model *documentModel) Entry {
	if model == nil {
		return Entry{}
	}
	return Entry{
		Path:         model.Path,
		Checksum:     model.Checksum,
		Title:        model.Title,
		NormalizedAt: model.NormalizedAt.UTC(),
	}
}
