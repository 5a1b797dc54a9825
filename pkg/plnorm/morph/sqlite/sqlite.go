package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
	"github.com/cognicore/plnorm/pkg/plnorm/morph"
)

// Store is a morphological dictionary persisted in SQLite.
// It implements morph.Analyzer and is safe for concurrent queries.
type Store struct {
	db         *sql.DB
	ignUnknown bool
}

// Open opens (or creates) a dictionary database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for concurrent readers
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SetIgnUnknown makes Analyse report unknown words as an "ign" interpretation.
// Call it before sharing the store between goroutines.
func (s *Store) SetIgnUnknown(on bool) {
	s.ignUnknown = on
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS morph_entries (
	form TEXT NOT NULL,
	seq INTEGER NOT NULL,
	lemma TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	PRIMARY KEY(form, seq)
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Analyse implements morph.Analyzer. Interpretations come back in import order.
func (s *Store) Analyse(ctx context.Context, token string) ([]morph.Interpretation, error) {
	orth := norm.NFC.String(token)

	out, err := s.lookup(ctx, orth, orth)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		if lower := strings.ToLower(orth); lower != orth {
			if out, err = s.lookup(ctx, lower, orth); err != nil {
				return nil, err
			}
		}
	}
	if len(out) == 0 && s.ignUnknown {
		return []morph.Interpretation{morph.Ign(orth)}, nil
	}
	return out, nil
}

func (s *Store) lookup(ctx context.Context, form, orth string) ([]morph.Interpretation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lemma, tags FROM morph_entries WHERE form = ? ORDER BY seq`, form)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", form, err)
	}
	defer rows.Close()

	var out []morph.Interpretation
	for rows.Next() {
		in := morph.Interpretation{Start: 0, End: 1, Orth: orth}
		if err := rows.Scan(&in.Lemma, &in.Tags); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Count returns the number of stored interpretations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM morph_entries`).Scan(&n)
	return n, err
}

// Importer appends interpretations inside one transaction.
type Importer struct {
	tx   *sql.Tx
	stmt *sql.Stmt
	n    int64
}

// BeginImport starts a bulk import. Call Commit or Rollback when done.
func (s *Store) BeginImport(ctx context.Context) (*Importer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	const stmt = `
INSERT INTO morph_entries (form, seq, lemma, tags)
SELECT ?, COALESCE(MAX(seq) + 1, 0), ?, ?
FROM morph_entries WHERE form = ?;
`
	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Importer{tx: tx, stmt: prepared}, nil
}

// Add appends one interpretation after any already stored for form.
func (im *Importer) Add(ctx context.Context, form, lemma, tags string) error {
	form = norm.NFC.String(form)
	if _, err := im.stmt.ExecContext(ctx, form, norm.NFC.String(lemma), tags, form); err != nil {
		return fmt.Errorf("insert %q: %w", form, err)
	}
	im.n++
	return nil
}

// Added returns how many interpretations were added so far.
func (im *Importer) Added() int64 { return im.n }

// Commit finishes the import.
func (im *Importer) Commit() error {
	im.stmt.Close()
	return im.tx.Commit()
}

// Rollback abandons the import.
func (im *Importer) Rollback() error {
	im.stmt.Close()
	return im.tx.Rollback()
}

// ImportDictionary copies every interpretation of d into the store.
func (s *Store) ImportDictionary(ctx context.Context, d *morph.Dictionary) (int64, error) {
	im, err := s.BeginImport(ctx)
	if err != nil {
		return 0, err
	}
	err = d.Entries(func(form, lemma, tags string) error {
		return im.Add(ctx, form, lemma, tags)
	})
	if err != nil {
		im.Rollback()
		return 0, err
	}
	return im.Added(), im.Commit()
}

// ImportTSV streams a tab-separated dictionary (form, lemma, tags) into the store
// without holding it in memory.
func (s *Store) ImportTSV(ctx context.Context, r io.Reader) (int64, error) {
	im, err := s.BeginImport(ctx)
	if err != nil {
		return 0, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			im.Rollback()
			return 0, fmt.Errorf("dictionary line %d: %w", lineNo, internalerr.ErrInvalidInput)
		}
		tags := ""
		if len(parts) > 2 {
			tags = parts[2]
		}
		if err := im.Add(ctx, parts[0], parts[1], tags); err != nil {
			im.Rollback()
			return 0, err
		}
	}
	if err := scanner.Err(); err != nil {
		im.Rollback()
		return 0, err
	}
	return im.Added(), im.Commit()
}
