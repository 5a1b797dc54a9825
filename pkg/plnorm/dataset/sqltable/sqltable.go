// Package sqltable exposes one SQLite table as a dataset.Dataset.
// SQL NULL is an absent cell. Rows are ordered by rowid.
package sqltable

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

// Table is a dataset backed by an existing SQLite table.
type Table struct {
	db      *sql.DB
	name    string
	columns []string
	ownsDB  bool
}

// Open opens the database at path and binds the named table.
func Open(ctx context.Context, path, table string) (*Table, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	t, err := New(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	t.ownsDB = true
	return t, nil
}

// New binds the named table of an already opened database. The table must
// exist and be a rowid table.
func New(ctx context.Context, db *sql.DB, table string) (*Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("table info %q: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q: %w", table, internalerr.ErrInvalidInput)
	}
	return &Table{db: db, name: table, columns: cols}, nil
}

// Close closes the database if Open created it.
func (t *Table) Close() error {
	if !t.ownsDB {
		return nil
	}
	return t.db.Close()
}

// Columns implements dataset.Dataset.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len(ctx context.Context) (int, error) {
	var n int
	err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(t.name)).Scan(&n)
	return n, err
}

// Column implements dataset.Dataset. Non-text values are read in their
// SQLite text form.
func (t *Table) Column(ctx context.Context, name string) ([]dataset.Cell, error) {
	if !t.has(name) {
		return nil, fmt.Errorf("column %q: %w", name, internalerr.ErrUnknownColumn)
	}

	q := fmt.Sprintf("SELECT CAST(%s AS TEXT) FROM %s ORDER BY rowid", quote(name), quote(t.name))
	rows, err := t.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("read column %q: %w", name, err)
	}
	defer rows.Close()

	var cells []dataset.Cell
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		cells = append(cells, dataset.Cell{Text: v.String, Valid: v.Valid})
	}
	return cells, rows.Err()
}

// SetColumn implements dataset.Dataset. The update runs in one transaction;
// absent cells are written as NULL.
func (t *Table) SetColumn(ctx context.Context, name string, cells []dataset.Cell) error {
	if !t.has(name) {
		return fmt.Errorf("column %q: %w", name, internalerr.ErrUnknownColumn)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids, err := rowIDs(ctx, tx, t.name)
	if err != nil {
		return err
	}
	if len(ids) != len(cells) {
		return fmt.Errorf("column %q: %w: got %d rows, want %d",
			name, internalerr.ErrLengthMismatch, len(cells), len(ids))
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s = ? WHERE rowid = ?", quote(t.name), quote(name)))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range cells {
		v := sql.NullString{String: c.Text, Valid: c.Valid}
		if _, err := stmt.ExecContext(ctx, v, ids[i]); err != nil {
			return fmt.Errorf("update column %q row %d: %w", name, i, err)
		}
	}
	return tx.Commit()
}

func (t *Table) has(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

func rowIDs(ctx context.Context, tx *sql.Tx, table string) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, "SELECT rowid FROM "+quote(table)+" ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// quote returns name as an SQLite identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
