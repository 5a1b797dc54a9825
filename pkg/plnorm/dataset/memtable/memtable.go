package memtable

import (
	"context"
	"fmt"
	"sync"

	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

// Table is an in-memory implementation of dataset.Dataset.
type Table struct {
	mu    sync.RWMutex
	order []string
	cols  map[string][]dataset.Cell
	rows  int
}

// New creates an empty table.
func New() *Table {
	return &Table{cols: make(map[string][]dataset.Cell)}
}

// FromColumns builds a table from present-text columns, in the given order.
func FromColumns(names []string, values map[string][]string) (*Table, error) {
	t := New()
	for _, name := range names {
		if err := t.AddColumn(name, dataset.Texts(values[name]...)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a new column. All columns must have the same length.
func (t *Table) AddColumn(name string, cells []dataset.Cell) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.cols[name]; exists {
		return fmt.Errorf("add column %q: %w", name, internalerr.ErrInvalidInput)
	}
	if len(t.order) > 0 && len(cells) != t.rows {
		return fmt.Errorf("add column %q: %w: got %d rows, want %d",
			name, internalerr.ErrLengthMismatch, len(cells), t.rows)
	}
	t.order = append(t.order, name)
	t.cols[name] = copyCells(cells)
	t.rows = len(cells)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows
}

// Columns implements dataset.Dataset.
func (t *Table) Columns() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Column implements dataset.Dataset. The returned slice is a copy.
func (t *Table) Column(ctx context.Context, name string) ([]dataset.Cell, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cells, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, internalerr.ErrUnknownColumn)
	}
	return copyCells(cells), nil
}

// SetColumn implements dataset.Dataset.
func (t *Table) SetColumn(ctx context.Context, name string, cells []dataset.Cell) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.cols[name]; !ok {
		return fmt.Errorf("column %q: %w", name, internalerr.ErrUnknownColumn)
	}
	if len(cells) != t.rows {
		return fmt.Errorf("column %q: %w: got %d rows, want %d",
			name, internalerr.ErrLengthMismatch, len(cells), t.rows)
	}
	t.cols[name] = copyCells(cells)
	return nil
}

func copyCells(cells []dataset.Cell) []dataset.Cell {
	out := make([]dataset.Cell, len(cells))
	copy(out, cells)
	return out
}
