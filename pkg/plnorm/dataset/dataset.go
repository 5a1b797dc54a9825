package dataset

import "context"

// Dataset is a tabular store of named text columns.
// Rows are order-preserving and independent of each other.
//
// Column returns a slice owned by the caller. Column replacement is
// whole-column: SetColumn receives a slice of the same length the column
// had before. The pipeline reads and writes columns from one goroutine and
// fans the per-cell work out itself.
type Dataset interface {
	Columns() []string
	Column(ctx context.Context, name string) ([]Cell, error)
	SetColumn(ctx context.Context, name string, cells []Cell) error
}

// Cell is a single text value. A cell with Valid == false is absent
// (a missing value in the source) and carries no text.
type Cell struct {
	Text  string
	Valid bool
}

// Text returns a present cell holding s.
func Text(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// Absent returns a cell with no value.
func Absent() Cell {
	return Cell{}
}

// Texts builds a column of present cells.
func Texts(values ...string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Text(v)
	}
	return cells
}

// Strings returns the text of every cell; absent cells become "".
func Strings(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Text
	}
	return out
}
