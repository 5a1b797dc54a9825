// Package csvfile reads and writes datasets as CSV with a header row.
// Empty fields are read as absent cells and absent cells are written as
// empty fields.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
	"github.com/cognicore/plnorm/pkg/plnorm/dataset/memtable"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

// Read parses CSV from r into an in-memory table.
func Read(r io.Reader) (*memtable.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: missing header: %w", internalerr.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w: %w", internalerr.ErrInvalidInput, err)
	}

	cols := make([][]dataset.Cell, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w: %w", internalerr.ErrInvalidInput, err)
		}
		for i, field := range rec {
			if field == "" {
				cols[i] = append(cols[i], dataset.Absent())
			} else {
				cols[i] = append(cols[i], dataset.Text(field))
			}
		}
	}

	tbl := memtable.New()
	for i, name := range header {
		if cols[i] == nil {
			cols[i] = []dataset.Cell{}
		}
		if err := tbl.AddColumn(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// Load reads the CSV file at path.
func Load(path string) (*memtable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Write serialises every column of ds to w, header first.
func Write(ctx context.Context, w io.Writer, ds dataset.Dataset) error {
	names := ds.Columns()
	cols := make([][]dataset.Cell, len(names))
	rows := 0
	for i, name := range names {
		cells, err := ds.Column(ctx, name)
		if err != nil {
			return err
		}
		if i > 0 && len(cells) != rows {
			return fmt.Errorf("column %q: %w", name, internalerr.ErrLengthMismatch)
		}
		cols[i] = cells
		rows = len(cells)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(names); err != nil {
		return err
	}
	rec := make([]string, len(names))
	for r := 0; r < rows; r++ {
		for i := range names {
			rec[i] = cols[i][r].Text
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes ds to the file at path, replacing it.
func Save(ctx context.Context, path string, ds dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Write(ctx, f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
