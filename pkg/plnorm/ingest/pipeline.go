package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

// Toggles enables or disables each stage. Field order is declaration order
// only; stages always run in Order.
type Toggles struct {
	Lowercase         bool
	RemoveMentions    bool
	RemoveHashtags    bool
	RemoveURLs        bool
	RemoveNumbers     bool
	RemoveEmojis      bool
	RemovePunctuation bool
	Lemmatize         bool
	RemoveStopwords   bool
}

// AllStages returns toggles with every stage enabled.
func AllStages() Toggles {
	return Toggles{
		Lowercase:         true,
		RemoveMentions:    true,
		RemoveHashtags:    true,
		RemoveURLs:        true,
		RemoveNumbers:     true,
		RemoveEmojis:      true,
		RemovePunctuation: true,
		Lemmatize:         true,
		RemoveStopwords:   true,
	}
}

// Enabled reports whether stage s is switched on.
func (t Toggles) Enabled(s Stage) bool {
	switch s {
	case StageLowercase:
		return t.Lowercase
	case StageRemoveMentions:
		return t.RemoveMentions
	case StageRemoveHashtags:
		return t.RemoveHashtags
	case StageRemoveURLs:
		return t.RemoveURLs
	case StageRemoveNumbers:
		return t.RemoveNumbers
	case StageRemoveEmojis:
		return t.RemoveEmojis
	case StageRemovePunctuation:
		return t.RemovePunctuation
	case StageLemmatize:
		return t.Lemmatize
	case StageRemoveStopwords:
		return t.RemoveStopwords
	}
	return false
}

// Step is one entry of the declarative stage list.
type Step struct {
	Stage   Stage
	Enabled bool
	Apply   CellFunc
}

// CellFuncFor returns the per-cell transform of a stage.
func CellFuncFor(s Stage, stops StopSet, lem *Lemmatizer) (CellFunc, error) {
	switch s {
	case StageLowercase:
		return infallible(Lowercase), nil
	case StageRemoveMentions:
		return infallible(RemoveMentions), nil
	case StageRemoveHashtags:
		return infallible(RemoveHashtags), nil
	case StageRemoveURLs:
		return infallible(RemoveURLs), nil
	case StageRemoveNumbers:
		return infallible(RemoveNumbers), nil
	case StageRemoveEmojis:
		return infallible(RemoveEmojis), nil
	case StageRemovePunctuation:
		return infallible(RemovePunctuation), nil
	case StageLemmatize:
		if lem == nil {
			return nil, fmt.Errorf("stage %s: no analyser: %w", s, internalerr.ErrConfig)
		}
		return lem.Apply, nil
	case StageRemoveStopwords:
		if stops == nil {
			return nil, fmt.Errorf("stage %s: no stopword set: %w", s, internalerr.ErrConfig)
		}
		return infallible(RemoveStopwords(stops)), nil
	}
	return nil, fmt.Errorf("stage %q: %w", s, internalerr.ErrInvalidInput)
}

// Steps builds the full stage list in canonical order.
func Steps(t Toggles, stops StopSet, lem *Lemmatizer) ([]Step, error) {
	steps := make([]Step, 0, len(Order))
	for _, s := range Order {
		enabled := t.Enabled(s)
		var fn CellFunc
		if enabled {
			var err error
			if fn, err = CellFuncFor(s, stops, lem); err != nil {
				return nil, err
			}
		}
		steps = append(steps, Step{Stage: s, Enabled: enabled, Apply: fn})
	}
	return steps, nil
}

// StageStats describes one executed stage.
type StageStats struct {
	Stage   Stage
	Columns int
	Cells   int
	Absent  int
	Elapsed time.Duration
}

// Pipeline runs a stage list over dataset columns.
//
// Every enabled stage finishes on all rows of all target columns before the
// next one starts. Within a stage, rows are processed concurrently by up to
// Workers goroutines.
type Pipeline struct {
	steps   []Step
	workers int
	logger  *slog.Logger
}

// NewPipeline creates a pipeline. workers <= 0 means GOMAXPROCS; a nil
// logger discards output.
func NewPipeline(steps []Step, workers int, logger *slog.Logger) *Pipeline {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{steps: steps, workers: workers, logger: logger}
}

// Run applies the enabled steps to columns of ds, replacing each column in place.
//
// On failure the returned error is a *internalerr.StageError naming the first
// failing cell in column/row order. Stages before the failing one stay
// applied; no column of the failing stage is written.
func (p *Pipeline) Run(ctx context.Context, ds dataset.Dataset, columns []string) ([]StageStats, error) {
	columns = uniqueColumns(columns)

	var stats []StageStats
	for _, step := range p.steps {
		if !step.Enabled {
			p.logger.Debug("stage skipped", "stage", step.Stage)
			continue
		}
		st, err := p.runStage(ctx, ds, columns, step)
		if err != nil {
			p.logger.Error("stage failed", "stage", step.Stage, "error", err)
			return stats, err
		}
		p.logger.Debug("stage done",
			"stage", st.Stage,
			"columns", st.Columns,
			"cells", st.Cells,
			"absent", st.Absent,
			"elapsed", st.Elapsed,
		)
		stats = append(stats, st)
	}
	return stats, nil
}

type cellFailure struct {
	row int
	err error
}

type chunk struct {
	col, lo, hi int
}

func (p *Pipeline) runStage(ctx context.Context, ds dataset.Dataset, columns []string, step Step) (StageStats, error) {
	start := time.Now()
	st := StageStats{Stage: step.Stage, Columns: len(columns)}

	cols := make([][]dataset.Cell, len(columns))
	for i, name := range columns {
		cells, err := ds.Column(ctx, name)
		if err != nil {
			return st, &internalerr.StageError{Stage: string(step.Stage), Column: name, Row: -1, Err: err}
		}
		cols[i] = cells
		for _, c := range cells {
			if c.Valid {
				st.Cells++
			} else {
				st.Absent++
			}
		}
	}

	chunks := p.split(cols)
	failures := make([]*cellFailure, len(chunks))

	// Chunks never stop early on a sibling's failure, so the lowest failing
	// chunk is always the first failing cell.
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, ch := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cells := cols[ch.col]
			for r := ch.lo; r < ch.hi; r++ {
				if !cells[r].Valid {
					continue
				}
				out, err := step.Apply(ctx, cells[r].Text)
				if err != nil {
					failures[i] = &cellFailure{row: r, err: err}
					return nil
				}
				cells[r] = dataset.Text(out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return st, fmt.Errorf("stage %s: %w", step.Stage, err)
	}

	for i, f := range failures {
		if f == nil {
			continue
		}
		se := &internalerr.StageError{
			Stage:  string(step.Stage),
			Column: columns[chunks[i].col],
			Row:    f.row,
			Err:    f.err,
		}
		var te *internalerr.TokenError
		if errors.As(f.err, &te) {
			se.Token = te.Token
			se.Err = te.Err
		}
		return st, se
	}

	for i, name := range columns {
		if err := ds.SetColumn(ctx, name, cols[i]); err != nil {
			return st, &internalerr.StageError{Stage: string(step.Stage), Column: name, Row: -1, Err: err}
		}
	}

	st.Elapsed = time.Since(start)
	return st, nil
}

// split cuts every column into row ranges, roughly four chunks per worker.
func (p *Pipeline) split(cols [][]dataset.Cell) []chunk {
	total := 0
	for _, c := range cols {
		total += len(c)
	}
	size := total / (p.workers * 4)
	if size < 64 {
		size = 64
	}

	var chunks []chunk
	for ci, c := range cols {
		for lo := 0; lo < len(c); lo += size {
			hi := lo + size
			if hi > len(c) {
				hi = len(c)
			}
			chunks = append(chunks, chunk{col: ci, lo: lo, hi: hi})
		}
	}
	return chunks
}

func uniqueColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
