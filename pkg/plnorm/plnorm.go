package plnorm

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
	"github.com/cognicore/plnorm/pkg/plnorm/ingest"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
	"github.com/cognicore/plnorm/pkg/plnorm/morph"
	"github.com/cognicore/plnorm/pkg/plnorm/stoplist"
)

// Preprocessor is the main text-cleaning facade.
// It is built once with its stopword set and analyser, then bound to a
// dataset with Fit and run with Transform.
type Preprocessor struct {
	stops   *stoplist.Set
	lem     *ingest.Lemmatizer
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	data    dataset.Dataset // nil until Fit
}

// Options configures a Preprocessor
type Options struct {
	// Language selects the built-in stopword list; empty means "pl".
	Language string
	// StopwordsFile adds words to the built-in list. Optional.
	StopwordsFile string
	// Analyzer answers morphological queries. Required.
	Analyzer morph.Analyzer
	// OnLemmaMiss decides what happens to tokens the analyser does not know.
	OnLemmaMiss ingest.MissPolicy
	// Workers bounds per-stage concurrency; 0 means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Report summarises one Transform run.
type Report struct {
	RunID   string
	Columns []string
	Stages  []ingest.StageStats
	Elapsed time.Duration
}

// New creates a Preprocessor. The stopword set and analyser are set up here,
// whether or not the lemmatize stage is ever used.
func New(opts Options) (*Preprocessor, error) {
	lang := opts.Language
	if lang == "" {
		lang = stoplist.Language
	}
	stops, err := stoplist.Load(lang, opts.StopwordsFile)
	if err != nil {
		return nil, err
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("morphological analyser is required: %w", internalerr.ErrConfig)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Preprocessor{
		stops:   stops,
		lem:     ingest.NewLemmatizer(opts.Analyzer, opts.OnLemmaMiss),
		workers: opts.Workers,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Stopwords returns the stopword set in use.
func (p *Preprocessor) Stopwords() *stoplist.Set {
	return p.stops
}

// Fit binds the dataset to transform. It is neither copied nor validated.
func (p *Preprocessor) Fit(ds dataset.Dataset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = ds
}

// Dataset returns the fitted dataset, or ErrNotLoaded before Fit.
func (p *Preprocessor) Dataset() (dataset.Dataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, internalerr.ErrNotLoaded
	}
	return p.data, nil
}

// Transform applies the enabled stages to columns of the fitted dataset and
// returns it. Columns change in place; see Run for failure semantics.
func (p *Preprocessor) Transform(ctx context.Context, columns []string, stages ingest.Toggles) (dataset.Dataset, error) {
	if _, err := p.Run(ctx, columns, stages); err != nil {
		return nil, err
	}
	return p.Dataset()
}

// FitTransform fits ds and transforms all of its columns with every stage.
func (p *Preprocessor) FitTransform(ctx context.Context, ds dataset.Dataset) (dataset.Dataset, error) {
	p.Fit(ds)
	return p.Transform(ctx, ds.Columns(), ingest.AllStages())
}

// Run is Transform with a report. A failed run returns the stages that
// completed plus an *internalerr.StageError locating the failing cell; those
// stages stay applied to the dataset.
func (p *Preprocessor) Run(ctx context.Context, columns []string, stages ingest.Toggles) (Report, error) {
	ds, err := p.Dataset()
	if err != nil {
		return Report{}, err
	}

	steps, err := ingest.Steps(stages, p.stops, p.lem)
	if err != nil {
		return Report{}, err
	}

	rep := Report{RunID: p.newRunID(), Columns: columns}
	log := p.logger.With("run", rep.RunID)
	log.Info("transform started", "columns", columns)

	start := time.Now()
	rep.Stages, err = ingest.NewPipeline(steps, p.workers, log).Run(ctx, ds, columns)
	rep.Elapsed = time.Since(start)
	if err != nil {
		return rep, err
	}

	log.Info("transform finished", "stages", len(rep.Stages), "elapsed", rep.Elapsed)
	return rep, nil
}

// ApplyStage runs a single stage over columns.
func (p *Preprocessor) ApplyStage(ctx context.Context, stage ingest.Stage, columns []string) error {
	ds, err := p.Dataset()
	if err != nil {
		return err
	}
	fn, err := ingest.CellFuncFor(stage, p.stops, p.lem)
	if err != nil {
		return err
	}
	steps := []ingest.Step{{Stage: stage, Enabled: true, Apply: fn}}
	_, err = ingest.NewPipeline(steps, p.workers, p.logger).Run(ctx, ds, columns)
	return err
}

// Lowercase lowercases columns.
func (p *Preprocessor) Lowercase(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageLowercase, columns)
}

// RemoveMentions drops @mentions from columns.
func (p *Preprocessor) RemoveMentions(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageRemoveMentions, columns)
}

// RemoveHashtags drops #hashtags from columns.
func (p *Preprocessor) RemoveHashtags(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageRemoveHashtags, columns)
}

// RemoveURLs drops links from columns.
func (p *Preprocessor) RemoveURLs(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageRemoveURLs, columns)
}

// RemoveNumbers drops all-digit tokens from columns.
func (p *Preprocessor) RemoveNumbers(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageRemoveNumbers, columns)
}

// RemoveEmojis drops emoji shortcodes from columns.
func (p *Preprocessor) RemoveEmojis(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageRemoveEmojis, columns)
}

// RemovePunctuation strips punctuation from columns.
func (p *Preprocessor) RemovePunctuation(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageRemovePunctuation, columns)
}

// Lemmatize replaces tokens in columns by their base forms.
func (p *Preprocessor) Lemmatize(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageLemmatize, columns)
}

// RemoveStopwords drops stopwords from columns.
func (p *Preprocessor) RemoveStopwords(ctx context.Context, columns []string) error {
	return p.ApplyStage(ctx, ingest.StageRemoveStopwords, columns)
}

func (p *Preprocessor) newRunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Now(), p.entropy).String()
}
