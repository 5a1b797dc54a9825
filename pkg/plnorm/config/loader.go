package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cognicore/plnorm/pkg/plnorm"
	"github.com/cognicore/plnorm/pkg/plnorm/ingest"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
	"github.com/cognicore/plnorm/pkg/plnorm/morph"
	"github.com/cognicore/plnorm/pkg/plnorm/morph/sqlite"
)

// Loader constructs components from a Config
type Loader struct {
	Config Config
	Logger *slog.Logger
}

// Components holds all loaded configuration components
type Components struct {
	Preprocessor *plnorm.Preprocessor
	Toggles      ingest.Toggles
	Columns      []string
	close        func() error
}

// Close releases the analyser's resources.
func (c *Components) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Load opens the analyser and builds the preprocessor.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	toggles, err := l.Config.Toggles()
	if err != nil {
		return nil, err
	}
	policy, err := l.Config.MissPolicy()
	if err != nil {
		return nil, err
	}

	analyzer, closeFn, err := OpenAnalyzer(ctx, l.Config.Dictionary)
	if err != nil {
		return nil, err
	}

	pre, err := plnorm.New(plnorm.Options{
		Language:      l.Config.Language,
		StopwordsFile: l.Config.StopwordsFile,
		Analyzer:      analyzer,
		OnLemmaMiss:   policy,
		Workers:       l.Config.Workers,
		Logger:        l.Logger,
	})
	if err != nil {
		closeFn()
		return nil, err
	}

	return &Components{
		Preprocessor: pre,
		Toggles:      toggles,
		Columns:      l.Config.Columns,
		close:        closeFn,
	}, nil
}

// OpenAnalyzer loads the dictionary described by d. The returned function
// releases it and is never nil.
func OpenAnalyzer(ctx context.Context, d Dictionary) (morph.Analyzer, func() error, error) {
	noop := func() error { return nil }

	var ign bool
	switch d.Unknown {
	case "", "fail":
	case "ign":
		ign = true
	default:
		return nil, noop, fmt.Errorf("dictionary.unknown %q: %w", d.Unknown, internalerr.ErrConfig)
	}

	var (
		analyzer morph.Analyzer
		closeFn  = noop
	)
	switch {
	case d.Path == "" && ign:
		// every word is its own lemma
		dict := morph.NewDictionary()
		dict.SetIgnUnknown(true)
		analyzer = dict
	case d.Path == "":
		return nil, noop, fmt.Errorf("dictionary.path is required: %w", internalerr.ErrConfig)
	case d.Format == "" || d.Format == "tsv":
		dict, err := morph.LoadTSV(d.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("load dictionary: %w: %w", internalerr.ErrConfig, err)
		}
		dict.SetIgnUnknown(ign)
		analyzer = dict
	case d.Format == "yaml":
		dict, err := morph.LoadYAML(d.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("load dictionary: %w: %w", internalerr.ErrConfig, err)
		}
		dict.SetIgnUnknown(ign)
		analyzer = dict
	case d.Format == "sqlite":
		// sqlite.Open would create a missing file
		if _, err := os.Stat(d.Path); err != nil {
			return nil, noop, fmt.Errorf("open dictionary: %w: %w", internalerr.ErrConfig, err)
		}
		st, err := sqlite.Open(ctx, d.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open dictionary: %w: %w", internalerr.ErrConfig, err)
		}
		st.SetIgnUnknown(ign)
		analyzer = st
		closeFn = st.Close
	default:
		return nil, noop, fmt.Errorf("dictionary.format %q: %w", d.Format, internalerr.ErrConfig)
	}

	if d.CacheSize > 0 {
		c, err := morph.Cached(analyzer, d.CacheSize)
		if err != nil {
			closeFn()
			return nil, noop, fmt.Errorf("dictionary cache: %w: %w", internalerr.ErrConfig, err)
		}
		analyzer = c
	}
	return analyzer, closeFn, nil
}
