// Package morph defines the morphological analyser capability used by the
// lemmatize stage, plus dictionary-backed implementations and wrappers.
//
// An Analyzer returns every interpretation it knows for a token, in a stable
// order. Callers pick from that list; the analyser never disambiguates.
//
// Concurrency: every Analyzer in this package is safe for concurrent use.
// Third-party analysers that are not reentrant should be wrapped with
// Serialized before being shared between workers.
package morph

import (
	"context"
	"strings"
	"sync"
)

// Interpretation is one morphological reading of a token.
// Start and End are segment node indices in the analysis graph; a
// single-segment word spans 0..1.
type Interpretation struct {
	Start int
	End   int
	Orth  string // orthographic form as found in the text
	Lemma string // colon-delimited lemma tag, e.g. "zamek:s1"
	Tags  string // grammar tags, e.g. "subst:sg:nom:m3"
}

// BaseForm returns the lemma tag's first colon-delimited segment.
func (in Interpretation) BaseForm() string {
	base, _, _ := strings.Cut(in.Lemma, ":")
	return base
}

// Analyzer looks up morphological interpretations for a single token.
// An empty result with a nil error means the token is unknown.
type Analyzer interface {
	Analyse(ctx context.Context, token string) ([]Interpretation, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, token string) ([]Interpretation, error)

// Analyse implements Analyzer.
func (f AnalyzerFunc) Analyse(ctx context.Context, token string) ([]Interpretation, error) {
	return f(ctx, token)
}

// Serialized wraps an analyser that is not safe for concurrent use so that
// only one query runs at a time.
func Serialized(a Analyzer) Analyzer {
	return &serialized{inner: a}
}

type serialized struct {
	mu    sync.Mutex
	inner Analyzer
}

func (s *serialized) Analyse(ctx context.Context, token string) ([]Interpretation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Analyse(ctx, token)
}

// Ign builds the interpretation an analyser reports for an unknown word:
// the word is its own lemma and carries the "ign" tag.
func Ign(token string) Interpretation {
	return Interpretation{Start: 0, End: 1, Orth: token, Lemma: token, Tags: "ign"}
}
