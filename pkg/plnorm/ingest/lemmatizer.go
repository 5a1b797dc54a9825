package ingest

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
	"github.com/cognicore/plnorm/pkg/plnorm/morph"
)

// MissPolicy decides what happens to a token the analyser does not know.
type MissPolicy int

const (
	// MissFail aborts the cell with internalerr.ErrLemmaLookup.
	MissFail MissPolicy = iota
	// MissKeep leaves the token unchanged.
	MissKeep
)

// ParseMissPolicy maps "fail" and "keep" to a MissPolicy.
func ParseMissPolicy(s string) (MissPolicy, error) {
	switch s {
	case "", "fail":
		return MissFail, nil
	case "keep":
		return MissKeep, nil
	default:
		return MissFail, fmt.Errorf("lemma miss policy %q: %w", s, internalerr.ErrConfig)
	}
}

// Lemmatizer replaces each token by the base form of its first interpretation.
// There is no disambiguation: interpretation 0 always wins.
type Lemmatizer struct {
	analyzer morph.Analyzer
	policy   MissPolicy
}

// NewLemmatizer creates a lemmatizer over the given analyser.
func NewLemmatizer(a morph.Analyzer, policy MissPolicy) *Lemmatizer {
	return &Lemmatizer{analyzer: a, policy: policy}
}

// Lemma returns the lowercased base form for a single token.
func (l *Lemmatizer) Lemma(ctx context.Context, token string) (string, error) {
	interps, err := l.analyzer.Analyse(ctx, token)
	if err != nil {
		return "", &internalerr.TokenError{Token: token, Err: err}
	}
	if len(interps) == 0 {
		if l.policy == MissKeep {
			return token, nil
		}
		return "", &internalerr.TokenError{Token: token, Err: internalerr.ErrLemmaLookup}
	}
	return cases.Lower(language.Polish).String(interps[0].BaseForm()), nil
}

// Apply lemmatizes every token of cell. The first failing token aborts the cell.
func (l *Lemmatizer) Apply(ctx context.Context, cell string) (string, error) {
	return mapTokens(cell, func(tok string) (string, error) {
		return l.Lemma(ctx, tok)
	})
}
