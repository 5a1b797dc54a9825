package ingest

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage names a single text-rewrite step.
type Stage string

const (
	StageLowercase         Stage = "lowercase"
	StageRemoveMentions    Stage = "remove_mentions"
	StageRemoveHashtags    Stage = "remove_hashtags"
	StageRemoveURLs        Stage = "remove_urls"
	StageRemoveNumbers     Stage = "remove_numbers"
	StageRemoveEmojis      Stage = "remove_emojis"
	StageRemovePunctuation Stage = "remove_punctuation"
	StageLemmatize         Stage = "lemmatize"
	StageRemoveStopwords   Stage = "remove_stopwords"
)

// Order is the fixed application order of the stages.
// Noise tokens are dropped while their leading marker (@, #, http, digits, :)
// is still intact, punctuation goes before lemmatization, and stopwords are
// matched last against lemmatized forms.
var Order = []Stage{
	StageLowercase,
	StageRemoveMentions,
	StageRemoveHashtags,
	StageRemoveURLs,
	StageRemoveNumbers,
	StageRemoveEmojis,
	StageRemovePunctuation,
	StageLemmatize,
	StageRemoveStopwords,
}

// CellFunc rewrites a single cell.
type CellFunc func(ctx context.Context, cell string) (string, error)

// StopSet reports stopword membership.
type StopSet interface {
	IsStop(token string) bool
}

// punctuation holds ASCII punctuation plus typographic quotes common in Polish text.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" + "„”“’‘"

// Lowercase folds the whole cell to lower case using Polish casing rules.
func Lowercase(cell string) string {
	// cases.Caser keeps state, so one is built per call.
	return cases.Lower(language.Polish).String(cell)
}

// RemovePunctuation deletes every punctuation character from the cell.
// Tokens are not re-split: a token made only of punctuation leaves its
// surrounding whitespace behind.
func RemovePunctuation(cell string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, cell)
}

// RemoveMentions drops tokens starting with '@'.
func RemoveMentions(cell string) string {
	return keepTokens(cell, func(tok string) bool {
		return !strings.HasPrefix(tok, "@")
	})
}

// RemoveHashtags drops tokens starting with '#'.
func RemoveHashtags(cell string) string {
	return keepTokens(cell, func(tok string) bool {
		return !strings.HasPrefix(tok, "#")
	})
}

// RemoveURLs drops tokens starting with "http" or "www.".
func RemoveURLs(cell string) string {
	return keepTokens(cell, func(tok string) bool {
		return !strings.HasPrefix(tok, "http") && !strings.HasPrefix(tok, "www.")
	})
}

// RemoveNumbers drops tokens made only of ASCII digits.
func RemoveNumbers(cell string) string {
	return keepTokens(cell, func(tok string) bool {
		return !isDigits(tok)
	})
}

// RemoveEmojis drops tokens starting with ':', the shortcode marker (":)", ":smile:").
// Unicode emoji glyphs are not detected.
func RemoveEmojis(cell string) string {
	return keepTokens(cell, func(tok string) bool {
		return !strings.HasPrefix(tok, ":")
	})
}

// RemoveStopwords returns a cell transform dropping members of stops.
// Matching is exact, so it only catches capitalised words after Lowercase.
func RemoveStopwords(stops StopSet) func(string) string {
	return func(cell string) string {
		return keepTokens(cell, func(tok string) bool {
			return !stops.IsStop(tok)
		})
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// infallible adapts a pure string rewrite to CellFunc.
func infallible(fn func(string) string) CellFunc {
	return func(_ context.Context, cell string) (string, error) {
		return fn(cell), nil
	}
}
