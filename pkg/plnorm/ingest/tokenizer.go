package ingest

import "strings"

// Split breaks a cell into whitespace-delimited tokens.
// Runs of whitespace count as one separator and empty tokens are dropped,
// so leading and trailing whitespace never produce tokens.
func Split(cell string) []string {
	return strings.Fields(cell)
}

// Join reassembles tokens into a cell separated by single spaces.
// Original spacing is not preserved.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// keepTokens runs a token predicate over a cell and re-joins the survivors.
func keepTokens(cell string, keep func(string) bool) string {
	tokens := Split(cell)
	kept := tokens[:0]
	for _, tok := range tokens {
		if keep(tok) {
			kept = append(kept, tok)
		}
	}
	return Join(kept)
}

// mapTokens replaces every token of a cell, stopping at the first error.
func mapTokens(cell string, fn func(string) (string, error)) (string, error) {
	tokens := Split(cell)
	for i, tok := range tokens {
		out, err := fn(tok)
		if err != nil {
			return "", err
		}
		tokens[i] = out
	}
	return Join(tokens), nil
}
