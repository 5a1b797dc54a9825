package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestSplitBasic(t *testing.T) {
	tokens := Split("Super dzień! #słońce")
	expected := []string{"Super", "dzień!", "#słońce"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i := range expected {
		if tokens[i] != expected[i] {
			t.Errorf("token %d: got %q, want %q", i, tokens[i], expected[i])
		}
	}
}

func TestSplitWhitespaceRuns(t *testing.T) {
	tokens := Split("  a \t\tb\n\nc  ")
	if len(tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	for _, tok := range tokens {
		if tok == "" {
			t.Error("Split must not produce empty tokens")
		}
	}
}

func TestSplitKeepsInternalPunctuation(t *testing.T) {
	tokens := Split("http://a.pl/x?y=1 e-mail")
	if len(tokens) != 2 || tokens[0] != "http://a.pl/x?y=1" || tokens[1] != "e-mail" {
		t.Errorf("tokens with punctuation must not be decomposed: %v", tokens)
	}
}

func TestJoinEmpty(t *testing.T) {
	if got := Join(nil); got != "" {
		t.Errorf("Join(nil) = %q, want empty", got)
	}
	if got := Join(Split("   ")); got != "" {
		t.Errorf("Join(Split(blank)) = %q, want empty", got)
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	inputs := []string{
		"ala ma kota",
		"  ala   ma\tkota ",
		"jeden",
		"zażółć gęślą jaźń",
	}
	for _, in := range inputs {
		want := strings.Join(strings.Fields(in), " ")
		if got := Join(Split(in)); got != want {
			t.Errorf("round trip of %q: got %q, want %q", in, got, want)
		}
	}
}

func TestMapTokensStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := mapTokens("a b c", func(tok string) (string, error) {
		calls++
		if tok == "b" {
			return "", boom
		}
		return tok, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls before abort, got %d", calls)
	}
}
