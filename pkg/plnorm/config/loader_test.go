package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
	"github.com/cognicore/plnorm/pkg/plnorm/dataset/memtable"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
	"github.com/cognicore/plnorm/pkg/plnorm/morph/sqlite"
)

func TestLoaderFixture(t *testing.T) {
	ctx := context.Background()
	cfg, err := Load(filepath.Join(testdataDir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	loader := Loader{Config: cfg}
	comp, err := loader.Load(ctx)
	if err != nil {
		t.Fatalf("Loader.Load: %v", err)
	}
	defer comp.Close()

	if !comp.Preprocessor.Stopwords().IsStop("rt") {
		t.Error("supplementary stopwords should be loaded")
	}

	tbl, _ := memtable.FromColumns([]string{"text"}, map[string][]string{
		"text": {"RT @news: pogoda na plaży www.pogoda.pl"},
	})
	comp.Preprocessor.Fit(tbl)
	if _, err := comp.Preprocessor.Transform(ctx, comp.Columns, comp.Toggles); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	cells, _ := tbl.Column(ctx, "text")
	if got := cells[0].Text; got != "pogoda plaża" {
		t.Errorf("got %q, want %q", got, "pogoda plaża")
	}
}

func TestLoaderUnsupportedLanguage(t *testing.T) {
	loader := Loader{Config: Config{
		Language:   "en",
		Dictionary: Dictionary{Unknown: "ign"},
	}}
	if _, err := loader.Load(context.Background()); !errors.Is(err, internalerr.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestLoaderMissingStopwords(t *testing.T) {
	loader := Loader{Config: Config{
		Language:      "pl",
		StopwordsFile: "/nonexistent/stopwords.txt",
		Dictionary:    Dictionary{Unknown: "ign"},
	}}
	if _, err := loader.Load(context.Background()); !errors.Is(err, internalerr.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestOpenAnalyzerErrors(t *testing.T) {
	ctx := context.Background()
	cases := map[string]Dictionary{
		"no path":        {},
		"missing tsv":    {Path: "/nonexistent/dict.tsv"},
		"missing sqlite": {Path: "/nonexistent/dict.db", Format: "sqlite"},
		"bad format":     {Path: "dict.bin", Format: "bin"},
		"bad unknown":    {Path: "dict.tsv", Unknown: "guess"},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, closeFn, err := OpenAnalyzer(ctx, d)
			if !errors.Is(err, internalerr.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
			if closeFn == nil {
				t.Error("close func must never be nil")
			}
		})
	}
}

func TestOpenAnalyzerIdentity(t *testing.T) {
	a, closeFn, err := OpenAnalyzer(context.Background(), Dictionary{Unknown: "ign"})
	if err != nil {
		t.Fatalf("OpenAnalyzer: %v", err)
	}
	defer closeFn()

	got, _ := a.Analyse(context.Background(), "cokolwiek")
	if len(got) != 1 || got[0].BaseForm() != "cokolwiek" {
		t.Errorf("unexpected analysis: %+v", got)
	}
}

func TestOpenAnalyzerSQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "morph.db")

	st, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	f, err := os.Open(filepath.Join(testdataDir, "dict.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.ImportTSV(ctx, f); err != nil {
		t.Fatalf("ImportTSV: %v", err)
	}
	f.Close()
	st.Close()

	a, closeFn, err := OpenAnalyzer(ctx, Dictionary{Path: dbPath, Format: "sqlite", CacheSize: 16})
	if err != nil {
		t.Fatalf("OpenAnalyzer: %v", err)
	}
	defer closeFn()

	got, err := a.Analyse(ctx, "kota")
	if err != nil || len(got) != 2 || got[0].BaseForm() != "kot" {
		t.Errorf("unexpected analysis: %+v, %v", got, err)
	}
}

func TestLoaderYAMLDictionary(t *testing.T) {
	dir := t.TempDir()
	dictPath := filepath.Join(dir, "dict.yaml")
	if err := os.WriteFile(dictPath, []byte("entries:\n  - form: w\n    interpretations:\n      - lemma: w:p\n  - form: domu\n    interpretations:\n      - lemma: dom:s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := Loader{Config: Config{
		Language:   "pl",
		Dictionary: Dictionary{Path: dictPath, Format: "yaml"},
		Columns:    []string{"text"},
	}}
	comp, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Close()

	tbl := memtable.New()
	_ = tbl.AddColumn("text", dataset.Texts("W domu"))
	if _, err := comp.Preprocessor.FitTransform(context.Background(), tbl); err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	cells, _ := tbl.Column(context.Background(), "text")
	if cells[0].Text != "dom" {
		t.Errorf("got %q", cells[0].Text)
	}
}
