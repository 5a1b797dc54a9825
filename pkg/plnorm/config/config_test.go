package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/plnorm/pkg/plnorm/ingest"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

const testdataDir = "../../../testdata"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	cfg, err := Load(filepath.Join(testdataDir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Language != "pl" || cfg.LogLevel != "DEBUG" || cfg.Workers != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.Columns) != 1 || cfg.Columns[0] != "text" {
		t.Errorf("unexpected columns: %v", cfg.Columns)
	}
	if cfg.Dictionary.CacheSize != 1024 || cfg.Dictionary.Format != "tsv" {
		t.Errorf("unexpected dictionary: %+v", cfg.Dictionary)
	}

	// paths resolve against the config file's directory
	if want := filepath.Join(testdataDir, "dict.tsv"); cfg.Dictionary.Path != want {
		t.Errorf("dictionary path = %q, want %q", cfg.Dictionary.Path, want)
	}
	if _, err := os.Stat(cfg.StopwordsFile); err != nil {
		t.Errorf("stopwords file should resolve: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "columns: [text]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "pl" || cfg.LogLevel != "INFO" || cfg.OnLemmaMiss != "fail" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Dictionary.Format != "tsv" || cfg.Dictionary.Unknown != "fail" {
		t.Errorf("dictionary defaults not applied: %+v", cfg.Dictionary)
	}

	tg, err := cfg.Toggles()
	if err != nil {
		t.Fatalf("Toggles: %v", err)
	}
	if tg != ingest.AllStages() {
		t.Errorf("all stages should default to enabled: %+v", tg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PLNORM_WORKERS", "7")
	t.Setenv("PLNORM_COLUMNS", "text,title")

	cfg, err := Load(writeConfig(t, "workers: 2\ncolumns: [body]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 7 {
		t.Errorf("Workers = %d, want 7", cfg.Workers)
	}
	if len(cfg.Columns) != 2 || cfg.Columns[1] != "title" {
		t.Errorf("Columns = %v", cfg.Columns)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, internalerr.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestTogglesDisable(t *testing.T) {
	cfg, err := Load(writeConfig(t, "stages:\n  lemmatize: false\n  remove_stopwords: false\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tg, err := cfg.Toggles()
	if err != nil {
		t.Fatalf("Toggles: %v", err)
	}
	if tg.Lemmatize || tg.RemoveStopwords || !tg.Lowercase || !tg.RemovePunctuation {
		t.Errorf("unexpected toggles: %+v", tg)
	}
}

func TestTogglesUnknownStage(t *testing.T) {
	cfg := Config{Stages: map[string]bool{"stem": true}}
	if _, err := cfg.Toggles(); !errors.Is(err, internalerr.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestMissPolicy(t *testing.T) {
	if p, err := (Config{OnLemmaMiss: "keep"}).MissPolicy(); err != nil || p != ingest.MissKeep {
		t.Errorf("keep: %v, %v", p, err)
	}
	if _, err := (Config{OnLemmaMiss: "retry"}).MissPolicy(); !errors.Is(err, internalerr.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}
