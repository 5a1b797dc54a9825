package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/cognicore/plnorm/pkg/plnorm/config"
	"github.com/cognicore/plnorm/pkg/plnorm/dataset/csvfile"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

var quiet = slog.New(slog.DiscardHandler)

func fixtureConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := loadConfig(options{configPath: filepath.Join("..", "..", "testdata", "config.yaml")})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	return cfg
}

func TestRunCSV(t *testing.T) {
	ctx := context.Background()
	cfg := fixtureConfig(t)

	var out bytes.Buffer
	opts := options{in: filepath.Join("..", "..", "testdata", "posts.csv")}
	if err := run(ctx, cfg, opts, &out, quiet); err != nil {
		t.Fatalf("run: %v", err)
	}

	tbl, err := csvfile.Read(&out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text, _ := tbl.Column(ctx, "text")
	want := []string{"super dzień", "ala mieć kot pięknie", "pogoda plaża"}
	for i, w := range want {
		if text[i].Text != w {
			t.Errorf("row %d: got %q, want %q", i, text[i].Text, w)
		}
	}
	author, _ := tbl.Column(ctx, "author")
	if author[0].Text != "anna" || author[2].Valid {
		t.Errorf("untargeted column changed: %+v", author)
	}
}

func TestRunCSVToFile(t *testing.T) {
	ctx := context.Background()
	cfg := fixtureConfig(t)
	path := filepath.Join(t.TempDir(), "clean.csv")

	var stdout bytes.Buffer
	opts := options{in: filepath.Join("..", "..", "testdata", "posts.csv"), out: path}
	if err := run(ctx, cfg, opts, &stdout, quiet); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should go to stdout, got %q", stdout.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := fixtureConfig(t)
	cfg.Input.StripHTML = true

	path := filepath.Join(t.TempDir(), "posts.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, text TEXT)`,
		`INSERT INTO posts (text) VALUES ('<p>Super<br>dzień!</p>')`,
		`INSERT INTO posts (text) VALUES (NULL)`,
	} {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	db.Close()

	if err := run(ctx, cfg, options{in: path, table: "posts"}, &bytes.Buffer{}, quiet); err != nil {
		t.Fatalf("run: %v", err)
	}

	db, err = sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var first string
	var second sql.NullString
	if err := db.QueryRow(`SELECT text FROM posts WHERE id = 1`).Scan(&first); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT text FROM posts WHERE id = 2`).Scan(&second); err != nil {
		t.Fatal(err)
	}
	if first != "super dzień" || second.Valid {
		t.Errorf("got %q, %+v", first, second)
	}
}

func TestRunSQLiteNeedsTable(t *testing.T) {
	cfg := fixtureConfig(t)
	err := run(context.Background(), cfg, options{in: "posts.db"}, &bytes.Buffer{}, quiet)
	if !errors.Is(err, internalerr.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestRunLemmaFailure(t *testing.T) {
	cfg := fixtureConfig(t)
	in := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(in, []byte("text\nzupełnie nieznane słowa\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), cfg, options{in: in}, &bytes.Buffer{}, quiet)
	if !errors.Is(err, internalerr.ErrLemmaLookup) {
		t.Errorf("expected ErrLemmaLookup, got %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(options{
		configPath: filepath.Join("..", "..", "testdata", "config.yaml"),
		columns:    "text, title,,",
		logLevel:   "error",
	})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Columns) != 2 || cfg.Columns[1] != "title" {
		t.Errorf("columns = %v", cfg.Columns)
	}
	if cfg.LogLevel != "ERROR" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestMustMakeLoggerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown level")
		}
	}()
	mustMakeLogger("TRACE")
}
