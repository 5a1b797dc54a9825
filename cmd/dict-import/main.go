// Command dict-import loads morphological dictionaries into a SQLite
// database usable as dictionary.format: sqlite.
//
//	dict-import -db morph.db polimorf.tsv extra.yaml
//
// Files ending in .yaml or .yml use the YAML layout; anything else is read
// as tab-separated form, lemma and tags. Each file is imported in its own
// transaction, appending after entries already in the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cognicore/plnorm/pkg/plnorm/morph"
	"github.com/cognicore/plnorm/pkg/plnorm/morph/sqlite"
)

func main() {
	dbPath := flag.String("db", "morph.db", "target SQLite database")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: dict-import -db morph.db FILE...")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := run(ctx, *dbPath, flag.Args(), log); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath string, files []string, log *slog.Logger) (int64, error) {
	st, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer st.Close()

	start := time.Now()
	var total int64
	for _, path := range files {
		n, err := importFile(ctx, st, path)
		if err != nil {
			return total, fmt.Errorf("import %s: %w", path, err)
		}
		log.Debug("file imported", "path", path, "entries", n)
		total += n
	}

	count, err := st.Count(ctx)
	if err != nil {
		return total, err
	}
	log.Info("import finished",
		"db", dbPath,
		"added", humanize.Comma(total),
		"total", humanize.Comma(count),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return total, nil
}

func importFile(ctx context.Context, st *sqlite.Store, path string) (int64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		d, err := morph.LoadYAML(path)
		if err != nil {
			return 0, err
		}
		return st.ImportDictionary(ctx, d)
	default:
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		return st.ImportTSV(ctx, f)
	}
}
