// Command plnorm normalises text columns of a CSV file or SQLite table.
//
//	plnorm -config config.yaml -in posts.csv -out clean.csv
//	plnorm -config config.yaml -in posts.db -table posts
//
// CSV input is written to -out (stdout when empty). SQLite tables are
// updated in place.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/cognicore/plnorm/pkg/plnorm"
	"github.com/cognicore/plnorm/pkg/plnorm/config"
	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
	"github.com/cognicore/plnorm/pkg/plnorm/dataset/csvfile"
	"github.com/cognicore/plnorm/pkg/plnorm/dataset/htmltext"
	"github.com/cognicore/plnorm/pkg/plnorm/dataset/sqltable"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

type options struct {
	configPath string
	in         string
	out        string
	table      string
	columns    string
	logLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "configuration file (environment only when empty)")
	flag.StringVar(&opts.in, "in", "", "input .csv file or SQLite database")
	flag.StringVar(&opts.out, "out", "", "output CSV file (stdout when empty)")
	flag.StringVar(&opts.table, "table", "", "table to normalise when -in is a SQLite database")
	flag.StringVar(&opts.columns, "columns", "", "comma-separated columns, overrides the config")
	flag.StringVar(&opts.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR, overrides the config")
	flag.Parse()

	if opts.in == "" {
		fmt.Fprintln(os.Stderr, "plnorm: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plnorm: %v\n", err)
		os.Exit(1)
	}

	log := mustMakeLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, os.Stdout, log); err != nil {
		log.Error("normalisation failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return config.Config{}, err
	}
	if opts.columns != "" {
		cfg.Columns = splitList(opts.columns)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.ToUpper(opts.logLevel)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, opts options, stdout io.Writer, log *slog.Logger) error {
	loader := config.Loader{Config: cfg, Logger: log}
	comp, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	defer comp.Close()

	ds, save, closeDS, err := openDataset(ctx, opts, stdout)
	if err != nil {
		return err
	}
	defer closeDS()

	columns := comp.Columns
	if len(columns) == 0 {
		columns = ds.Columns()
	}
	log.Info("dataset loaded", "input", opts.in, "size", inputSize(opts.in), "columns", columns)

	if cfg.Input.StripHTML {
		if err := htmltext.StripColumns(ctx, ds, columns); err != nil {
			return fmt.Errorf("strip html: %w", err)
		}
	}

	comp.Preprocessor.Fit(ds)
	rep, err := comp.Preprocessor.Run(ctx, columns, comp.Toggles)
	if err != nil {
		var se *internalerr.StageError
		if errors.As(err, &se) {
			log.Error("stage failed", "run", rep.RunID, "stage", se.Stage, "column", se.Column, "row", se.Row, "token", se.Token)
		}
		return err
	}

	if err := save(ctx); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	log.Info("done", "run", rep.RunID, "summary", summarize(rep))
	return nil
}

// openDataset picks the backend from the input path. save persists the
// result; for SQLite the pipeline already wrote through, so it is a no-op.
func openDataset(ctx context.Context, opts options, stdout io.Writer) (dataset.Dataset, func(context.Context) error, func() error, error) {
	switch strings.ToLower(filepath.Ext(opts.in)) {
	case ".db", ".sqlite", ".sqlite3":
		if opts.table == "" {
			return nil, nil, nil, fmt.Errorf("-table is required for %s: %w", opts.in, internalerr.ErrConfig)
		}
		if _, err := os.Stat(opts.in); err != nil {
			return nil, nil, nil, err
		}
		tbl, err := sqltable.Open(ctx, opts.in, opts.table)
		if err != nil {
			return nil, nil, nil, err
		}
		noSave := func(context.Context) error { return nil }
		return tbl, noSave, tbl.Close, nil
	default:
		tbl, err := csvfile.Load(opts.in)
		if err != nil {
			return nil, nil, nil, err
		}
		save := func(ctx context.Context) error {
			if opts.out == "" {
				return csvfile.Write(ctx, stdout, tbl)
			}
			return csvfile.Save(ctx, opts.out, tbl)
		}
		return tbl, save, func() error { return nil }, nil
	}
}

func summarize(rep plnorm.Report) string {
	var cells, absent int
	for _, st := range rep.Stages {
		cells += st.Cells
		absent += st.Absent
	}
	return fmt.Sprintf("%s cells (%s absent) through %d stages over %d columns in %s",
		humanize.Comma(int64(cells)), humanize.Comma(int64(absent)), len(rep.Stages), len(rep.Columns), rep.Elapsed)
}

func inputSize(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(uint64(fi.Size()))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mustMakeLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		panic("unknown log level: " + logLevel)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{AddSource: true, Level: level})
	return slog.New(handler)
}
