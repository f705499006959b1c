// Package merge reads staged CSV files and concatenates them into one
// dataset whose schema is the union of every file's columns.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ercotdata/internal/domain"
)

// ErrNoValidInput is returned when not a single file could be parsed.
var ErrNoValidInput = errors.New("no valid input: no file could be parsed")

// Options configure an Engine.
type Options struct {
	// Workers bounds concurrent file reads; values below 1 mean 1.
	Workers int
	Logger  *slog.Logger
}

// Engine merges staged files.
type Engine struct {
	workers int
	log     *slog.Logger
}

// Result holds the merged dataset and per-file accounting.
type Result struct {
	Dataset       *domain.Dataset
	Merged        int
	Skipped       []domain.FileError
	MalformedRows int
}

// NewEngine returns an Engine with the given options.
func NewEngine(opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{workers: opts.Workers, log: log}
}

// Merge reads every file, builds the ordered union of their columns, and
// returns all rows projected onto it in (file order, line order). Columns a
// file lacks are missing in its rows. Files that cannot be parsed are
// skipped and reported; if none parse, ErrNoValidInput is returned.
//
// Files are read concurrently but results are joined by position, so the
// output does not depend on read timing.
func (e *Engine) Merge(ctx context.Context, files []domain.StagedFile) (*Result, error) {
	tables := make([]*table, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tables[i], errs[i] = readTable(f.StagedPath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	schema := domain.NewSchema()
	for i, f := range files {
		if errs[i] != nil {
			e.log.Warn("skipping unreadable file", "path", f.StagedPath, "error", errs[i])
			res.Skipped = append(res.Skipped, domain.FileError{Path: f.StagedPath, Err: errs[i]})
			continue
		}
		for _, name := range tables[i].header {
			schema.Add(name)
		}
		res.Merged++
		res.MalformedRows += tables[i].malformed
		if tables[i].malformed > 0 {
			e.log.Warn("dropped malformed records", "path", f.StagedPath, "count", tables[i].malformed)
		}
		e.log.Debug("read file", "path", f.StagedPath, "rows", len(tables[i].records), "columns", len(tables[i].header))
	}

	if res.Merged == 0 {
		return res, fmt.Errorf("%w (%d files tried)", ErrNoValidInput, len(files))
	}

	total := 0
	for _, t := range tables {
		if t != nil {
			total += len(t.records)
		}
	}

	rows := make([]domain.Row, 0, total)
	for i, t := range tables {
		if t == nil {
			continue
		}
		pos := make([]int, len(t.header))
		for j, name := range t.header {
			pos[j], _ = schema.Index(name)
		}
		for k, rec := range t.records {
			values := make([]domain.Value, schema.Len())
			for j, field := range rec {
				values[pos[j]] = domain.Present(field)
			}
			rows = append(rows, domain.Row{Values: values, File: i, Line: t.lines[k]})
		}
		tables[i] = nil
	}

	res.Dataset = &domain.Dataset{Schema: schema, Rows: rows}
	e.log.Info("merge complete",
		"files", res.Merged,
		"skipped", len(res.Skipped),
		"rows", len(rows),
		"columns", schema.Len(),
		"malformed_rows", res.MalformedRows,
	)
	return res, nil
}
