// Package pipeline wires the ingestion stages together: catalog, staging,
// merge, normalization, settlement-point filter, and persistence. Each run
// produces a domain.RunSummary that is recorded in the run ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ercotdata/internal/catalog"
	"ercotdata/internal/config"
	"ercotdata/internal/domain"
	"ercotdata/internal/filter"
	"ercotdata/internal/merge"
	"ercotdata/internal/normalize"
	"ercotdata/internal/stage"
	"ercotdata/internal/store"
)

// Options carry the collaborators of a Pipeline.
type Options struct {
	Logger *slog.Logger
	// Ledger receives every run summary. Nil disables recording.
	Ledger store.RunLedger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs the ingestion stages with one configuration. It holds no
// per-run state, so a Pipeline may be reused for several runs.
type Pipeline struct {
	cfg       *config.Config
	log       *slog.Logger
	ledger    store.RunLedger
	now       func() time.Time
	extractor catalog.DateExtractor
	writer    store.DatasetWriter
}

// New validates cfg and builds a Pipeline.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	extractor, err := catalog.NewPatternExtractor(cfg.Source.DatePattern, cfg.Source.DateLayout)
	if err != nil {
		return nil, err
	}
	writer, err := store.NewDatasetWriter(cfg.Output.Format, store.WriteOptions{Index: cfg.Output.Index})
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		cfg:       cfg,
		log:       log,
		ledger:    opts.Ledger,
		now:       now,
		extractor: extractor,
		writer:    writer,
	}, nil
}

// ---------------------------------------------------------------------------
// Individual stages
// ---------------------------------------------------------------------------

// Catalog lists the dated source files under root. The staging directory
// is never walked when it lies inside root.
func (p *Pipeline) Catalog(root string) (*catalog.Catalog, error) {
	return catalog.Build(root, catalog.Options{
		Extensions: p.cfg.Source.Extensions,
		Extractor:  p.extractor,
		SkipDirs:   []string{p.cfg.Staging.Dir},
		Logger:     p.log.With("stage", "catalog"),
	})
}

// Stage copies files into the configured staging directory.
func (p *Pipeline) Stage(ctx context.Context, files []domain.SourceFile) (*stage.Result, error) {
	c := stage.NewConsolidator(stage.Options{
		Attempts:   p.cfg.Staging.CopyAttempts,
		RetryDelay: p.cfg.Staging.RetryDelay,
		Logger:     p.log.With("stage", "stage"),
	})
	return c.Consolidate(ctx, files, p.cfg.Staging.Dir)
}

// Merge reads the staged files into one dataset.
func (p *Pipeline) Merge(ctx context.Context, files []domain.StagedFile) (*merge.Result, error) {
	e := merge.NewEngine(merge.Options{
		Workers: p.cfg.Merge.Workers,
		Logger:  p.log.With("stage", "merge"),
	})
	return e.Merge(ctx, files)
}

// Normalize stamps and sorts a merged dataset.
func (p *Pipeline) Normalize(ds *domain.Dataset) (*normalize.Result, error) {
	n := normalize.NewNormalizer(normalize.Options{
		DateColumn:  p.cfg.Normalize.DateColumn,
		HourColumn:  p.cfg.Normalize.HourColumn,
		DateLayouts: p.cfg.Normalize.DateLayouts,
		Logger:      p.log.With("stage", "normalize"),
	})
	return n.Normalize(ds)
}

// Filter keeps the rows of the configured settlement points.
func (p *Pipeline) Filter(ds *domain.Dataset) *domain.Dataset {
	out := filter.ByLocation(ds, p.cfg.Filter.LocationColumn, p.cfg.Filter.AllowedLocations)
	p.log.Info("filter complete",
		"stage", "filter",
		"column", p.cfg.Filter.LocationColumn,
		"allowed", p.cfg.Filter.AllowedLocations,
		"rows_in", ds.Len(),
		"rows_out", out.Len(),
	)
	return out
}

// Write persists ds to path in the configured output format.
func (p *Pipeline) Write(ctx context.Context, path string, ds *domain.Dataset) error {
	if err := p.writer.WriteDataset(ctx, path, ds); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	p.log.Info("dataset written", "path", path, "format", p.cfg.Output.Format, "rows", ds.Len(), "columns", ds.Schema.Len())
	return nil
}

// ReadDataset loads a single CSV file, such as an earlier merged output,
// with the merge engine's header handling.
func (p *Pipeline) ReadDataset(ctx context.Context, path string) (*domain.Dataset, error) {
	res, err := p.Merge(ctx, []domain.StagedFile{{OriginalPath: path, StagedPath: path}})
	if err != nil {
		if res != nil && len(res.Skipped) > 0 {
			return nil, res.Skipped[0]
		}
		return nil, err
	}
	return res.Dataset, nil
}

// ---------------------------------------------------------------------------
// Full run
// ---------------------------------------------------------------------------

// Run executes every stage against the configured source directory and
// writes the final dataset. The returned summary is always non-nil and is
// filled in as far as the run got; it is written to the metrics textfile
// and the ledger even when the run fails.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunSummary, error) {
	sum := &domain.RunSummary{
		ID:         uuid.NewString(),
		StartedAt:  p.now().UTC(),
		SourceDir:  p.cfg.Source.RootDir,
		StagingDir: p.cfg.Staging.Dir,
		OutputPath: p.cfg.Output.Path,
	}
	log := p.log.With("run_id", sum.ID)
	log.Info("run started", "source", sum.SourceDir, "staging", sum.StagingDir)

	runErr := p.run(ctx, sum)

	sum.FinishedAt = p.now().UTC()
	if runErr != nil {
		sum.Status = domain.RunFailed
		sum.Error = runErr.Error()
		log.Error("run failed", "error", runErr)
	} else {
		sum.Status = domain.RunSucceeded
		log.Info("run finished",
			"rows_out", sum.RowsOut,
			"rows_filtered", sum.RowsFiltered,
			"duration", sum.FinishedAt.Sub(sum.StartedAt),
		)
	}

	if path := p.cfg.Metrics.Textfile; path != "" {
		if err := WriteMetrics(path, sum); err != nil {
			log.Warn("writing metrics failed", "path", path, "error", err)
		}
	}
	if p.ledger != nil {
		// A cancelled run is still recorded.
		if err := p.ledger.SaveRun(context.WithoutCancel(ctx), sum); err != nil {
			log.Error("recording run failed", "error", err)
			runErr = errors.Join(runErr, fmt.Errorf("recording run: %w", err))
		}
	}
	return sum, runErr
}

func (p *Pipeline) run(ctx context.Context, sum *domain.RunSummary) error {
	cat, err := p.Catalog(p.cfg.Source.RootDir)
	if err != nil {
		return err
	}
	sum.FilesCataloged = len(cat.Files)
	sum.FilesUndated = len(cat.Discards)
	sum.Discards = cat.Discards

	staged, err := p.Stage(ctx, cat.Files)
	if staged != nil {
		sum.Staged = staged.Staged
		sum.FilesStaged = len(staged.Staged)
		sum.FilesReused = staged.Reused
		sum.StageFailures = len(staged.Failures)
		sum.AddIssues("stage", staged.Failures)
	}
	if err != nil {
		return err
	}

	if path := p.cfg.Output.Manifest; path != "" {
		if err := store.WriteManifest(path, staged.Staged); err != nil {
			return err
		}
	}

	merged, err := p.Merge(ctx, staged.Staged)
	if merged != nil {
		sum.FilesMerged = merged.Merged
		sum.FilesSkipped = len(merged.Skipped)
		sum.MalformedRows = merged.MalformedRows
		sum.AddIssues("merge", merged.Skipped)
	}
	if err != nil {
		return err
	}
	sum.RowsMerged = merged.Dataset.Len()
	sum.Columns = merged.Dataset.Schema.Len()

	norm, err := p.Normalize(merged.Dataset)
	if norm != nil {
		sum.RowsDropped = norm.Dropped
	}
	if err != nil {
		return err
	}
	ds := norm.Dataset
	sum.RowsOut = ds.Len()
	sum.FirstTimestamp = ds.Rows[0].Timestamp
	sum.LastTimestamp = ds.Rows[ds.Len()-1].Timestamp
	sum.Locations = filter.CountDistinct(ds, p.cfg.Filter.LocationColumn)

	if p.cfg.Filter.Enabled {
		ds = p.Filter(ds)
	}
	sum.RowsFiltered = ds.Len()

	return p.Write(ctx, p.cfg.Output.Path, ds)
}
