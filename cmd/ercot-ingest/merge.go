package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"ercotdata/internal/domain"
	"ercotdata/internal/pipeline"
	"ercotdata/internal/store"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge and order the files of the staging directory",
	Long:  "Read every staged file (in manifest order when output.manifest exists, otherwise by cataloging the staging directory), reconcile their columns, convert hour-ending labels to timestamps, and write the ordered dataset.",
	RunE:  runMerge,
}

var (
	mergeStagedDir string
	mergeOutput    string
)

func init() {
	mergeCmd.Flags().StringVar(&mergeStagedDir, "staged", "", "Staging directory (overrides staging.dir)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "out", "o", "", "Output file (overrides output.path)")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, _ []string) error {
	cfg, _, p, _, err := setup(false)
	if err != nil {
		return err
	}
	ctx := context.Background()

	dir, manifest := cfg.Staging.Dir, cfg.Output.Manifest
	if mergeStagedDir != "" {
		// The manifest describes the configured staging directory only.
		dir, manifest = mergeStagedDir, ""
	}
	outPath := cfg.Output.Path
	if mergeOutput != "" {
		outPath = mergeOutput
	}

	staged, err := stagedFiles(p, dir, manifest)
	if err != nil {
		return err
	}

	merged, err := p.Merge(ctx, staged)
	if err != nil {
		return err
	}
	norm, err := p.Normalize(merged.Dataset)
	if err != nil {
		return err
	}
	if err := p.Write(ctx, outPath, norm.Dataset); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "merged %d files (%d skipped): %d rows, %d dropped, %d columns -> %s\n",
		merged.Merged, len(merged.Skipped), norm.Dataset.Len(), norm.Dropped, norm.Dataset.Schema.Len(), outPath)
	return nil
}

// stagedFiles returns the staged files in source catalog order from the
// manifest written by stage, so ties sort as in a full run. Without a
// manifest the staging directory is cataloged; staged names keep their
// date token.
func stagedFiles(p *pipeline.Pipeline, dir, manifest string) ([]domain.StagedFile, error) {
	if manifest != "" {
		_, err := os.Stat(manifest)
		switch {
		case err == nil:
			return store.ReadManifest(manifest)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	cat, err := p.Catalog(dir)
	if err != nil {
		return nil, err
	}
	staged := make([]domain.StagedFile, len(cat.Files))
	for i, f := range cat.Files {
		staged[i] = domain.StagedFile{OriginalPath: f.Path, StagedPath: f.Path, Date: f.Date}
	}
	return staged, nil
}
