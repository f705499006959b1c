package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ercotdata/internal/store"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Copy cataloged files into the flat staging directory",
	Long:  "Catalog the source directory and copy every dated file into the staging directory. Colliding names get _1, _2, ... suffixes; nothing is overwritten.",
	RunE:  runStage,
}

func init() {
	rootCmd.AddCommand(stageCmd)
}

func runStage(cmd *cobra.Command, _ []string) error {
	cfg, _, p, _, err := setup(false)
	if err != nil {
		return err
	}
	ctx := context.Background()

	cat, err := p.Catalog(cfg.Source.RootDir)
	if err != nil {
		return err
	}
	res, err := p.Stage(ctx, cat.Files)
	if err != nil {
		return err
	}
	if cfg.Output.Manifest != "" {
		if err := store.WriteManifest(cfg.Output.Manifest, res.Staged); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, f := range res.Failures {
		fmt.Fprintf(out, "failed\t%s\t%v\n", f.Path, f.Err)
	}
	fmt.Fprintf(out, "staged %d files into %s (%d reused, %d failed)\n",
		len(res.Staged), cfg.Staging.Dir, res.Reused, len(res.Failures))
	return nil
}
