package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ercotdata/internal/normalize"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Sort an existing merged file by a timestamp column",
	Long:  "Re-sort a dataset written by earlier tooling whose rows are not in chronological order. Rows whose timestamp cannot be parsed are dropped.",
	RunE:  runReorder,
}

var (
	reorderInput  string
	reorderOutput string
	reorderColumn string
)

func init() {
	reorderCmd.Flags().StringVarP(&reorderInput, "in", "i", "", "Merged CSV file (default output.path)")
	reorderCmd.Flags().StringVarP(&reorderOutput, "out", "o", "", "Output file (default: overwrite the input)")
	reorderCmd.Flags().StringVar(&reorderColumn, "column", "Hour Ending", "Column holding full timestamps")
	rootCmd.AddCommand(reorderCmd)
}

func runReorder(cmd *cobra.Command, _ []string) error {
	cfg, _, p, _, err := setup(false)
	if err != nil {
		return err
	}
	ctx := context.Background()

	in := cfg.Output.Path
	if reorderInput != "" {
		in = reorderInput
	}
	out := in
	if reorderOutput != "" {
		out = reorderOutput
	}

	ds, err := p.ReadDataset(ctx, in)
	if err != nil {
		return err
	}
	res, err := normalize.Reorder(ds, reorderColumn, nil)
	if err != nil {
		return err
	}
	if err := p.Write(ctx, out, res.Dataset); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reordered %d rows by %q (%d dropped) -> %s\n",
		res.Dataset.Len(), reorderColumn, res.Dropped, out)
	return nil
}
