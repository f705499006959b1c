package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ercotdata/internal/config"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep only selected settlement points of a merged file",
	RunE:  runFilter,
}

var (
	filterInput     string
	filterOutput    string
	filterLocations string
)

func init() {
	filterCmd.Flags().StringVarP(&filterInput, "in", "i", "", "Merged CSV file (default output.path)")
	filterCmd.Flags().StringVarP(&filterOutput, "out", "o", "", "Filtered output file")
	filterCmd.Flags().StringVar(&filterLocations, "locations", "", "Comma-separated settlement points (overrides filter.allowed_locations)")
	_ = filterCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, _ []string) error {
	cfg, _, p, _, err := setup(false)
	if err != nil {
		return err
	}
	ctx := context.Background()

	in := cfg.Output.Path
	if filterInput != "" {
		in = filterInput
	}
	if filterLocations != "" {
		cfg.Filter.AllowedLocations = config.SplitList(filterLocations)
	}

	ds, err := p.ReadDataset(ctx, in)
	if err != nil {
		return err
	}
	out := p.Filter(ds)
	if err := p.Write(ctx, filterOutput, out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "kept %d of %d rows -> %s\n", out.Len(), ds.Len(), filterOutput)
	return nil
}
