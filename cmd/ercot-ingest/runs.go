package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs, newest first",
	RunE:  runRuns,
}

var runsLimit int

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	_, _, _, ledger, err := setup(true)
	if err != nil {
		return err
	}
	if ledger == nil {
		return errors.New("no run ledger configured (set ledger.sqlite_path or ERCOT_LEDGER)")
	}
	defer ledger.Close()

	ctx := context.Background()
	runs, err := ledger.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tFILES\tROWS\tFILTERED\tISSUES\tERROR")
	for _, r := range runs {
		issues, err := ledger.IssueCount(ctx, r.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Status,
			r.FilesMerged, r.RowsOut, r.RowsFiltered, issues, r.Error)
	}
	return tw.Flush()
}
