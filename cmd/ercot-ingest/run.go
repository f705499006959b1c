package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ercotdata/internal/domain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: catalog, stage, merge, normalize, filter, write",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	_, _, p, ledger, err := setup(true)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := p.Run(ctx)
	printSummary(cmd.OutOrStdout(), sum)
	return err
}

func printSummary(w io.Writer, s *domain.RunSummary) {
	fmt.Fprintf(w, "run %s %s in %s\n", s.ID, s.Status, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  files: %d cataloged, %d undated, %d staged (%d reused), %d stage failures, %d merged, %d skipped\n",
		s.FilesCataloged, s.FilesUndated, s.FilesStaged, s.FilesReused, s.StageFailures, s.FilesMerged, s.FilesSkipped)
	fmt.Fprintf(w, "  rows:  %d merged, %d malformed, %d dropped, %d in dataset, %d after filter\n",
		s.RowsMerged, s.MalformedRows, s.RowsDropped, s.RowsOut, s.RowsFiltered)
	if !s.FirstTimestamp.IsZero() {
		fmt.Fprintf(w, "  range: %s to %s, %d settlement points, %d columns\n",
			s.FirstTimestamp.Format(time.DateTime), s.LastTimestamp.Format(time.DateTime), s.Locations, s.Columns)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", s.Error)
	}
}
