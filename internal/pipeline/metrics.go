package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"ercotdata/internal/domain"
)

const metricPrefix = "ercot_ingest_"

// WriteMetrics renders the run summary as Prometheus gauges into a
// node-exporter textfile at path. A fresh registry is used for each run.
func WriteMetrics(path string, sum *domain.RunSummary) error {
	files := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricPrefix + "files",
			Help: "Files handled by the last run, by outcome",
		},
		[]string{"outcome"},
	)
	rows := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricPrefix + "rows",
			Help: "Rows handled by the last run, by outcome",
		},
		[]string{"outcome"},
	)
	columns := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: metricPrefix + "columns",
		Help: "Columns in the merged schema of the last run",
	})
	locations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: metricPrefix + "settlement_points",
		Help: "Distinct settlement points in the normalized dataset",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: metricPrefix + "last_run_success",
		Help: "1 if the last run succeeded, 0 otherwise",
	})
	finished := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: metricPrefix + "last_run_timestamp_seconds",
		Help: "Unix time the last run finished",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: metricPrefix + "last_run_duration_seconds",
		Help: "Wall time of the last run",
	})

	for outcome, n := range map[string]int{
		"cataloged":    sum.FilesCataloged,
		"undated":      sum.FilesUndated,
		"staged":       sum.FilesStaged,
		"reused":       sum.FilesReused,
		"stage_failed": sum.StageFailures,
		"merged":       sum.FilesMerged,
		"skipped":      sum.FilesSkipped,
	} {
		files.WithLabelValues(outcome).Set(float64(n))
	}
	for outcome, n := range map[string]int{
		"merged":    sum.RowsMerged,
		"malformed": sum.MalformedRows,
		"dropped":   sum.RowsDropped,
		"out":       sum.RowsOut,
		"filtered":  sum.RowsFiltered,
	} {
		rows.WithLabelValues(outcome).Set(float64(n))
	}
	columns.Set(float64(sum.Columns))
	locations.Set(float64(sum.Locations))
	if sum.Status == domain.RunSucceeded {
		success.Set(1)
	}
	finished.Set(float64(sum.FinishedAt.Unix()))
	duration.Set(sum.FinishedAt.Sub(sum.StartedAt).Seconds())

	reg := prometheus.NewRegistry()
	reg.MustRegister(files, rows, columns, locations, success, finished, duration)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
