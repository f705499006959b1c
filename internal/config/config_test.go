package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ERCOT_SOURCE_DIR", "ERCOT_STAGING_DIR", "ERCOT_OUTPUT", "ERCOT_OUTPUT_FORMAT",
		"ERCOT_LEDGER", "ERCOT_MERGE_WORKERS", "ERCOT_ALLOWED_LOCATIONS", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ercot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
source:
  root_dir: "/archive"
  extensions: [".csv", ".txt"]
staging:
  dir: "/staged"
  copy_attempts: 5
  retry_delay: 1s
merge:
  workers: 8
normalize:
  date_column: "OperDay"
  hour_column: "HE"
filter:
  enabled: true
  location_column: "Node"
  allowed_locations: ["HB_HOUSTON"]
output:
  path: "/out/merged.parquet"
  format: "parquet"
  index: true
ledger:
  sqlite_path: "/out/runs.db"
metrics:
  textfile: "/out/ercot.prom"
logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/archive", cfg.Source.RootDir)
	assert.Equal(t, []string{".csv", ".txt"}, cfg.Source.Extensions)
	assert.Equal(t, DefaultDatePattern, cfg.Source.DatePattern, "unset field keeps default")
	assert.Equal(t, "/staged", cfg.Staging.Dir)
	assert.Equal(t, 5, cfg.Staging.CopyAttempts)
	assert.Equal(t, time.Second, cfg.Staging.RetryDelay)
	assert.Equal(t, 8, cfg.Merge.Workers)
	assert.Equal(t, "OperDay", cfg.Normalize.DateColumn)
	assert.Equal(t, "HE", cfg.Normalize.HourColumn)
	assert.NotEmpty(t, cfg.Normalize.DateLayouts)
	assert.True(t, cfg.Filter.Enabled)
	assert.Equal(t, "Node", cfg.Filter.LocationColumn)
	assert.Equal(t, []string{"HB_HOUSTON"}, cfg.Filter.AllowedLocations)
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.True(t, cfg.Output.Index)
	assert.Equal(t, "/out/runs.db", cfg.Ledger.SQLitePath)
	assert.Equal(t, "/out/ercot.prom", cfg.Metrics.Textfile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "DeliveryDate", cfg.Normalize.DateColumn)
	assert.Equal(t, "HourEnding", cfg.Normalize.HourColumn)
	assert.Equal(t, "SettlementPoint", cfg.Filter.LocationColumn)
	assert.Equal(t, []string{".csv"}, cfg.Source.Extensions)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.False(t, cfg.Output.Index)
	assert.False(t, cfg.Filter.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
source:
  root_dir: "/original"
output:
  path: "/original/out.csv"
`)

	t.Setenv("ERCOT_SOURCE_DIR", "/env/archive")
	t.Setenv("ERCOT_MERGE_WORKERS", "2")
	t.Setenv("ERCOT_ALLOWED_LOCATIONS", "HB_NORTH, HB_WEST,,")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/env/archive", cfg.Source.RootDir)
	assert.Equal(t, "/original/out.csv", cfg.Output.Path, "no override set")
	assert.Equal(t, 2, cfg.Merge.Workers)
	assert.Equal(t, []string{"HB_NORTH", "HB_WEST"}, cfg.Filter.AllowedLocations)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadBadWorkersEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ERCOT_MERGE_WORKERS", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERCOT_MERGE_WORKERS")
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown format", "output:\n  format: \"json\"\n"},
		{"zero workers", "merge:\n  workers: 0\n"},
		{"no hour column", "normalize:\n  hour_column: \"\"\n"},
		{"bad log level", "logging:\n  level: \"verbose\"\n"},
		{"no extensions", "source:\n  extensions: []\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,b,"))
	assert.Nil(t, SplitList(" , "))
}
