package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the ingestion pipeline.
type Config struct {
	Source    Source    `yaml:"source"`
	Staging   Staging   `yaml:"staging"`
	Merge     Merge     `yaml:"merge"`
	Normalize Normalize `yaml:"normalize"`
	Filter    Filter    `yaml:"filter"`
	Output    Output    `yaml:"output"`
	Ledger    Ledger    `yaml:"ledger"`
	Metrics   Metrics   `yaml:"metrics"`
	Logging   Logging   `yaml:"logging"`
}

// Source describes where extracted archive files live and how their names
// encode the settlement date.
type Source struct {
	RootDir     string   `yaml:"root_dir" validate:"required"`
	Extensions  []string `yaml:"extensions" validate:"min=1,dive,required"`
	DatePattern string   `yaml:"date_pattern" validate:"required"`
	DateLayout  string   `yaml:"date_layout" validate:"required"`
}

// Staging holds the flat consolidation directory and copy retry policy.
type Staging struct {
	Dir          string        `yaml:"dir" validate:"required"`
	CopyAttempts int           `yaml:"copy_attempts" validate:"min=1"`
	RetryDelay   time.Duration `yaml:"retry_delay" validate:"min=0"`
}

// Merge controls how staged files are read.
type Merge struct {
	Workers int `yaml:"workers" validate:"min=1"`
}

// Normalize names the columns that carry the settlement date and the
// hour-ending label, and the accepted date layouts.
type Normalize struct {
	DateColumn  string   `yaml:"date_column" validate:"required"`
	HourColumn  string   `yaml:"hour_column" validate:"required"`
	DateLayouts []string `yaml:"date_layouts" validate:"min=1,dive,required"`
}

// Filter selects settlement points. The filter stage only runs inside a
// full pipeline run when Enabled is set.
type Filter struct {
	Enabled          bool     `yaml:"enabled"`
	LocationColumn   string   `yaml:"location_column" validate:"required"`
	AllowedLocations []string `yaml:"allowed_locations"`
}

// Output configures persistence of the final dataset.
type Output struct {
	Path   string `yaml:"path" validate:"required"`
	Format string `yaml:"format" validate:"oneof=csv parquet xlsx"`
	Index  bool   `yaml:"index"`
	// Manifest, when set, receives a Parquet listing of staged files.
	Manifest string `yaml:"manifest"`
}

// Ledger holds the SQLite run history location. Empty disables it.
type Ledger struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Metrics holds the Prometheus textfile destination. Empty disables it.
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// DefaultDatePattern matches an 8-digit token bounded by separators, as in
// cdr.00012331.0000000000000000.20220406.122934.DAMSPNP4190.csv.
const DefaultDatePattern = `(?:^|[._\-])(\d{8})(?:[._\-]|$)`

// Default returns a configuration populated with every default value.
func Default() *Config {
	return &Config{
		Source: Source{
			RootDir:     "Data/ERCOT Data",
			Extensions:  []string{".csv"},
			DatePattern: DefaultDatePattern,
			DateLayout:  "20060102",
		},
		Staging: Staging{
			Dir:          "Data/staged",
			CopyAttempts: 3,
			RetryDelay:   200 * time.Millisecond,
		},
		Merge: Merge{Workers: 4},
		Normalize: Normalize{
			DateColumn:  "DeliveryDate",
			HourColumn:  "HourEnding",
			DateLayouts: []string{"01/02/2006", "2006-01-02", "1/2/2006", "2006/01/02", "20060102"},
		},
		Filter: Filter{
			LocationColumn:   "SettlementPoint",
			AllowedLocations: []string{"HB_NORTH", "HB_WEST"},
		},
		Output: Output{
			Path:   "Data/merged_ercot_data.csv",
			Format: "csv",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, applies environment variable overrides, and validates the
// result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ERCOT_SOURCE_DIR"); v != "" {
		cfg.Source.RootDir = v
	}

	if v := os.Getenv("ERCOT_STAGING_DIR"); v != "" {
		cfg.Staging.Dir = v
	}

	if v := os.Getenv("ERCOT_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}

	if v := os.Getenv("ERCOT_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}

	if v := os.Getenv("ERCOT_LEDGER"); v != "" {
		cfg.Ledger.SQLitePath = v
	}

	if v := os.Getenv("ERCOT_MERGE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ERCOT_MERGE_WORKERS: %w", err)
		}
		cfg.Merge.Workers = n
	}

	if v := os.Getenv("ERCOT_ALLOWED_LOCATIONS"); v != "" {
		cfg.Filter.AllowedLocations = SplitList(v)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
