// Package config defines the pipeline configuration and its defaults.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load layers a YAML file, MOTORGEN_ environment variables and changed
//     command-line flags on top of those defaults.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Resolve modes.
const (
	ModeTransition = "transition"
	ModeAnyZero    = "any-zero"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// WorkerCount sets the number of goroutines used for per-group fan-out.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	// BinsDir holds the archived ranking documents.
	BinsDir string `koanf:"bins_dir"`
	// RacesPath is the flat race-row CSV.
	RacesPath string `koanf:"races_path"`
	// OutDir receives every CSV output and the qc/ reports.
	OutDir string `koanf:"out_dir" validate:"required"`
	// StatePath is the SQLite run-history database. Empty disables it.
	StatePath string `koanf:"state_path"`

	// StartDate and EndDate filter documents by filename date (YYYYMMDD, inclusive).
	StartDate string `koanf:"start_date" validate:"omitempty,len=8,numeric"`
	EndDate   string `koanf:"end_date" validate:"omitempty,len=8,numeric"`

	// MetricsFile receives a Prometheus textfile dump after batch runs.
	MetricsFile string `koanf:"metrics_file"`

	// Addr is the listen address of the lookup API.
	Addr string `koanf:"addr" validate:"required"`

	Resolve  ResolveConfig  `koanf:"resolve"`
	Join     JoinConfig     `koanf:"join"`
	Columns  ColumnsConfig  `koanf:"columns"`
	Features FeaturesConfig `koanf:"features"`
	Export   ExportConfig   `koanf:"export"`
}

// ResolveConfig tunes replacement detection.
type ResolveConfig struct {
	GapDays int    `koanf:"gap_days" validate:"min=0"`
	Mode    string `koanf:"mode" validate:"oneof=transition any-zero"`
}

// JoinConfig tunes the race join.
type JoinConfig struct {
	// MaxMissingRate fails the join when exceeded. 1.0 never fails.
	MaxMissingRate float64 `koanf:"max_missing_rate" validate:"gte=0,lte=1"`
	DropVoidRaces  bool    `koanf:"drop_void_races"`
}

// ColumnsConfig names the race table columns.
type ColumnsConfig struct {
	RaceID      string `koanf:"race_id" validate:"required"`
	Date        string `koanf:"date" validate:"required"`
	Venue       string `koanf:"venue" validate:"required"`
	MotorNumber string `koanf:"motor_number" validate:"required"`
	SectionID   string `koanf:"section_id" validate:"required"`
	Entry       string `koanf:"entry" validate:"required"`
	Rank        string `koanf:"rank" validate:"required"`
	// StartTiming and ExhibitionTiming are optional; absent columns are skipped.
	StartTiming      string `koanf:"start_timing"`
	ExhibitionTiming string `koanf:"exhibition_timing"`
}

// FeaturesConfig selects trailing windows and metric columns.
type FeaturesConfig struct {
	// Windows is a comma separated list of window sizes. Window 1 is implicit.
	Windows string `koanf:"windows"`
	// SumColumns and MeanColumns are comma separated metric names.
	SumColumns  string `koanf:"sum_columns"`
	MeanColumns string `koanf:"mean_columns"`
}

// ExportConfig toggles secondary output formats.
type ExportConfig struct {
	Parquet bool `koanf:"parquet"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		WorkerCount: runtime.NumCPU(),
		BinsDir:     "data/bins",
		RacesPath:   "data/races.csv",
		OutDir:      "out",
		StatePath:   "",
		Addr:        ":9080",
		Resolve: ResolveConfig{
			GapDays: 180,
			Mode:    ModeTransition,
		},
		Join: JoinConfig{
			MaxMissingRate: 1.0,
			DropVoidRaces:  true,
		},
		Columns: ColumnsConfig{
			RaceID:      "race_id",
			Date:        "date",
			Venue:       "code",
			MotorNumber: "motor_number",
			SectionID:   "section_id",
			Entry:       "entry",
			Rank:        "rank",

			StartTiming:      "ST",
			ExhibitionTiming: "ST_tenji",
		},
		Features: FeaturesConfig{
			Windows:     "3,5",
			SumColumns:  "motor_race_ct,motor_score_sum,motor_ranking_point_sum,motor_condition_point_sum",
			MeanColumns: "motor_score_rate,motor_ranking_point_rate,motor_condition_point_rate",
		},
	}
}

// WindowSizes parses Features.Windows into sorted, unique sizes greater
// than one. Window 1 is always computed and is filtered out here.
func (c *Config) WindowSizes() ([]int, error) {
	seen := map[int]bool{}
	var out []int
	for _, part := range splitList(c.Features.Windows) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: window %q is not a positive integer", ErrInvalidConfig, part)
		}
		if n == 1 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// SumColumns returns the configured sum-type metrics.
func (c *Config) SumColumns() []string { return splitList(c.Features.SumColumns) }

// MeanColumns returns the configured mean-type metrics.
func (c *Config) MeanColumns() []string { return splitList(c.Features.MeanColumns) }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
