// Package service runs the motor pipeline stages: snapshot extraction,
// identity resolution, the race join, section aggregation and section
// features. Every stage reads its input from and writes its output to
// the output directory, so stages can be rerun one at a time.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okian/motorgen/internal/adapters/storage/duckdb"
	"github.com/okian/motorgen/internal/adapters/storage/sqlite"
	"github.com/okian/motorgen/internal/adapters/table"
	"github.com/okian/motorgen/internal/config"
	"github.com/okian/motorgen/internal/domain/identity"
	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/sections"
	"github.com/okian/motorgen/internal/domain/snapshot"
	"github.com/okian/motorgen/pkg/logger"
	"github.com/okian/motorgen/pkg/metrics"
)

// Stage names, also used as run and metric labels.
const (
	StageExtract  = "extract"
	StageResolve  = "resolve"
	StageJoin     = "join"
	StageSections = "sections"
	StageFeatures = "features"
)

// Output file names under the output directory.
const (
	FileSnapshots = "motor_snapshot.csv"
	FileIntervals = "motor_identity_map.csv"
	FileJoined    = "races_joined.csv"
	FileBase      = "motor_section_base.csv"
	FileFeatures  = "motor_section_features.csv"
	DirQC         = "qc"
)

// Service wires the domain stages to files, the state database and
// metrics.
type Service struct {
	cfg    *config.Config
	logger logger.Logger
	state  *sqlite.Store

	extractor *snapshot.Extractor
	resolver  *identity.Resolver
	joiner    *join.Joiner
	builder   *sections.Builder
}

// New builds a Service from cfg. Invalid resolve modes or window lists
// are reported here, before any stage runs.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	s := &Service{cfg: cfg, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	mode, err := identity.ParseMode(cfg.Resolve.Mode)
	if err != nil {
		return nil, err
	}
	windows, err := cfg.WindowSizes()
	if err != nil {
		return nil, err
	}

	s.extractor = snapshot.NewExtractor(snapshot.WithLogger(s.logger.Named("snapshot")))
	s.resolver = identity.NewResolver(
		identity.WithGapDays(cfg.Resolve.GapDays),
		identity.WithMode(mode),
		identity.WithLogger(s.logger.Named("identity")),
	)
	s.joiner = join.NewJoiner(join.WithLogger(s.logger.Named("join")))
	s.builder = sections.NewBuilder(
		sections.WithWindows(windows...),
		sections.WithSumColumns(cfg.SumColumns()...),
		sections.WithMeanColumns(cfg.MeanColumns()...),
		sections.WithLogger(s.logger.Named("sections")),
	)
	return s, nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// Builder returns the configured section feature builder.
func (s *Service) Builder() *sections.Builder { return s.builder }

// Path returns the location of an output file.
func (s *Service) Path(name string) string { return filepath.Join(s.cfg.OutDir, name) }

func (s *Service) qcPath(name string) string { return filepath.Join(s.cfg.OutDir, DirQC, name) }

// stage runs fn as one named stage: it records a run row when a state
// database is attached, times the stage and logs the outcome. fn returns
// the number of rows it wrote.
func (s *Service) stage(ctx context.Context, name string, fn func(ctx context.Context) (int, error)) error {
	var run sqlite.Run
	if s.state != nil {
		r, err := s.state.StartRun(ctx, name)
		if err != nil {
			return err
		}
		run = r
	}

	start := time.Now()
	rows, err := fn(ctx)
	elapsed := time.Since(start)

	status := sqlite.StatusSuccess
	if err != nil {
		status = sqlite.StatusFailed
	}
	metrics.RecordStage(name, status, float64(elapsed.Milliseconds()))

	if s.state != nil {
		if ferr := s.state.FinishRun(ctx, run.ID, rows, err); ferr != nil {
			s.logger.Warn(ctx, "failed to record run", logger.String("stage", name), logger.Error(ferr))
		}
	}
	if err != nil {
		s.logger.Error(ctx, "stage failed",
			logger.String("stage", name),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Info(ctx, "stage finished",
		logger.String("stage", name),
		logger.Int("rows", rows),
		logger.Duration("elapsed", elapsed))
	return nil
}

func (s *Service) read(name string) (*model.Table, error) {
	return table.Read(s.Path(name))
}

func (s *Service) write(name string, t *model.Table) error {
	return table.Write(s.Path(name), t)
}

// Summary collects the results of a full run.
type Summary struct {
	Extract  ExtractSummary
	Resolve  ResolveSummary
	Join     join.Report
	Sections sections.BaseStats
	Features FeatureSummary
	Parquet  []string
}

// RunAll runs every stage in order, then the optional Parquet export and
// metrics textfile dump. It stops at the first failing stage.
func (s *Service) RunAll(ctx context.Context) (Summary, error) {
	var (
		sum Summary
		err error
	)
	if sum.Extract, err = s.Extract(ctx); err != nil {
		return sum, err
	}
	if sum.Resolve, err = s.Resolve(ctx); err != nil {
		return sum, err
	}
	if sum.Join, err = s.Join(ctx); err != nil {
		return sum, err
	}
	if sum.Sections, err = s.BuildSections(ctx); err != nil {
		return sum, err
	}
	if sum.Features, err = s.BuildFeatures(ctx); err != nil {
		return sum, err
	}
	if sum.Parquet, err = s.Finish(ctx); err != nil {
		return sum, err
	}
	return sum, nil
}

// Finish runs the post-stage steps: Parquet copies of every existing
// output when export.parquet is set, and the metrics textfile.
func (s *Service) Finish(ctx context.Context) ([]string, error) {
	var written []string
	if s.cfg.Export.Parquet {
		paths, err := s.ExportParquet(ctx)
		if err != nil {
			return nil, err
		}
		written = paths
	}
	if err := metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		return written, err
	}
	return written, nil
}

// ExportParquet writes a Parquet copy of every output CSV that exists.
func (s *Service) ExportParquet(ctx context.Context) ([]string, error) {
	csvs := s.Outputs()
	if len(csvs) == 0 {
		return nil, nil
	}
	ex, err := duckdb.Open(ctx, duckdb.WithLogger(s.logger.Named("duckdb")))
	if err != nil {
		return nil, err
	}
	defer func() { _ = ex.Close() }()
	paths, err := ex.ExportAll(ctx, csvs...)
	if err != nil {
		return paths, err
	}
	s.logger.Info(ctx, "parquet export finished", logger.Int("files", len(paths)))
	return paths, nil
}
