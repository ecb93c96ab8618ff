package service

import (
	"context"
	"os"
	"sort"

	"github.com/okian/motorgen/internal/adapters/mq/worker"
	"github.com/okian/motorgen/internal/adapters/table"
	"github.com/okian/motorgen/internal/domain/identity"
	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/sections"
	"github.com/okian/motorgen/internal/domain/snapshot"
	"github.com/okian/motorgen/pkg/logger"
	"github.com/okian/motorgen/pkg/metrics"
)

// ExtractSummary reports the extract stage.
type ExtractSummary struct {
	Documents  int
	Misses     int
	Rows       int
	Duplicates int
}

// Extract reads every ranking document in bins_dir within the configured
// date range and writes the merged snapshot table. Documents are parsed
// in parallel and merged in file name order, so later documents win.
func (s *Service) Extract(ctx context.Context) (ExtractSummary, error) {
	var sum ExtractSummary
	err := s.stage(ctx, StageExtract, func(ctx context.Context) (int, error) {
		within, err := snapshot.ParseDateRange(s.cfg.StartDate, s.cfg.EndDate)
		if err != nil {
			return 0, err
		}
		docs, err := snapshot.ListDocuments(s.cfg.BinsDir, within)
		if err != nil {
			return 0, err
		}
		sum.Documents = len(docs)

		pool := worker.NewPool(s.cfg.WorkerCount, func(ctx context.Context, doc snapshot.Document) ([]model.SnapshotRecord, error) {
			metrics.RecordDocumentRead()
			recs, err := s.extractor.ExtractFile(ctx, doc)
			if err == nil && len(recs) == 0 {
				metrics.RecordExtractionMiss()
			}
			return recs, err
		}, worker.WithName(StageExtract), worker.WithLogger(s.logger.Named("worker")))
		batches, err := pool.Run(ctx, docs)
		if err != nil {
			return 0, err
		}
		for _, b := range batches {
			if len(b) == 0 {
				sum.Misses++
			}
		}

		merged, err := snapshot.Merge(batches)
		if err != nil {
			return 0, err
		}
		sum.Rows, sum.Duplicates = len(merged.Records), merged.Duplicates
		metrics.UpdateSnapshotRows(sum.Rows)
		metrics.RecordSnapshotDuplicates(sum.Duplicates)

		if err := s.write(FileSnapshots, table.SnapshotTable(merged.Records)); err != nil {
			return 0, err
		}
		if s.state != nil {
			if err := s.state.ReplaceSnapshots(ctx, merged.Records); err != nil {
				return 0, err
			}
		}
		s.logger.Info(ctx, "snapshots extracted",
			logger.Int("documents", sum.Documents),
			logger.Int("misses", sum.Misses),
			logger.Int("rows", sum.Rows),
			logger.Int("duplicates", sum.Duplicates))
		return sum.Rows, nil
	})
	return sum, err
}

// ResolveSummary reports the resolve stage.
type ResolveSummary struct {
	Slots       int
	Intervals   int
	Replaced    int // slots with more than one generation
	GapRejected int
}

// Resolve reads the snapshot table, infers generations per slot in
// parallel and writes the validated identity interval table.
func (s *Service) Resolve(ctx context.Context) (ResolveSummary, error) {
	var sum ResolveSummary
	err := s.stage(ctx, StageResolve, func(ctx context.Context) (int, error) {
		t, err := s.read(FileSnapshots)
		if err != nil {
			return 0, err
		}
		recs, err := table.Snapshots(t)
		if err != nil {
			return 0, err
		}
		slots := identity.GroupBySlot(recs)
		sum.Slots = len(slots)

		pool := worker.NewPool(s.cfg.WorkerCount, func(ctx context.Context, h identity.SlotHistory) (identity.SlotResult, error) {
			res, err := s.resolver.ResolveSlot(ctx, h)
			if err == nil {
				metrics.RecordSlotResolved(len(res.Intervals), res.Rejected())
			}
			return res, err
		}, worker.WithName(StageResolve), worker.WithLogger(s.logger.Named("worker")))
		results, err := pool.Run(ctx, slots)
		if err != nil {
			return 0, err
		}

		var ivs []model.MotorIdentityInterval
		for _, res := range results {
			ivs = append(ivs, res.Intervals...)
			sum.GapRejected += res.Rejected()
			if len(res.Intervals) > 1 {
				sum.Replaced++
			}
		}
		if err := identity.Validate(ivs); err != nil {
			return 0, err
		}
		sum.Intervals = len(ivs)

		if err := s.write(FileIntervals, table.IntervalTable(ivs)); err != nil {
			return 0, err
		}
		if s.state != nil {
			if err := s.state.ReplaceIntervals(ctx, ivs); err != nil {
				return 0, err
			}
		}
		return sum.Intervals, nil
	})
	return sum, err
}

func (s *Service) joinColumns() join.Columns {
	c := s.cfg.Columns
	return join.Columns{
		RaceID:           c.RaceID,
		Date:             c.Date,
		Venue:            c.Venue,
		MotorNumber:      c.MotorNumber,
		SectionID:        c.SectionID,
		Entry:            c.Entry,
		Rank:             c.Rank,
		StartTiming:      c.StartTiming,
		ExhibitionTiming: c.ExhibitionTiming,
	}
}

// Join normalizes the race table, drops void races, attaches same-day
// snapshot values and resolves each row's motor identity. Every input
// row that survives void removal appears once in races_joined.csv. The
// QC reports are written before the missing-rate gate is checked.
func (s *Service) Join(ctx context.Context) (join.Report, error) {
	var rep join.Report
	err := s.stage(ctx, StageJoin, func(ctx context.Context) (int, error) {
		cols := s.joinColumns()
		races, err := table.Read(s.cfg.RacesPath)
		if err != nil {
			return 0, err
		}
		if err := join.Normalize(races, cols); err != nil {
			return 0, err
		}
		voidRaces, voidRows := 0, 0
		if s.cfg.Join.DropVoidRaces {
			races, voidRaces, voidRows = join.DropVoidRaces(races, cols)
			metrics.RecordVoidRacesDropped(voidRaces)
		}
		join.AnnotateFinish(races, cols)

		keys, err := join.Keys(races, cols)
		if err != nil {
			return 0, err
		}

		snapTable, err := s.read(FileSnapshots)
		if err != nil {
			return 0, err
		}
		recs, err := table.Snapshots(snapTable)
		if err != nil {
			return 0, err
		}
		unmatched := join.AnnotateSnapshots(races, keys, recs)

		ivTable, err := s.read(FileIntervals)
		if err != nil {
			return 0, err
		}
		ivs, err := table.Intervals(ivTable)
		if err != nil {
			return 0, err
		}
		if len(ivs) == 0 {
			return 0, join.ErrNoIntervals
		}
		index := join.GroupIntervals(ivs)

		groups, invalid := join.Partition(keys)
		pool := worker.NewPool(s.cfg.WorkerCount, func(ctx context.Context, g join.KeyGroup) (join.GroupResult, error) {
			return s.joiner.JoinGroup(ctx, g, index.Intervals(g.Slot)), nil
		}, worker.WithName(StageJoin), worker.WithLogger(s.logger.Named("worker")))
		results, err := pool.Run(ctx, groups)
		if err != nil {
			return 0, err
		}
		res := join.Collect(results, invalid)
		join.AnnotateIdentities(races, keys, res.Assignments)

		rep = res.Report
		rep.SnapshotUnmatched = unmatched
		rep.VoidRaces, rep.VoidRows = voidRaces, voidRows
		metrics.RecordJoin(rep.Rows, rep.Unresolved, rep.Ambiguous)
		metrics.RecordSnapshotUnmatched(unmatched)

		if err := s.write(FileJoined, races); err != nil {
			return 0, err
		}
		if err := s.writeJoinQC(rep); err != nil {
			return 0, err
		}
		s.logger.Info(ctx, "races joined",
			logger.Int("rows", rep.Rows),
			logger.Int("unresolved", rep.Unresolved),
			logger.Float64("missing_rate", rep.MissingRate()),
			logger.Float64("snapshot_missing_rate", rep.SnapshotMissingRate()),
			logger.Int("ambiguous", rep.Ambiguous),
			logger.Int("void_races", rep.VoidRaces))
		if err := rep.Check(s.cfg.Join.MaxMissingRate); err != nil {
			return rep.Rows, err
		}
		return rep.Rows, nil
	})
	return rep, err
}

func (s *Service) baseColumns() sections.BaseColumns {
	return sections.BaseColumns{
		Identity:    join.ColIdentity,
		SectionID:   s.cfg.Columns.SectionID,
		Date:        s.cfg.Columns.Date,
		Entry:       s.cfg.Columns.Entry,
		Position:    join.ColFinishPosition,
		IsStart:     join.ColIsStart,
		FinishClass: join.ColFinishClass,
	}
}

// BaseMetrics lists every column of the section base table after the keys.
func BaseMetrics() []string {
	return append(sections.DefaultSumColumns(), sections.DefaultMeanColumns()...)
}

// BuildSections aggregates the joined race table into one row per
// (motor_identity, section_id).
func (s *Service) BuildSections(ctx context.Context) (sections.BaseStats, error) {
	var st sections.BaseStats
	err := s.stage(ctx, StageSections, func(ctx context.Context) (int, error) {
		t, err := s.read(FileJoined)
		if err != nil {
			return 0, err
		}
		rows, stats, err := sections.Aggregate(ctx, t, s.baseColumns())
		st = stats
		if err != nil {
			return 0, err
		}
		metrics.RecordSectionsBuilt(len(rows))
		if err := s.write(FileBase, sections.BaseTable("motor_section_base", rows, BaseMetrics())); err != nil {
			return 0, err
		}
		if err := s.writeSectionQC(st); err != nil {
			return 0, err
		}
		s.logger.Info(ctx, "sections aggregated",
			logger.Int("rows", st.Rows),
			logger.Int("sections", st.Sections),
			logger.Int("missing_key", st.MissingKey),
			logger.Int("void", st.Void),
			logger.Int("not_started", st.NotStarted),
			logger.Int("bad_date", st.BadDate))
		return len(rows), nil
	})
	return st, err
}

// FeatureSummary reports the features stage.
type FeatureSummary struct {
	Identities int
	Sections   int
	Columns    int
}

// BuildFeatures reads the section base table and writes trailing-window
// features per motor identity. Missing value columns and repeated
// (motor_identity, section_id) keys abort the stage.
func (s *Service) BuildFeatures(ctx context.Context) (FeatureSummary, error) {
	var sum FeatureSummary
	err := s.stage(ctx, StageFeatures, func(ctx context.Context) (int, error) {
		t, err := s.read(FileBase)
		if err != nil {
			return 0, err
		}
		values := s.builder.ValueColumns()
		rows, err := sections.RowsFromTable(t, values)
		if err != nil {
			return 0, err
		}
		groups, err := s.builder.Prepare(rows)
		if err != nil {
			return 0, err
		}

		pool := worker.NewPool(s.cfg.WorkerCount, func(_ context.Context, g sections.Group) ([]model.FeatureRow, error) {
			return s.builder.BuildGroup(g), nil
		}, worker.WithName(StageFeatures), worker.WithLogger(s.logger.Named("worker")))
		built, err := pool.Run(ctx, groups)
		if err != nil {
			return 0, err
		}
		var out []model.FeatureRow
		for _, g := range built {
			out = append(out, g...)
		}

		features := s.builder.FeatureColumns()
		sum = FeatureSummary{Identities: len(groups), Sections: len(out), Columns: len(features)}
		metrics.UpdateFeatureRows(len(out))

		if err := s.write(FileFeatures, sections.FeatureTable("motor_section_features", out, values, features)); err != nil {
			return 0, err
		}
		if s.state != nil {
			if err := s.state.ReplaceFeatures(ctx, out, values, features); err != nil {
				return 0, err
			}
		}
		return len(out), nil
	})
	return sum, err
}

// Outputs lists the output files present under out_dir, sorted.
func (s *Service) Outputs() []string {
	var out []string
	for _, name := range []string{FileSnapshots, FileIntervals, FileJoined, FileBase, FileFeatures} {
		if exists(s.Path(name)) {
			out = append(out, s.Path(name))
		}
	}
	sort.Strings(out)
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
