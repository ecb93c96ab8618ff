package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/motorgen/internal/adapters/storage/sqlite"
	"github.com/okian/motorgen/internal/adapters/table"
	service "github.com/okian/motorgen/internal/app"
	"github.com/okian/motorgen/internal/config"
	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/sections"
	"github.com/okian/motorgen/internal/fixtures"
	. "github.com/smartystreets/goconvey/convey"
)

func archiveConfig() fixtures.Config {
	cfg := fixtures.DefaultConfig()
	cfg.Venues = []string{"01", "07"}
	cfg.Motors = 8
	cfg.Sections = 30
	cfg.ReplaceProb = 0.6
	cfg.VoidProb = 0.05
	return cfg
}

func setup(t *testing.T) (*config.Config, *fixtures.Archive) {
	dir := t.TempDir()
	a := fixtures.Generate(archiveConfig())
	p, err := fixtures.Write(filepath.Join(dir, "data"), a)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.New()
	cfg.BinsDir = p.BinsDir
	cfg.RacesPath = p.Races
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.WorkerCount = 3
	return cfg, a
}

func TestNew(t *testing.T) {
	Convey("Given no config", t, func() {
		_, err := service.New(nil)
		So(errors.Is(err, service.ErrNilConfig), ShouldBeTrue)
	})

	Convey("Given an unknown resolve mode", t, func() {
		cfg := config.New()
		cfg.Resolve.Mode = "eager"
		_, err := service.New(cfg)
		So(err, ShouldNotBeNil)
	})

	Convey("Given the default windows", t, func() {
		svc, err := service.New(config.New())
		So(err, ShouldBeNil)
		So(svc.Builder().Windows(), ShouldResemble, []int{3, 5})
	})
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()

	Convey("Given a generated archive and a state database", t, func() {
		cfg, a := setup(t)
		st, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "state.db"))
		So(err, ShouldBeNil)
		defer st.Close()

		svc, err := service.New(cfg, service.WithState(st))
		So(err, ShouldBeNil)

		Convey("When the whole pipeline runs", func() {
			sum, err := svc.RunAll(ctx)
			So(err, ShouldBeNil)

			Convey("Then every document is read and no slot is lost", func() {
				So(sum.Extract.Documents, ShouldEqual, len(a.Documents))
				So(sum.Extract.Misses, ShouldEqual, 0)
				So(sum.Extract.Rows, ShouldEqual, len(a.Documents)*8)
				So(sum.Resolve.Slots, ShouldEqual, 16)
				So(sum.Resolve.Intervals, ShouldEqual, 16+len(a.Replacements))
				So(sum.Resolve.Replaced, ShouldEqual, len(a.Replacements))
			})

			Convey("Then each injected replacement starts a new generation", func() {
				ivTable, err := table.Read(svc.Path(service.FileIntervals))
				So(err, ShouldBeNil)
				ivs, err := table.Intervals(ivTable)
				So(err, ShouldBeNil)
				starts := map[model.Slot][]model.Date{}
				for _, iv := range ivs {
					starts[iv.Slot()] = append(starts[iv.Slot()], iv.ValidFrom)
				}
				for slot, day := range a.Replacements {
					So(starts[slot], ShouldHaveLength, 2)
					So(starts[slot][1], ShouldEqual, day)
				}
			})

			Convey("Then void races are dropped and every other row resolves", func() {
				So(sum.Join.VoidRaces, ShouldEqual, len(a.VoidRaces))
				So(sum.Join.Rows, ShouldEqual, a.Races.Len()-sum.Join.VoidRows)
				So(sum.Join.Unresolved, ShouldEqual, 0)
				So(sum.Join.Ambiguous, ShouldEqual, 0)

				joined, err := table.Read(svc.Path(service.FileJoined))
				So(err, ShouldBeNil)
				So(joined.Len(), ShouldEqual, sum.Join.Rows)
				So(joined.Has(join.ColIdentity), ShouldBeTrue)
				So(joined.Get(0, "code"), ShouldEqual, "01")
			})

			Convey("Then features are written with the trailing columns", func() {
				So(sum.Features.Sections, ShouldEqual, sum.Sections.Sections)
				ft, err := table.Read(svc.Path(service.FileFeatures))
				So(err, ShouldBeNil)
				So(ft.Has("prev1_motor_race_ct"), ShouldBeTrue)
				So(ft.Has("prev5_mean_motor_score_rate"), ShouldBeTrue)
				So(ft.Has("delta_1_3_motor_condition_point_rate"), ShouldBeTrue)
				So(ft.Get(0, sections.ColIdentity), ShouldHaveLength, 6)
			})

			Convey("Then QC reports exist", func() {
				for _, name := range []string{service.QCJoinSummary, service.QCJoinByVenue, service.QCSectionDrops} {
					_, err := os.Stat(filepath.Join(cfg.OutDir, service.DirQC, name))
					So(err, ShouldBeNil)
				}
			})

			Convey("Then five successful runs are recorded", func() {
				runs, err := st.Runs(ctx, 10)
				So(err, ShouldBeNil)
				So(runs, ShouldHaveLength, 5)
				for _, r := range runs {
					So(r.Status, ShouldEqual, sqlite.StatusSuccess)
				}
				ivs, err := st.Intervals(ctx)
				So(err, ShouldBeNil)
				So(ivs, ShouldHaveLength, sum.Resolve.Intervals)
			})
		})
	})
}

func TestJoinGate(t *testing.T) {
	ctx := context.Background()

	Convey("Given races at a venue without any snapshot", t, func() {
		cfg, _ := setup(t)
		races, err := table.Read(cfg.RacesPath)
		So(err, ShouldBeNil)
		for i := 0; i < 50; i++ {
			races.Append([]string{"2023010599" + "01", "20230105", "99", "1", "20230105_1", "1", "1", "", ""})
		}
		So(table.Write(cfg.RacesPath, races), ShouldBeNil)
		cfg.Join.MaxMissingRate = 0.001

		svc, err := service.New(cfg)
		So(err, ShouldBeNil)
		_, err = svc.Extract(ctx)
		So(err, ShouldBeNil)
		_, err = svc.Resolve(ctx)
		So(err, ShouldBeNil)

		Convey("When joined with a strict missing-rate limit", func() {
			rep, err := svc.Join(ctx)

			Convey("Then the stage fails after writing its reports", func() {
				So(errors.Is(err, join.ErrMissingRateExceeded), ShouldBeTrue)
				So(rep.Unresolved, ShouldEqual, 50)
				So(rep.ByVenue["99"].Unresolved, ShouldEqual, 50)
				_, statErr := os.Stat(filepath.Join(cfg.OutDir, service.DirQC, service.QCJoinByVenue))
				So(statErr, ShouldBeNil)
			})
		})
	})
}

func TestFeatureKeyIntegrity(t *testing.T) {
	ctx := context.Background()

	Convey("Given a section base table with a repeated key", t, func() {
		cfg := config.New()
		cfg.OutDir = t.TempDir()
		svc, err := service.New(cfg)
		So(err, ShouldBeNil)

		base := model.NewTable("base", append([]string{sections.ColIdentity, sections.ColSectionID, sections.ColStart, sections.ColEnd}, service.BaseMetrics()...)...)
		row := []string{"71201", "20240101_1", "2024-01-01", "2024-01-04", "4", "20", "10", "8", "5", "2.5", "2"}
		base.Append(row)
		base.Append(append([]string{"071201", "20240101_01"}, row[2:]...))
		So(table.Write(svc.Path(service.FileBase), base), ShouldBeNil)

		Convey("When features are built", func() {
			_, err := svc.BuildFeatures(ctx)

			Convey("Then the stage aborts naming the key", func() {
				var ke *sections.KeyError
				So(errors.As(err, &ke), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "071201/20240101_01")
			})
		})
	})

	Convey("Given a section base table without a configured metric", t, func() {
		cfg := config.New()
		cfg.OutDir = t.TempDir()
		svc, err := service.New(cfg)
		So(err, ShouldBeNil)
		base := model.NewTable("base", sections.ColIdentity, sections.ColSectionID, sections.ColStart, sections.ColEnd, "motor_race_ct")
		base.Append([]string{"071201", "20240101_01", "2024-01-01", "2024-01-04", "4"})
		So(table.Write(svc.Path(service.FileBase), base), ShouldBeNil)

		_, err = svc.BuildFeatures(ctx)
		So(errors.Is(err, model.ErrMissingColumns), ShouldBeTrue)
	})
}
