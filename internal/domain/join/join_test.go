package join_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	d1 = model.MustDate(2024, time.January, 10)
	d2 = d1.AddDays(100)
	d3 = d1.AddDays(200)
)

// generations is slot 07/12 with generation 1 on [D1, D3-1] and
// generation 2 open from D3.
func generations() []model.MotorIdentityInterval {
	return []model.MotorIdentityInterval{
		{Venue: "07", MotorNumber: 12, Generation: 2, Identity: "071202", ValidFrom: d3, ValidTo: model.FarFuture},
		{Venue: "07", MotorNumber: 12, Generation: 1, Identity: "071201", ValidFrom: d1, ValidTo: d3.AddDays(-1)},
	}
}

func key(row int, d model.Date) model.RaceKey {
	return model.RaceKey{Row: row, RaceID: "r", Date: d, Venue: "07", MotorNumber: 12, Valid: true}
}

func TestMatchDate(t *testing.T) {
	Convey("Given the intervals of one slot", t, func() {
		ivs := join.GroupIntervals(generations()).Intervals(model.Slot{Venue: "07", MotorNumber: 12})

		Convey("Then a date inside generation 1 resolves to it", func() {
			m := join.MatchDate(ivs, d2)
			So(m.Found, ShouldBeTrue)
			So(m.Interval.Identity, ShouldEqual, "071201")
			So(m.Ambiguous(), ShouldBeFalse)
		})

		Convey("Then the boundaries are inclusive", func() {
			So(join.MatchDate(ivs, d1).Interval.Identity, ShouldEqual, "071201")
			So(join.MatchDate(ivs, d3.AddDays(-1)).Interval.Identity, ShouldEqual, "071201")
			So(join.MatchDate(ivs, d3).Interval.Identity, ShouldEqual, "071202")
		})

		Convey("Then a date after the last start resolves to the open generation", func() {
			So(join.MatchDate(ivs, d3.AddDays(4000)).Interval.Identity, ShouldEqual, "071202")
		})

		Convey("Then a date before the first observation is unresolved", func() {
			m := join.MatchDate(ivs, d1.AddDays(-1))
			So(m.Found, ShouldBeFalse)
			So(m.Candidates, ShouldEqual, 0)
		})

		Convey("Then a date in a gap between intervals is unresolved", func() {
			gap := []model.MotorIdentityInterval{
				{Identity: "a", ValidFrom: d1, ValidTo: d1.AddDays(10)},
				{Identity: "b", ValidFrom: d1.AddDays(20), ValidTo: model.FarFuture},
			}
			So(join.MatchDate(gap, d1.AddDays(15)).Found, ShouldBeFalse)
		})
	})

	Convey("Given overlapping intervals", t, func() {
		ivs := []model.MotorIdentityInterval{
			{Identity: "old", Generation: 1, ValidFrom: d1, ValidTo: model.FarFuture},
			{Identity: "mid", Generation: 2, ValidFrom: d2, ValidTo: d3},
			{Identity: "new", Generation: 3, ValidFrom: d3, ValidTo: model.FarFuture},
		}
		join.SortByStart(ivs)

		Convey("Then the most recently started interval wins", func() {
			m := join.MatchDate(ivs, d3)
			So(m.Interval.Identity, ShouldEqual, "new")
			So(m.Candidates, ShouldEqual, 3)
			So(m.Ambiguous(), ShouldBeTrue)
		})

		Convey("Then an earlier date only sees the intervals covering it", func() {
			m := join.MatchDate(ivs, d2.AddDays(1))
			So(m.Interval.Identity, ShouldEqual, "mid")
			So(m.Candidates, ShouldEqual, 2)
		})
	})

	Convey("Given an interval with a sentinel start", t, func() {
		ivs := []model.MotorIdentityInterval{{Identity: "x", ValidFrom: model.FarPast, ValidTo: d1}}

		Convey("Then any earlier date matches", func() {
			So(join.MatchDate(ivs, model.MustDate(1950, time.March, 1)).Found, ShouldBeTrue)
		})
	})
}

func TestJoin(t *testing.T) {
	ctx := context.Background()

	Convey("Given race keys for one slot and a foreign slot", t, func() {
		keys := []model.RaceKey{
			key(0, d3.AddDays(5)),
			key(1, d2),
			key(2, d1.AddDays(-3)),
			{Row: 3, RaceID: "x", Date: d2, Venue: "01", MotorNumber: 1, Valid: true},
			{Row: 4, RaceID: "bad", Venue: "07"},
		}
		src := join.GroupIntervals(generations())

		Convey("When joined", func() {
			res, err := join.NewJoiner().Join(ctx, keys, src)
			So(err, ShouldBeNil)

			Convey("Then every row appears exactly once in row order", func() {
				So(len(res.Assignments), ShouldEqual, len(keys))
				for i, a := range res.Assignments {
					So(a.Row, ShouldEqual, i)
				}
			})

			Convey("Then identities follow the covering interval", func() {
				So(res.Assignments[0].Identity, ShouldResemble, sql.NullString{String: "071202", Valid: true})
				So(res.Assignments[1].Identity.String, ShouldEqual, "071201")
				So(res.Assignments[2].Identity.Valid, ShouldBeFalse)
				So(res.Assignments[3].Identity.Valid, ShouldBeFalse)
				So(res.Assignments[4].Identity.Valid, ShouldBeFalse)
			})

			Convey("Then the report counts unresolved rows overall and by venue", func() {
				r := res.Report
				So(r.Rows, ShouldEqual, 5)
				So(r.Unresolved, ShouldEqual, 3)
				So(r.InvalidKeys, ShouldEqual, 1)
				So(r.MissingRate(), ShouldAlmostEqual, 0.6)
				venues := r.Venues()
				So(len(venues), ShouldEqual, 2)
				So(venues[0], ShouldResemble, join.VenueStat{Venue: "01", Rows: 1, Unresolved: 1})
				So(venues[1], ShouldResemble, join.VenueStat{Venue: "07", Rows: 4, Unresolved: 2})
				So(venues[1].MissingRate(), ShouldAlmostEqual, 0.5)
			})

			Convey("Then the gate fails only above the limit", func() {
				So(res.Report.Check(1), ShouldBeNil)
				So(res.Report.Check(0.6), ShouldBeNil)
				err := res.Report.Check(0.5)
				So(errors.Is(err, join.ErrMissingRateExceeded), ShouldBeTrue)
			})
		})
	})

	Convey("Given overlapping intervals", t, func() {
		var buf bytes.Buffer
		ivs := append(generations(), model.MotorIdentityInterval{
			Venue: "07", MotorNumber: 12, Generation: 3, Identity: "071203", ValidFrom: d2, ValidTo: model.FarFuture,
		})

		Convey("When a race date falls in both", func() {
			res, err := join.NewJoiner(join.WithLogger(logger.New(&buf))).
				Join(ctx, []model.RaceKey{key(0, d3.AddDays(1))}, join.GroupIntervals(ivs))
			So(err, ShouldBeNil)

			Convey("Then the latest start wins and the match is reported", func() {
				So(res.Assignments[0].Identity.String, ShouldEqual, "071202")
				So(res.Assignments[0].Ambiguous, ShouldBeTrue)
				So(res.Report.Ambiguous, ShouldEqual, 1)
				So(buf.String(), ShouldContainSubstring, "ambiguous identity match")
				So(buf.String(), ShouldContainSubstring, "level=ERROR")
				So(buf.String(), ShouldContainSubstring, "candidates=2")
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		Convey("Then Join stops", func() {
			_, err := join.NewJoiner().Join(cctx, []model.RaceKey{key(0, d1)}, join.Groups{})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func raceTable() *model.Table {
	t := model.NewTable("races", "race_id", "date", "code", "motor_number", "section_id", "rank", "ST", "ST_tenji")
	t.Append([]string{"2.02401E+11", "20240110.0", "7", "12.0", "20240108-3", "1", "F.01", "4  L"})
	t.Append([]string{"202401100702", "2024-01-10", "07", "12", "20240108_3", "＿", ".07", "07"})
	t.Append([]string{"202401100702", "2024-01-10", "07", "13", "20240108_3", "2", "L", ""})
	t.Append([]string{"202401100703", "2024-01-10", "07", "13", "20240108_3", "欠", "", ""})
	t.Append([]string{"202401100704", "garbage", "07", "14", "20240108_3", "3", "", ""})
	return t
}

func columns() join.Columns {
	return join.Columns{
		RaceID: "race_id", Date: "date", Venue: "code", MotorNumber: "motor_number",
		SectionID: "section_id", Entry: "entry", Rank: "rank",
		StartTiming: "ST", ExhibitionTiming: "ST_tenji",
	}
}

func TestRaceTable(t *testing.T) {
	Convey("Given a raw race table", t, func() {
		tbl := raceTable()
		cols := columns()

		Convey("When a required column is missing", func() {
			bare := model.NewTable("races", "race_id", "date")
			err := join.Normalize(bare, cols)

			Convey("Then every missing column is named", func() {
				var mce *model.MissingColumnsError
				So(errors.As(err, &mce), ShouldBeTrue)
				So(mce.Missing, ShouldResemble, []string{"code", "motor_number"})
				So(errors.Is(err, model.ErrMissingColumns), ShouldBeTrue)
			})
		})

		Convey("When normalized", func() {
			So(join.Normalize(tbl, cols), ShouldBeNil)

			Convey("Then identifiers are canonical", func() {
				So(tbl.Get(0, "race_id"), ShouldEqual, "202401000000")
				So(tbl.Get(0, "code"), ShouldEqual, "07")
				So(tbl.Get(0, "motor_number"), ShouldEqual, "12")
				So(tbl.Get(0, "section_id"), ShouldEqual, "20240108_03")
			})

			Convey("And void races are dropped", func() {
				out, races, rows := join.DropVoidRaces(tbl, cols)
				So(races, ShouldEqual, 1)
				So(rows, ShouldEqual, 2)
				So(out.Len(), ShouldEqual, 3)
				So(out.Get(0, "race_id"), ShouldEqual, "202401000000")
				So(out.Get(1, "race_id"), ShouldEqual, "202401100703")

				Convey("And keys carry parsed fields", func() {
					keys, err := join.Keys(out, cols)
					So(err, ShouldBeNil)
					So(len(keys), ShouldEqual, 3)
					So(keys[0].Valid, ShouldBeTrue)
					So(keys[0].Date, ShouldEqual, d1)
					So(keys[0].Slot(), ShouldResemble, model.Slot{Venue: "07", MotorNumber: 12})
					So(keys[2].Valid, ShouldBeFalse)
					So(keys[2].Venue, ShouldEqual, "07")
				})
			})
		})

		Convey("When finish and timing columns are annotated", func() {
			join.AnnotateFinish(tbl, cols)

			Convey("Then tokens are classified", func() {
				So(tbl.Get(0, join.ColFinishClass), ShouldEqual, "finish")
				So(tbl.Get(0, join.ColFinishPosition), ShouldEqual, "1")
				So(tbl.Get(0, join.ColIsStart), ShouldEqual, "true")
				So(tbl.Get(1, join.ColFinishClass), ShouldEqual, "void")
				So(tbl.Get(3, join.ColIsStart), ShouldEqual, "false")
				So(tbl.Get(3, join.ColFinishPosition), ShouldEqual, "")
			})

			Convey("Then start timings are in seconds", func() {
				So(tbl.Get(0, join.ColStartTiming), ShouldEqual, "-0.01")
				So(tbl.Get(0, join.ColExhibitionST), ShouldEqual, "0.45")
				So(tbl.Get(1, join.ColStartTiming), ShouldEqual, "0.07")
				So(tbl.Get(1, join.ColExhibitionST), ShouldEqual, "0.07")
				So(tbl.Get(2, join.ColStartTiming), ShouldEqual, "")
			})
		})
	})

	Convey("Given a table without a rank column", t, func() {
		tbl := model.NewTable("races", "race_id", "date", "code", "motor_number")
		tbl.Append([]string{"1", "20240110", "07", "12"})

		Convey("Then nothing is dropped or annotated", func() {
			out, races, rows := join.DropVoidRaces(tbl, columns())
			So(out, ShouldEqual, tbl)
			So(races+rows, ShouldEqual, 0)
			join.AnnotateFinish(tbl, columns())
			So(tbl.Has(join.ColIsStart), ShouldBeFalse)
		})
	})
}

func TestAnnotate(t *testing.T) {
	Convey("Given keys, snapshots and assignments", t, func() {
		tbl := model.NewTable("races", "race_id")
		tbl.Append([]string{"a"})
		tbl.Append([]string{"b"})
		tbl.Append([]string{"c"})
		keys := []model.RaceKey{key(0, d1), key(1, d2), {Row: 2}}
		recs := []model.SnapshotRecord{
			{Date: d1, Venue: "07", MotorNumber: 12, Rank: sql.NullInt64{Int64: 3, Valid: true},
				TwoPlaceRate: sql.NullFloat64{Float64: 41.5, Valid: true}, PrecheckTime: sql.NullFloat64{Float64: 6.71, Valid: true}},
			{Date: d1, Venue: "07", MotorNumber: 12, Rank: sql.NullInt64{Int64: 9, Valid: true}},
		}

		Convey("When snapshot columns are joined", func() {
			unmatched := join.AnnotateSnapshots(tbl, keys, recs)

			Convey("Then the first record of a key is used", func() {
				So(unmatched, ShouldEqual, 2)
				So(tbl.Get(0, join.ColSnapshotID), ShouldEqual, "20240110_07")
				So(tbl.Get(0, join.ColMotorRank), ShouldEqual, "3")
				So(tbl.Get(0, join.ColTwoPlaceRate), ShouldEqual, "41.5")
				So(tbl.Get(0, join.ColPrecheckTime), ShouldEqual, "6.71")
				So(tbl.Get(1, join.ColSnapshotID), ShouldEqual, "")
			})
		})

		Convey("When identities are written", func() {
			as := []model.Assignment{
				{Row: 0, Identity: sql.NullString{String: "071201", Valid: true}},
				{Row: 1},
				{Row: 2},
			}
			join.AnnotateIdentities(tbl, keys, as)

			Convey("Then unresolved rows stay empty", func() {
				So(tbl.Get(0, join.ColIdentity), ShouldEqual, "071201")
				So(tbl.Get(0, join.ColDateISO), ShouldEqual, "2024-01-10")
				So(tbl.Get(1, join.ColIdentity), ShouldEqual, "")
				So(tbl.Get(1, join.ColDateISO), ShouldEqual, "2024-04-19")
				So(tbl.Get(2, join.ColDateISO), ShouldEqual, "")
			})
		})
	})
}
