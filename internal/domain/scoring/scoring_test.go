package scoring_test

import (
	"testing"

	"github.com/okian/motorgen/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given finishing positions", t, func() {
		Convey("Then positions 1..6 map to the score table", func() {
			want := []int{10, 8, 6, 4, 2, 1}
			for pos := 1; pos <= scoring.Courses; pos++ {
				So(scoring.Score(pos), ShouldEqual, want[pos-1])
			}
		})

		Convey("Then anything else scores zero", func() {
			So(scoring.Score(0), ShouldEqual, 0)
			So(scoring.Score(7), ShouldEqual, 0)
			So(scoring.Score(-1), ShouldEqual, 0)
		})
	})
}

func TestRankingPoint(t *testing.T) {
	Convey("Given every entry and position", t, func() {
		Convey("Then the ranking point is entry minus position", func() {
			for e := 1; e <= scoring.Courses; e++ {
				for p := 1; p <= scoring.Courses; p++ {
					So(scoring.RankingPoint(e, p), ShouldEqual, e-p)
				}
			}
		})

		Convey("Then out of range values give zero", func() {
			So(scoring.RankingPoint(0, 1), ShouldEqual, 0)
			So(scoring.RankingPoint(6, 7), ShouldEqual, 0)
		})
	})
}

func TestConditionPoint(t *testing.T) {
	Convey("Given the condition table", t, func() {
		Convey("Then course 1 rewards only a win", func() {
			So(scoring.ConditionPoint(1, 1), ShouldEqual, 2)
			So(scoring.ConditionPoint(1, 2), ShouldEqual, -1)
			So(scoring.ConditionPoint(1, 6), ShouldEqual, -5)
		})

		Convey("Then the adjusted cells differ from the ranking table", func() {
			So(scoring.ConditionPoint(2, 2), ShouldEqual, 1)
			So(scoring.ConditionPoint(3, 3), ShouldEqual, 1)
			So(scoring.ConditionPoint(6, 6), ShouldEqual, -1)
			So(scoring.ConditionPoint(4, 4), ShouldEqual, 0)
		})

		Convey("Then Race bundles all points", func() {
			So(scoring.Race(3, 1), ShouldResemble, scoring.Points{Score: 10, Ranking: 2, Condition: 2})
			So(scoring.Race(0, 2), ShouldResemble, scoring.Points{Score: 8})
		})
	})
}
