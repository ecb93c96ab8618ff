package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/motorgen/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	convey.Convey("Given calendar dates", t, func() {
		convey.Convey("When parsing the accepted layouts", func() {
			want := model.MustDate(2025, time.March, 9)
			for _, in := range []string{"20250309", "20250309.0", "2025-03-09", "2025/03/09", "2025-03-09 17:45:00", " 20250309 "} {
				got, err := model.ParseDate(in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, want)
			}
		})

		convey.Convey("When parsing garbage", func() {
			for _, in := range []string{"", "2025-13-01", "20250230", "yesterday"} {
				_, err := model.ParseDate(in)
				convey.So(errors.Is(err, model.ErrInvalidDate), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When doing day arithmetic", func() {
			d := model.MustDate(2024, time.February, 28)

			convey.So(d.AddDays(1).String(), convey.ShouldEqual, "2024-02-29")
			convey.So(d.AddDays(2).Compact(), convey.ShouldEqual, "20240301")
			convey.So(d.AddDays(180).DaysSince(d), convey.ShouldEqual, 180)
			convey.So(model.FromTime(d.Time().Add(23*time.Hour)), convey.ShouldEqual, d)
		})

		convey.Convey("When comparing with the sentinels", func() {
			d := model.MustDate(2025, time.January, 1)

			convey.So(model.FarPast < d, convey.ShouldBeTrue)
			convey.So(d < model.FarFuture, convey.ShouldBeTrue)
			convey.So(model.FarPast.String(), convey.ShouldEqual, "1900-01-01")
			convey.So(model.FarFuture.String(), convey.ShouldEqual, "2100-12-31")
		})

		convey.Convey("When building an impossible date", func() {
			_, err := model.NewDate(2025, time.February, 30)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(func() { model.MustDate(2025, time.February, 30) }, convey.ShouldPanic)
		})
	})
}

func TestRecords(t *testing.T) {
	convey.Convey("Given a snapshot record", t, func() {
		r := model.SnapshotRecord{Date: model.MustDate(2026, time.January, 7), Venue: "07", MotorNumber: 12}

		convey.Convey("Then its identifiers derive from date and venue", func() {
			convey.So(r.SnapshotID(), convey.ShouldEqual, "20260107_07")
			convey.So(r.Slot().String(), convey.ShouldEqual, "07/12")
			convey.So(r.Key(), convey.ShouldResemble, model.SnapshotKey{Date: r.Date, Venue: "07", MotorNumber: 12})
		})
	})

	convey.Convey("Given an open interval", t, func() {
		from := model.MustDate(2025, time.May, 1)
		iv := model.MotorIdentityInterval{Venue: "07", MotorNumber: 12, Generation: 2, ValidFrom: from, ValidTo: model.FarFuture}

		convey.Convey("Then it contains every later day and nothing before", func() {
			convey.So(iv.Open(), convey.ShouldBeTrue)
			convey.So(iv.Contains(from), convey.ShouldBeTrue)
			convey.So(iv.Contains(from.AddDays(5000)), convey.ShouldBeTrue)
			convey.So(iv.Contains(from.AddDays(-1)), convey.ShouldBeFalse)
		})
	})
}
