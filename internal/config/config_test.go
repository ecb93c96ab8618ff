package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/motorgen/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have pipeline defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Resolve.GapDays, convey.ShouldEqual, 180)
			convey.So(cfg.Resolve.Mode, convey.ShouldEqual, config.ModeTransition)
			convey.So(cfg.Join.MaxMissingRate, convey.ShouldEqual, 1.0)
			convey.So(cfg.Join.DropVoidRaces, convey.ShouldBeTrue)
			convey.So(cfg.Columns.Venue, convey.ShouldEqual, "code")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_WindowSizes(t *testing.T) {
	convey.Convey("Given a windows list", t, func() {
		cfg := config.New()

		convey.Convey("When it contains 1, duplicates and spaces", func() {
			cfg.Features.Windows = " 5, 1,3,5 "
			sizes, err := cfg.WindowSizes()

			convey.Convey("Then 1 is implicit and the rest are sorted and unique", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sizes, convey.ShouldResemble, []int{3, 5})
			})
		})

		convey.Convey("When it is empty", func() {
			cfg.Features.Windows = ""
			sizes, err := cfg.WindowSizes()

			convey.Convey("Then only the implicit window remains", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sizes, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When it contains garbage", func() {
			cfg.Features.Windows = "3,x"
			_, err := cfg.WindowSizes()

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When it contains a non-positive size", func() {
			cfg.Features.Windows = "0"
			_, err := cfg.WindowSizes()
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the mode is unknown", func() {
			cfg.Resolve.Mode = "sometimes"
			err := cfg.Validate()

			convey.Convey("Then validation names the field", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Mode")
			})
		})

		convey.Convey("When the gap is negative", func() {
			cfg.Resolve.GapDays = -1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the missing rate gate is out of range", func() {
			cfg.Join.MaxMissingRate = 1.5
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the date range is inverted", func() {
			cfg.StartDate = "20250201"
			cfg.EndDate = "20250101"
			err := cfg.Validate()

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "after end_date")
			})
		})

		convey.Convey("When a date is malformed", func() {
			cfg.StartDate = "2025-01-01"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When no feature columns are configured", func() {
			cfg.Features.SumColumns = ""
			cfg.Features.MeanColumns = " , "
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
