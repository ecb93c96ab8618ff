package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			err := Init()

			Convey("Then Get returns a usable logger", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})

		Convey("When initialized with an unknown level", func() {
			err := Init(WithLevel("verbose"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing JSON to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFormat("json"), WithLevel("info")), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("extract").Warn(ctx, "no usable table", String("file", "rankingmotor2026010707.bin"), Error(errors.New("boom")))

			Convey("Then the record carries the component, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, `"component":"extract"`)
				So(out, ShouldContainSubstring, `"file":"rankingmotor2026010707.bin"`)
				So(out, ShouldContainSubstring, `"source"`)
				So(out, ShouldContainSubstring, `"level":"WARN"`)
			})
		})

		Convey("When logging below the level", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			Get().With(Int("slot", 12)).Debug(ctx, "visible")

			Convey("Then debug records appear", func() {
				So(buf.String(), ShouldContainSubstring, `"slot":12`)
			})
			So(SetLevelString("info"), ShouldBeNil)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the nop logger", t, func() {
		l := Nop()

		Convey("Then logging is a no-op", func() {
			So(func() { l.Error(context.Background(), "dropped") }, ShouldNotPanic)
			So(l.Named("x"), ShouldNotBeNil)
		})
	})
}
