package fixtures_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/motorgen/internal/adapters/table"
	"github.com/okian/motorgen/internal/domain/snapshot"
	"github.com/okian/motorgen/internal/fixtures"
	. "github.com/smartystreets/goconvey/convey"
)

func small() fixtures.Config {
	cfg := fixtures.DefaultConfig()
	cfg.Venues = []string{"07"}
	cfg.Motors = 8
	cfg.Sections = 26
	cfg.ReplaceProb = 1
	return cfg
}

func TestGenerate(t *testing.T) {
	Convey("Given the same config twice", t, func() {
		a := fixtures.Generate(small())
		b := fixtures.Generate(small())

		Convey("Then the archives are identical", func() {
			So(len(a.Documents), ShouldEqual, len(b.Documents))
			for i := range a.Documents {
				So(bytes.Equal(a.Documents[i].Body, b.Documents[i].Body), ShouldBeTrue)
			}
			So(a.Races.Rows, ShouldResemble, b.Races.Rows)
			So(a.Replacements, ShouldResemble, b.Replacements)
		})

		Convey("Then every slot is replaced once", func() {
			So(len(a.Replacements), ShouldEqual, 8)
		})

		Convey("Then races have six boats each", func() {
			cfg := small()
			So(a.Races.Len(), ShouldEqual, cfg.Sections*cfg.SectionDays*cfg.RacesPerDay*fixtures.Boats)
			So(a.Races.Columns, ShouldResemble, fixtures.RaceColumns)
		})
	})

	Convey("Given a generated document", t, func() {
		cfg := small()
		a := fixtures.Generate(cfg)
		doc := a.Documents[0]

		Convey("When extracted", func() {
			recs, err := snapshot.NewExtractor().Extract(context.Background(), bytes.NewReader(doc.Body),
				snapshot.Document{Name: doc.Name, Date: doc.Date, Venue: doc.Venue})

			Convey("Then every motor slot is read", func() {
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, cfg.Motors)
				for _, r := range recs {
					So(r.TwoPlaceRate.Float64, ShouldBeGreaterThan, 0)
				}
			})
		})
	})

	Convey("Given a Shift_JIS archive", t, func() {
		cfg := small()
		cfg.ShiftJIS = true
		doc := fixtures.Generate(cfg).Documents[0]

		Convey("Then the extractor decodes it", func() {
			recs, err := snapshot.NewExtractor().Extract(context.Background(), bytes.NewReader(doc.Body),
				snapshot.Document{Name: doc.Name, Date: doc.Date, Venue: doc.Venue})
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, cfg.Motors)
		})
	})
}

func TestWrite(t *testing.T) {
	Convey("Given an archive written to disk", t, func() {
		a := fixtures.Generate(small())
		p, err := fixtures.Write(t.TempDir(), a)
		So(err, ShouldBeNil)

		Convey("Then documents are listed and the race table reads back", func() {
			docs, err := snapshot.ListDocuments(p.BinsDir, snapshot.DateRange{})
			So(err, ShouldBeNil)
			So(len(docs), ShouldEqual, len(a.Documents))

			races, err := table.Read(p.Races)
			So(err, ShouldBeNil)
			So(races.Len(), ShouldEqual, a.Races.Len())
			So(filepath.Base(p.Races), ShouldEqual, "races.csv")
		})
	})
}
