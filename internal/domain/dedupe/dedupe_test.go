package dedupe_test

import (
	"sync"
	"testing"

	"github.com/okian/motorgen/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

type row struct {
	key   string
	value int
}

func rowKey(r row) string { return r.key }

func TestMerger(t *testing.T) {
	Convey("Given a merger with the default policy", t, func() {
		m := dedupe.NewMerger(rowKey, dedupe.WithCapacity(4))

		Convey("When a key is added twice", func() {
			So(m.Add(row{"a", 1}), ShouldBeFalse)
			So(m.Add(row{"b", 2}), ShouldBeFalse)
			So(m.Add(row{"a", 3}), ShouldBeTrue)

			Convey("Then the later record wins in the first record's position", func() {
				So(m.Values(), ShouldResemble, []row{{"a", 3}, {"b", 2}})
				So(m.Len(), ShouldEqual, 2)
				So(m.Collisions(), ShouldEqual, 1)
			})
		})

		Convey("When values are read and then modified", func() {
			m.Add(row{"a", 1})
			vs := m.Values()
			vs[0].value = 99

			Convey("Then the merger is unaffected", func() {
				So(m.Values()[0].value, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a merger keeping the first record", t, func() {
		m := dedupe.NewMerger(rowKey, dedupe.WithPolicy(dedupe.KeepFirst))
		m.AddAll([]row{{"a", 1}, {"a", 2}, {"a", 3}})

		Convey("Then later records are ignored but counted", func() {
			So(m.Values(), ShouldResemble, []row{{"a", 1}})
			So(m.Collisions(), ShouldEqual, 2)
		})
	})

	Convey("Given concurrent writers", t, func() {
		m := dedupe.NewMerger(func(i int) int { return i % 10 })
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(offset int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					m.Add(offset*100 + i)
				}
			}(w)
		}
		wg.Wait()

		Convey("Then every key is kept once", func() {
			So(m.Len(), ShouldEqual, 10)
			So(m.Collisions(), ShouldEqual, 790)
		})
	})
}

func TestRepeated(t *testing.T) {
	Convey("Given records with repeated keys", t, func() {
		rows := []row{{"x", 1}, {"y", 1}, {"x", 2}, {"z", 1}, {"x", 3}, {"y", 2}}

		Convey("Then each repeated key is reported once", func() {
			So(dedupe.Repeated(rows, rowKey), ShouldResemble, []string{"x", "y"})
		})
	})

	Convey("Given unique keys", t, func() {
		So(dedupe.Repeated([]row{{"a", 1}, {"b", 1}}, rowKey), ShouldBeEmpty)
	})
}
