package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/motorgen/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue[string](queue.WithCapacity(2))

		Convey("When two jobs are enqueued", func() {
			So(q.Enqueue(ctx, queue.Job[string]{Index: 0, Item: "07/12"}), ShouldBeNil)
			So(q.Enqueue(ctx, queue.Job[string]{Index: 1, Item: "02/05"}), ShouldBeNil)

			Convey("Then a third is rejected without blocking", func() {
				err := q.Enqueue(ctx, queue.Job[string]{Index: 2})
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then jobs drain in order after Close", func() {
				So(q.Close(), ShouldBeNil)
				var got []string
				for j := range q.Dequeue(ctx) {
					got = append(got, j.Item)
				}
				So(got, ShouldResemble, []string{"07/12", "02/05"})
			})
		})

		Convey("When closed", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, queue.Job[string]{}), queue.ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue fails with the context error", func() {
				So(errors.Is(q.Enqueue(cctx, queue.Job[string]{}), context.Canceled), ShouldBeTrue)
			})
		})
	})
}
