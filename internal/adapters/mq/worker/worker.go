package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/motorgen/internal/adapters/mq/queue"
	"github.com/okian/motorgen/pkg/logger"
	"github.com/okian/motorgen/pkg/metrics"
)

// Handler processes one group.
type Handler[In, Out any] func(ctx context.Context, in In) (Out, error)

// Pool runs a Handler over a batch of groups. Groups share no data, so
// each worker owns the groups it dequeues and writes only its own result
// slots; no locking is needed.
type Pool[In, Out any] struct {
	size    int
	handler Handler[In, Out]
	name    string
	logger  logger.Logger
}

// NewPool creates a pool of size workers. A size below one uses
// runtime.NumCPU().
func NewPool[In, Out any](size int, h Handler[In, Out], opts ...Option) *Pool[In, Out] {
	st := settings{name: "pool", logger: logger.Nop()}
	for _, opt := range opts {
		opt(&st)
	}
	if size < 1 {
		size = runtime.NumCPU()
	}
	return &Pool[In, Out]{size: size, handler: h, name: st.name, logger: st.logger.Named(st.name)}
}

// Size returns the number of workers.
func (p *Pool[In, Out]) Size() int { return p.size }

// Run processes every item and returns the results in input order. The
// first handler error cancels the remaining work and is returned.
func (p *Pool[In, Out]) Run(ctx context.Context, items []In) ([]Out, error) {
	out := make([]Out, len(items))
	if len(items) == 0 {
		return out, nil
	}
	start := time.Now()

	q := queue.NewInMemoryQueue[In](queue.WithCapacity(len(items)))
	for i, it := range items {
		if err := q.Enqueue(ctx, queue.Job[In]{Index: i, Item: it}); err != nil {
			return nil, err
		}
	}
	if err := q.Close(); err != nil {
		return nil, err
	}

	workers := min(p.size, len(items))
	metrics.UpdateWorkerCount(workers)
	defer metrics.UpdateWorkerCount(0)

	g, gctx := errgroup.WithContext(ctx)
	jobs := q.Dequeue(gctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for job := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := p.handler(gctx, job.Item)
				if err != nil {
					return fmt.Errorf("%s group %d: %w", p.name, job.Index, err)
				}
				out[job.Index] = res
				metrics.RecordGroupProcessed(p.name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.Error(ctx, "pool run failed", logger.Error(err))
		return nil, err
	}
	metrics.UpdateQueueDepth(0)
	p.logger.Debug(ctx, "pool run finished",
		logger.Int("groups", len(items)),
		logger.Int("workers", workers),
		logger.Duration("elapsed", time.Since(start)))
	return out, nil
}
