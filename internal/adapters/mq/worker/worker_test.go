package worker_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/outwit/internal/adapters/mq/queue"
	"github.com/okian/outwit/internal/adapters/mq/worker"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/pkg/logger"
)

// recordingProcessor remembers every job id it saw and fails on request.
type recordingProcessor struct {
	mu     sync.Mutex
	seen   []string
	failOn map[string]error
	block  chan struct{}
}

func (p *recordingProcessor) Process(ctx context.Context, job worker.Job) error { //nolint:gocritic // hugeParam
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, job.ID)
	if err, ok := p.failOn[job.ID]; ok {
		return err
	}
	return nil
}

func (p *recordingProcessor) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.seen...)
}

func job(id string) model.Job {
	return model.Job{ID: id, Kind: model.JobRecompute}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		proc := &recordingProcessor{failOn: map[string]error{"bad": errors.New("boom")}}
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("w-test"), worker.WithLogger(logger.Discard()))
		ctx := context.Background()

		convey.Convey("When jobs are queued and the queue is closed", func() {
			for _, id := range []string{"a", "bad", "c"} {
				convey.So(q.Enqueue(ctx, job(id)), convey.ShouldBeNil)
			}
			convey.So(q.Close(), convey.ShouldBeNil)
			w.Run(ctx)

			convey.Convey("Then every job runs in order and a failure does not stop the loop", func() {
				convey.So(proc.ids(), convey.ShouldResemble, []string{"a", "bad", "c"})
			})
		})

		convey.Convey("When the worker is shut down while idle", func() {
			go w.Run(ctx)
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then it stops promptly", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a job outlives the job timeout", func() {
			proc.block = make(chan struct{})
			slow := worker.NewInMemoryWorker(q, proc, worker.WithJobTimeout(10*time.Millisecond))
			convey.So(q.Enqueue(ctx, job("slow")), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			slow.Run(ctx)

			convey.Convey("Then the processor sees a cancelled context", func() {
				convey.So(proc.ids(), convey.ShouldBeEmpty)
			})
		})
	})

	convey.Convey("Given a processor that panics", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		var after []string
		proc := worker.ProcessorFunc(func(_ context.Context, j worker.Job) error {
			if j.ID == "panic" {
				panic("unexpected")
			}
			after = append(after, j.ID)
			return nil
		})
		w := worker.NewInMemoryWorker(q, proc)
		ctx := context.Background()
		convey.So(q.Enqueue(ctx, job("panic")), convey.ShouldBeNil)
		convey.So(q.Enqueue(ctx, job("next")), convey.ShouldBeNil)
		convey.So(q.Close(), convey.ShouldBeNil)

		convey.Convey("Then the worker recovers and continues", func() {
			convey.So(func() { w.Run(ctx) }, convey.ShouldNotPanic)
			convey.So(after, convey.ShouldResemble, []string{"next"})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		proc := &recordingProcessor{}
		pool := worker.NewPool(4, q, proc, logger.Discard())
		ctx := context.Background()

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When jobs are enqueued and the pool shuts down", func() {
			pool.Start(ctx)
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, job("job-"+strconv.Itoa(i))), convey.ShouldBeNil)
			}
			sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then every queued job is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(proc.ids()), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker count is not positive", func() {
			p := worker.NewPool(0, q, proc, nil)

			convey.Convey("Then it falls back to one worker per CPU", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}
