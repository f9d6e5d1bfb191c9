package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/metrics"
)

// Failure describes a background task whose error was not returned to anyone.
type Failure struct {
	Key string
	Op  string
	Err error
}

// Queue runs background mirror calls with at most one call in flight per
// key, in enqueue order. Different keys run concurrently.
type Queue struct {
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	onFail  func(Failure)

	mu      sync.Mutex
	lanes   map[string][]task
	pending int
	idle    []chan struct{}
}

type task struct {
	ctx context.Context
	op  string
	run func(context.Context) error
}

type QueueOptions struct {
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
	OnFail  func(Failure)
}

func NewQueue(opts QueueOptions) *Queue {
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Queue{
		logg:    logg,
		metrics: opts.Metrics,
		onFail:  opts.OnFail,
		lanes:   make(map[string][]task),
	}
}

// Enqueue schedules run on key's lane. The task context keeps ctx's values
// but not its cancellation, so a finished request does not abort the sync.
func (q *Queue) Enqueue(ctx context.Context, key, op string, run func(context.Context) error) {
	t := task{ctx: context.WithoutCancel(ctx), op: op, run: run}
	q.metrics.AddPending(op, 1)

	q.mu.Lock()
	lane, busy := q.lanes[key]
	q.lanes[key] = append(lane, t)
	q.pending++
	q.mu.Unlock()

	if !busy {
		go q.drain(key)
	}
}

func (q *Queue) drain(key string) {
	for {
		q.mu.Lock()
		lane := q.lanes[key]
		if len(lane) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		next := lane[0]
		q.mu.Unlock()

		q.execute(key, next)
		q.metrics.AddPending(next.op, -1)

		q.mu.Lock()
		q.lanes[key] = q.lanes[key][1:]
		q.pending--
		if q.pending == 0 {
			for _, ch := range q.idle {
				close(ch)
			}
			q.idle = nil
		}
		q.mu.Unlock()
	}
}

func (q *Queue) execute(key string, t task) {
	ctx := q.logg.WithFields(t.ctx, map[string]any{"partition": key, "op": t.op})
	started := time.Now()
	err := safeRun(ctx, t.run)
	q.metrics.Observe(t.op, time.Since(started), err)
	if err == nil {
		q.logg.Debug(ctx, "mirror sync completed")
		return
	}
	q.logg.Warn(q.logg.WithField(ctx, "error", err.Error()), "mirror sync failed")
	if q.onFail != nil {
		q.onFail(Failure{Key: key, Op: t.op, Err: err})
	}
}

func safeRun(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return run(ctx)
}

// Flush blocks until every queued task, including tasks enqueued by running
// tasks, has finished or ctx is done.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.pending == 0 {
		q.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	q.idle = append(q.idle, ch)
	q.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued or running tasks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}
