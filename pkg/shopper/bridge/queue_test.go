package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/saree-storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flush(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))
}

func TestQueueSerializesPerKey(t *testing.T) {
	q := NewQueue(QueueOptions{})
	var (
		mu       sync.Mutex
		order    []int
		inFlight int32
		overlap  atomic.Bool
	)
	for i := 0; i < 20; i++ {
		i := i
		q.Enqueue(context.Background(), "cart_items_a@b.co", "op", func(context.Context) error {
			if atomic.AddInt32(&inFlight, 1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			atomic.AddInt32(&inFlight, -1)
			return nil
		})
	}
	flush(t, q)

	assert.False(t, overlap.Load(), "tasks on one key must not overlap")
	require.Len(t, order, 20)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
	assert.Zero(t, q.Pending())
}

func TestQueueRunsKeysIndependently(t *testing.T) {
	q := NewQueue(QueueOptions{})
	release := make(chan struct{})
	done := make(chan struct{})

	q.Enqueue(context.Background(), "cart_items_guest", "blocked", func(context.Context) error {
		<-release
		return nil
	})
	q.Enqueue(context.Background(), "wishlist_items_guest", "free", func(context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second key was blocked by the first")
	}
	close(release)
	flush(t, q)
}

func TestQueueFlushWaitsForFollowUps(t *testing.T) {
	q := NewQueue(QueueOptions{})
	var ran []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		ran = append(ran, s)
		mu.Unlock()
	}

	q.Enqueue(context.Background(), "k", "add", func(ctx context.Context) error {
		record("add")
		q.Enqueue(ctx, "k", "pull", func(context.Context) error {
			record("pull")
			return nil
		})
		return nil
	})
	flush(t, q)
	assert.Equal(t, []string{"add", "pull"}, ran)
}

func TestQueueReportsFailuresAndRecoversPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var failures []Failure
	var mu sync.Mutex
	q := NewQueue(QueueOptions{
		Metrics: metrics.NewSyncMetrics(reg),
		OnFail: func(f Failure) {
			mu.Lock()
			failures = append(failures, f)
			mu.Unlock()
		},
	})

	boom := errors.New("mirror down")
	q.Enqueue(context.Background(), "k", "cart.add", func(context.Context) error { return boom })
	q.Enqueue(context.Background(), "k", "cart.pull", func(context.Context) error { panic("bad") })
	ranAfter := false
	q.Enqueue(context.Background(), "k", "cart.update", func(context.Context) error { ranAfter = true; return nil })
	flush(t, q)

	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0].Err, boom)
	assert.Equal(t, "cart.pull", failures[1].Op)
	assert.Contains(t, failures[1].Err.Error(), "panicked")
	assert.True(t, ranAfter, "a failed task must not stall its lane")
}

func TestQueueTaskOutlivesCallerContext(t *testing.T) {
	q := NewQueue(QueueOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	var taskErr error
	q.Enqueue(ctx, "k", "op", func(taskCtx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		taskErr = taskCtx.Err()
		return nil
	})
	cancel()
	flush(t, q)
	assert.NoError(t, taskErr)
}

func TestQueueFlushHonoursContext(t *testing.T) {
	q := NewQueue(QueueOptions{})
	release := make(chan struct{})
	q.Enqueue(context.Background(), "k", "op", func(context.Context) error {
		<-release
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Flush(ctx), context.DeadlineExceeded)
	close(release)
	flush(t, q)
}

func TestQueueMetricsNeverLabelByPartitionKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	q := NewQueue(QueueOptions{Metrics: metrics.NewSyncMetrics(reg)})
	q.Enqueue(context.Background(), "cart_items_a@b.co", "cart.add", func(context.Context) error { return nil })
	q.Enqueue(context.Background(), "wishlist_items_c@d.co", "wishlist.toggle", func(context.Context) error { return nil })
	flush(t, q)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	namespaces := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				assert.NotContains(t, label.GetValue(), "@", "metric %s", mf.GetName())
				if mf.GetName() == "shopper_sync_pending" {
					namespaces[label.GetValue()] = m.GetGauge().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"cart": 0, "wishlist": 0}, namespaces)
}
