package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// writeJob is a single deferred mutation against the underlying Store.
type writeJob func(ctx context.Context, s Store) error

// Queue buffers Store writes and applies them on a background goroutine so
// a routing decision never blocks on disk I/O. A full queue drops the
// incoming job rather than applying backpressure to the router.
type Queue struct {
	store   Store
	jobs    chan writeJob
	log     *slog.Logger
	done    chan struct{}
	wg      sync.WaitGroup
	dropped int64
	mu      sync.Mutex
	onDrop  func()
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithDropHook registers a callback invoked once per dropped job, so callers
// can forward the count into a metrics collector without this package
// depending on prometheus directly.
func WithDropHook(fn func()) QueueOption { return func(q *Queue) { q.onDrop = fn } }

// NewQueue starts a background worker that drains jobs into store. capacity
// bounds how many pending writes may queue before new ones are dropped.
func NewQueue(store Store, capacity int, log *slog.Logger, opts ...QueueOption) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{
		store: store,
		jobs:  make(chan writeJob, capacity),
		log:   log,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.apply(job)
		case <-q.done:
			// Drain whatever is left without blocking further.
			for {
				select {
				case job := <-q.jobs:
					q.apply(job)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) apply(job writeJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	op := func() (struct{}, error) {
		return struct{}{}, job(ctx, q.store)
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
	if err != nil {
		q.log.Warn("store write failed after retries", "error", err)
	}
}

func (q *Queue) enqueue(job writeJob) {
	select {
	case q.jobs <- job:
	default:
		q.mu.Lock()
		q.dropped++
		q.mu.Unlock()
		q.log.Warn("store write queue full, dropping job")
		if q.onDrop != nil {
			q.onDrop()
		}
	}
}

// SaveProvider enqueues a provider upsert.
func (q *Queue) SaveProvider(p ProviderRecord) {
	q.enqueue(func(ctx context.Context, s Store) error { return s.SaveProvider(ctx, p) })
}

// SaveHealth enqueues a health observation.
func (q *Queue) SaveHealth(h HealthCheckRecord) {
	q.enqueue(func(ctx context.Context, s Store) error { return s.SaveHealth(ctx, h) })
}

// SaveRoutingOutcome enqueues a routing outcome record.
func (q *Queue) SaveRoutingOutcome(o RoutingOutcomeRecord) {
	q.enqueue(func(ctx context.Context, s Store) error { return s.SaveRoutingOutcome(ctx, o) })
}

// Dropped returns the number of jobs discarded because the queue was full.
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close signals the worker to apply the jobs already queued and waits for
// that drain to finish. Jobs enqueued after Close are never applied. Calling
// Close more than once is safe.
func (q *Queue) Close() {
	q.mu.Lock()
	select {
	case <-q.done:
	default:
		close(q.done)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
