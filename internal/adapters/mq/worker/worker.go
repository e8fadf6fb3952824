// Package worker runs ingest batches through a session-sharded pool of workers.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/auscult/internal/adapters/mq/queue"
	"github.com/okian/auscult/pkg/logger"
	"github.com/okian/auscult/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultQueueCapacity  = 10000
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Processor handles one batch. Batches of a session arrive in enqueue order.
type Processor interface {
	Process(ctx context.Context, job queue.Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job queue.Job) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, job queue.Job) error { return f(ctx, job) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a single queue.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing batch", logger.Error(err))
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.processor.Process(ctx, job); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process_error")
		metrics.RecordErrorByType("process_error", "high")
		return fmt.Errorf("batch for session %s (%d events): %w", job.SessionID, len(job.Events), err)
	}
	return nil
}

// Pool owns one queue and one worker per shard. A session always maps to
// the same shard, so its batches are processed sequentially.
type Pool struct {
	workers []*InMemoryWorker
	queues  []*queue.InMemoryQueue

	shutdown chan struct{}
	closed   atomic.Bool

	processed         atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount shards sharing queueCapacity batches.
func NewPool(workerCount, queueCapacity int, p Processor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if queueCapacity < 1 {
		queueCapacity = defaultQueueCapacity
	}
	perShard := queueCapacity / workerCount
	if perShard < 1 {
		perShard = 1
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queues:            make([]*queue.InMemoryQueue, workerCount),
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	counted := ProcessorFunc(func(ctx context.Context, job queue.Job) error {
		err := p.Process(ctx, job)
		pool.processed.Add(1)
		return err
	})

	for i := 0; i < workerCount; i++ {
		pool.queues[i] = queue.NewInMemoryQueue(queue.WithCapacity(perShard))
		pool.workers[i] = NewInMemoryWorker(pool.queues[i], counted, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateQueueCapacity(perShard * workerCount)

	return pool
}

// Size returns the number of shards.
func (p *Pool) Size() int { return len(p.workers) }

// Shard returns the shard index that owns sessionID.
func (p *Pool) Shard(sessionID string) int {
	return int(xxhash.Sum64String(sessionID) % uint64(len(p.queues)))
}

// Enqueue routes job to its session's shard. It never blocks and returns
// false when that shard is full or the pool is shut down.
func (p *Pool) Enqueue(ctx context.Context, job queue.Job) bool {
	if p.closed.Load() {
		return false
	}
	return p.queues[p.Shard(job.SessionID)].Enqueue(ctx, job)
}

// Len returns the number of batches waiting across all shards.
func (p *Pool) Len(ctx context.Context) int {
	total := 0
	for _, q := range p.queues {
		total += q.Len(ctx)
	}
	metrics.UpdateQueueSize(total)
	return total
}

// Processed returns the number of batches handled since start.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case now := <-ticker.C:
			current := p.processed.Load()
			if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
				p.logger.Debug(ctx, "worker throughput",
					logger.Float64("batches_per_second", float64(current-last)/elapsed),
					logger.Int("queued", p.Len(ctx)),
				)
			}
			last = current
			p.lastProcessedTime = now
		}
	}
}

// Shutdown closes every shard queue and waits for the workers to drain them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	for _, q := range p.queues {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}

	return nil
}
