package rest

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var poolQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "guildkit_rest_queue_depth",
	Help: "Requests waiting for a free worker",
})

// job is one Execute call.
type job struct {
	ctx       context.Context
	route     CompiledRoute
	onSuccess func(*Response)
	onFailure func(error)
}

// workerPool runs jobs on a fixed number of goroutines.
type workerPool struct {
	jobs   chan job
	run    func(job)
	logger zerolog.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func newWorkerPool(workers, queueSize int, run func(job), logger zerolog.Logger) *workerPool {
	p := &workerPool{
		jobs:   make(chan job, queueSize),
		run:    run,
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// submit queues j, blocking while the queue is full.
func (p *workerPool) submit(ctx context.Context, j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.jobs <- j:
		poolQueueDepth.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting jobs and waits for queued ones to finish.
func (p *workerPool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *workerPool) worker(workerID int) {
	defer p.wg.Done()
	processed := 0

	for j := range p.jobs {
		poolQueueDepth.Dec()

		if err := j.ctx.Err(); err != nil {
			j.onFailure(err)
			continue
		}

		p.run(j)
		processed++
	}

	if processed > 0 {
		p.logger.Debug().
			Int("worker_id", workerID).
			Int("requests_processed", processed).
			Msg("Worker stopped")
	}
}
