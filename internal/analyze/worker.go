package analyze

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Job is one audio file queued for analysis.
type Job struct {
	Path string
}

// Pool runs analysis jobs from the drop directory on a fixed set of workers.
type Pool struct {
	svc     *Service
	jobs    chan Job
	wg      sync.WaitGroup
	log     zerolog.Logger
	started atomic.Int64
	done    atomic.Int64
	failed  atomic.Int64
}

// NewPool creates a worker pool. queueSize bounds the number of pending jobs.
func NewPool(svc *Service, workers, queueSize int, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		svc:  svc,
		jobs: make(chan Job, queueSize),
		log:  log.With().Str("component", "analyze-pool").Logger(),
	}
}

// Start launches the workers. They exit when ctx is canceled or the queue is
// closed by Stop.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.log.Info().Int("workers", workers).Int("queue", cap(p.jobs)).Msg("analysis pool started")
}

// Enqueue adds a job, dropping it when the queue is full.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		p.log.Warn().Str("path", job.Path).Msg("analysis queue full, dropping file")
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	p.log.Info().
		Int64("completed", p.done.Load()).
		Int64("failed", p.failed.Load()).
		Msg("analysis pool stopped")
}

// Stats reports pool counters for the health endpoint.
func (p *Pool) Stats() (started, completed, failed int64, queued int) {
	return p.started.Load(), p.done.Load(), p.failed.Load(), len(p.jobs)
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.started.Add(1)
			if _, err := p.svc.AnalyzeFile(ctx, job.Path); err != nil {
				p.failed.Add(1)
				p.log.Error().Err(err).Int("worker", id).Str("path", job.Path).Msg("analysis failed")
				continue
			}
			p.done.Add(1)
		}
	}
}
