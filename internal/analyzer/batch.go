package analyzer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfarm/seasonal-edge/internal/monitoring"
	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// Job is one symbol's worth of work for the batch pool.
type Job struct {
	Symbol string
	Prices []types.PricePoint
}

// JobResult carries the outcome of one job. Error and Result are mutually
// exclusive.
type JobResult struct {
	Symbol   string
	Result   *Result
	Duration time.Duration
	Error    error
}

// Pool fans symbol analyses out over a fixed set of workers. Submit and
// Results follow the usual channel protocol: submit everything, call Close,
// then drain Results until it closes.
type Pool struct {
	workers  int
	analyzer *Analyzer
	log      zerolog.Logger

	jobs    chan Job
	results chan JobResult
	wg      sync.WaitGroup
}

// NewPool creates a pool. workers <= 0 means one per CPU.
func NewPool(workers, buffer int, a *Analyzer, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers:  workers,
		analyzer: a,
		log:      log,
		jobs:     make(chan Job, buffer),
		results:  make(chan JobResult, buffer),
	}
}

// Start launches the workers. ctx cancels in-flight analyses and stops
// idle workers.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Submit queues a job. It fails once ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals that no more jobs will arrive. Results closes after the
// workers drain the queue.
func (p *Pool) Close() {
	close(p.jobs)
}

// Results is the channel of completed jobs.
func (p *Pool) Results() <-chan JobResult {
	return p.results
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := p.process(ctx, job)
			select {
			case p.results <- res:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			p.log.Debug().Int("worker", id).Msg("worker cancelled")
			return
		}
	}
}

func (p *Pool) process(ctx context.Context, job Job) JobResult {
	monitoring.JobStarted()
	defer monitoring.JobFinished()

	started := time.Now()
	result, err := p.analyzer.Run(ctx, job.Symbol, job.Prices)
	elapsed := time.Since(started)
	if err != nil {
		monitoring.RecordAnalysis(job.Symbol, err, elapsed)
		p.log.Error().Str("symbol", job.Symbol).Err(err).Msg("analysis failed")
	}
	return JobResult{
		Symbol:   job.Symbol,
		Result:   result,
		Duration: elapsed,
		Error:    err,
	}
}

// AnalyzeAll is the convenience wrapper: run every series through the pool
// and return results keyed by symbol. Per-symbol failures are reported in
// the JobResult, not as a function error; only cancellation aborts.
func AnalyzeAll(ctx context.Context, a *Analyzer, series map[string][]types.PricePoint, workers int, log zerolog.Logger) (map[string]JobResult, error) {
	pool := NewPool(workers, len(series), a, log)
	pool.Start(ctx)

	go func() {
		defer pool.Close()
		for symbol, prices := range series {
			if err := pool.Submit(ctx, Job{Symbol: symbol, Prices: prices}); err != nil {
				return
			}
		}
	}()

	out := make(map[string]JobResult, len(series))
	for res := range pool.Results() {
		out[res.Symbol] = res
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
