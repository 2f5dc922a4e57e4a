// Package montecarlo runs a parametric-bootstrap forward simulation: each
// trial draws i.i.d. returns from a normal distribution fitted to the input
// series (not resampling of the observed returns) and compounds them. The
// trials are independent, so the work is split into fixed-size chunks fed to
// a worker pool; every chunk owns its own index-seeded generator and output
// segment, so results are deterministic for a fixed seed regardless of the
// worker count or scheduling.
package montecarlo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/quantfarm/seasonal-edge/internal/stats"
)

// Defaults for simulation sizing.
const (
	DefaultSimulations   = 10000
	DefaultPathsRetained = 100
)

// Config controls a simulation run. Zero values select defaults: Horizon
// falls back to len(returns), Workers to NumCPU, Seed to the wall clock
// (non-deterministic).
type Config struct {
	Simulations   int   `json:"simulations"`
	Horizon       int   `json:"horizon"`
	PathsRetained int   `json:"paths_retained"`
	Workers       int   `json:"workers"`
	Seed          int64 `json:"seed"`
}

// Result is the simulated distribution of final compounded returns.
// SamplePaths holds only the first PathsRetained full paths; keeping all
// 10k would cost memory for no analytical gain.
type Result struct {
	SamplePaths  [][]float64 `json:"sample_paths,omitempty"`
	FinalReturns []float64   `json:"final_returns"`
	CI95         [2]float64  `json:"ci_95"`
	CI99         [2]float64  `json:"ci_99"`
	Mean         float64     `json:"mean"`
	Std          float64     `json:"std"`
}

// Simulate fits Normal(mean, sample std) to returns and generates cfg.
// Simulations compounded paths of cfg.Horizon periods. Cancelling ctx stops
// the run and returns ctx.Err().
func Simulate(ctx context.Context, returns []float64, cfg Config) (*Result, error) {
	if len(returns) < 2 {
		return nil, fmt.Errorf("monte carlo needs at least 2 returns, got %d", len(returns))
	}
	if cfg.Simulations < 0 {
		return nil, fmt.Errorf("simulations must be positive, got %d", cfg.Simulations)
	}
	if cfg.Simulations == 0 {
		cfg.Simulations = DefaultSimulations
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = len(returns)
	}
	if cfg.PathsRetained <= 0 {
		cfg.PathsRetained = DefaultPathsRetained
	}
	if cfg.PathsRetained > cfg.Simulations {
		cfg.PathsRetained = cfg.Simulations
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Workers > cfg.Simulations {
		cfg.Workers = cfg.Simulations
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	mean := stats.Mean(returns)
	std := stats.SampleStd(returns)

	finals := make([]float64, cfg.Simulations)
	paths := make([][]float64, cfg.PathsRetained)

	// Contiguous fixed-size chunks: chunk i simulates
	// [i*chunkSize, min((i+1)*chunkSize, n)). Each chunk derives its RNG
	// from the seed and its own index, never from the worker running it,
	// so the draws do not depend on the worker count or scheduling.
	const chunkSize = 256
	chunks := (cfg.Simulations + chunkSize - 1) / chunkSize

	chunkCh := make(chan int, chunks)
	for chunk := 0; chunk < chunks; chunk++ {
		chunkCh <- chunk
	}
	close(chunkCh)

	var wg sync.WaitGroup
	errCh := make(chan error, cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range chunkCh {
				lo := chunk * chunkSize
				hi := lo + chunkSize
				if hi > cfg.Simulations {
					hi = cfg.Simulations
				}
				rng := rand.New(rand.NewSource(cfg.Seed + int64(chunk)*0x9E3779B9))

				for sim := lo; sim < hi; sim++ {
					select {
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					default:
					}

					keepPath := sim < cfg.PathsRetained
					var path []float64
					if keepPath {
						path = make([]float64, cfg.Horizon)
					}

					cum := 1.0
					for t := 0; t < cfg.Horizon; t++ {
						cum *= 1 + (rng.NormFloat64()*std + mean)
						if keepPath {
							path[t] = cum
						}
					}
					finals[sim] = cum - 1
					if keepPath {
						paths[sim] = path
					}
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}

	return &Result{
		SamplePaths:  paths,
		FinalReturns: finals,
		CI95:         [2]float64{stats.Percentile(finals, 2.5), stats.Percentile(finals, 97.5)},
		CI99:         [2]float64{stats.Percentile(finals, 0.5), stats.Percentile(finals, 99.5)},
		Mean:         stats.Mean(finals),
		Std:          stats.PopStd(finals),
	}, nil
}

// ExpectedShortfall is a convenience over the simulated distribution: the
// mean final return below the q-th percentile. NaN when no tail samples
// exist.
func (r *Result) ExpectedShortfall(q float64) float64 {
	cut := stats.Percentile(r.FinalReturns, q)
	var tail []float64
	for _, v := range r.FinalReturns {
		if v <= cut {
			tail = append(tail, v)
		}
	}
	if len(tail) == 0 {
		return math.NaN()
	}
	return stats.Mean(tail)
}
