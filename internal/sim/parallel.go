package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/morphrace/internal/engine"
)

// Setup builds run i of an ensemble: a fresh engine, its script and the
// metrics to collect. Engines are never shared between runs.
type Setup func(i int) (engine.Engine, Script, []Metric, error)

type Ensemble struct {
	setup   Setup
	numRuns int
}

func NewEnsemble(setup Setup, numRuns int) *Ensemble {
	return &Ensemble{setup: setup, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	ParallelFor(e.numRuns, 1, func(start, end int) {
		for idx := start; idx < end; idx++ {
			eng, script, metrics, err := e.setup(idx)
			if err != nil {
				errs[idx] = err
				continue
			}
			s := New(eng, script)
			for _, m := range metrics {
				s.AddMetric(m)
			}
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// ParallelFor executes a function in parallel over a range [0, n)
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if minChunk < 1 {
		minChunk = 1
	}
	numWorkers := runtime.NumCPU()
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
