package smc

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/rwcarlsen/abc"
	"github.com/rwcarlsen/abc/metric"
)

// fillParallel is the concurrent counterpart of fill: candidates are
// proposed and simulated on Nworkers goroutines.  Each worker owns its
// own random stream and perturbation kernel (seeded from the package
// stream before spawning), so only the acceptance bookkeeping is locked.
// Budget units are reserved atomically before each simulator invocation,
// keeping the cap exact: a reservation that would exceed the budget is
// returned and the worker exits without simulating.
func (s *Sampler) fillParallel(prev *Population, metrics []metric.Metric, eps []float64, nsim *atomic.Int64) (*Population, *RefTable, bool) {
	var mu sync.Mutex
	table := newRefTable(s.InitSims)
	params := make([][]float64, 0, s.N)
	stats := make([][]float64, 0, s.N)
	dists := make([]float64, 0, s.N)

	var cum []float64
	if prev != nil {
		cum = prev.cumWeights()
	}

	p := pool.New().WithMaxGoroutines(s.Nworkers)
	for w := 0; w < s.Nworkers; w++ {
		s1, s2 := abc.Rand.Uint64(), abc.Rand.Uint64()
		p.Go(func() {
			src := rand.NewPCG(s1, s2)
			rng := rand.New(src)
			var k kernel
			if prev != nil {
				k = newKernel(prev, s.Diag, src)
			}

			for {
				mu.Lock()
				full := len(params) >= s.N
				mu.Unlock()
				if full {
					return
				}

				var theta []float64
				if prev == nil {
					theta = s.Prob.SamplePrior()
				} else {
					theta = k.perturb(prev.Params[drawIndex(cum, rng.Float64())])
				}
				if s.Prob.PriorDensity(theta) == 0 {
					continue
				}

				if nsim.Add(1) > int64(s.MaxSim) {
					// Undo the reservation - no invocation happened.
					nsim.Add(-1)
					return
				}
				ok, y := s.Prob.Simulate(theta)

				mu.Lock()
				if !ok {
					s.Obs.Candidate(false)
					mu.Unlock()
					continue
				}
				table.add(theta, y)
				d, pass := accept(metrics, eps, y)
				if pass && len(params) < s.N {
					params = append(params, append([]float64{}, theta...))
					stats = append(stats, append([]float64{}, y...))
					dists = append(dists, d)
				}
				s.Obs.Candidate(pass)
				mu.Unlock()
			}
		})
	}
	p.Wait()

	if len(params) < s.N {
		return nil, nil, false
	}
	pop := &Population{
		Params:  params,
		Stats:   stats,
		Dists:   dists,
		Weights: make([]float64, s.N),
	}
	return pop, table, true
}
