package smc

import (
	"github.com/rwcarlsen/abc/metric"
)

// Result is the accumulated output of a run: one entry per completed
// iteration in every slice, all index-aligned.  Built incrementally by
// Run and read-only afterward.  The whole struct round-trips through
// encoding/json, which is how runs are persisted.
type Result struct {
	// N is the population size; every iteration holds exactly N
	// particles.
	N       int `json:"n"`
	Nparams int `json:"nparams"`
	Nstats  int `json:"nstats"`

	// Params[t][i] is particle i's parameter vector in iteration t;
	// Stats, Dists and Weights are aligned the same way.
	Params  [][][]float64 `json:"params"`
	Stats   [][][]float64 `json:"stats"`
	Dists   [][]float64   `json:"dists"`
	Weights [][]float64   `json:"weights"`

	// Nsims[t] is the cumulative simulator invocation count (successes
	// and failures both) at the end of iteration t.
	Nsims []int `json:"nsims"`
	// Metrics[t] is the metric fitted from iteration t's reference table;
	// Eps[t] is the threshold selected under it.  Together they form the
	// acceptance history applied to iteration t+1's candidates.
	Metrics []metric.Metric `json:"metrics"`
	Eps     []float64       `json:"eps"`
	// Tables holds the per-iteration reference tables when the sampler
	// was configured to keep them.
	Tables []*RefTable `json:"tables,omitempty"`
}

func newResult(n, nparams, nstats int) *Result {
	return &Result{N: n, Nparams: nparams, Nstats: nstats}
}

func (r *Result) push(pop *Population, m metric.Metric, eps float64, nsim int, table *RefTable, keep bool) {
	r.Params = append(r.Params, pop.Params)
	r.Stats = append(r.Stats, pop.Stats)
	r.Dists = append(r.Dists, pop.Dists)
	r.Weights = append(r.Weights, pop.Weights)
	r.Nsims = append(r.Nsims, nsim)
	r.Metrics = append(r.Metrics, m)
	r.Eps = append(r.Eps, eps)
	if keep {
		r.Tables = append(r.Tables, table)
	}
}

// Niter returns the number of completed iterations.
func (r *Result) Niter() int { return len(r.Eps) }

// Posterior returns the final iteration's particles along with weights
// normalized to sum to one.  It returns nils when no iteration completed.
func (r *Result) Posterior() (params [][]float64, weights []float64) {
	t := r.Niter() - 1
	if t < 0 {
		return nil, nil
	}
	w := (&Population{Weights: r.Weights[t]}).normWeights()
	return r.Params[t], w
}

// PosteriorMean returns the weighted mean parameter vector of the final
// iteration, or nil when no iteration completed.
func (r *Result) PosteriorMean() []float64 {
	params, w := r.Posterior()
	if params == nil {
		return nil
	}
	mean := make([]float64, r.Nparams)
	for i, th := range params {
		for j, v := range th {
			mean[j] += w[i] * v
		}
	}
	return mean
}
