package smc

import "sort"

// RefTable accumulates successful (parameter, statistic) pairs produced
// while a population fills and is the sample the iteration's distance
// metric is fitted from.  Pairs beyond the capacity are dropped - first
// come, first kept.
type RefTable struct {
	Params [][]float64 `json:"params"`
	Stats  [][]float64 `json:"stats"`
	cap    int
}

func newRefTable(cap int) *RefTable {
	return &RefTable{
		Params: make([][]float64, 0, cap),
		Stats:  make([][]float64, 0, cap),
		cap:    cap,
	}
}

func (t *RefTable) add(params, stats []float64) {
	if len(t.Params) >= t.cap {
		return
	}
	t.Params = append(t.Params, append([]float64{}, params...))
	t.Stats = append(t.Stats, append([]float64{}, stats...))
}

func (t *RefTable) Len() int { return len(t.Params) }

// Population is one completed iteration's weighted particle set.  All
// four slices are index-aligned: particle i owns Params[i], Stats[i],
// Dists[i] and Weights[i].
type Population struct {
	Params [][]float64 `json:"params"`
	Stats  [][]float64 `json:"stats"`
	// Dists holds distances under the metric that was active while each
	// particle was being accepted.  The first iteration accepts
	// unconditionally before any metric exists, so its entries are a
	// sentinel zero and carry no meaning.
	Dists []float64 `json:"dists"`
	// Weights holds unnormalized importance weights; consumers normalize
	// when computing summaries.
	Weights []float64 `json:"weights"`
}

func newPopulation(n int) *Population {
	return &Population{
		Params:  make([][]float64, n),
		Stats:   make([][]float64, n),
		Dists:   make([]float64, n),
		Weights: make([]float64, n),
	}
}

// normWeights returns the population's weights normalized to sum to one.
func (p *Population) normWeights() []float64 {
	tot := 0.0
	for _, w := range p.Weights {
		tot += w
	}
	w := make([]float64, len(p.Weights))
	for i, v := range p.Weights {
		w[i] = v / tot
	}
	return w
}

// cumWeights returns the running sum of the population's weights, used
// for weight-proportional particle resampling via drawIndex.
func (p *Population) cumWeights() []float64 {
	cum := make([]float64, len(p.Weights))
	tot := 0.0
	for i, w := range p.Weights {
		tot += w
		cum[i] = tot
	}
	return cum
}

// drawIndex draws a particle index with probability proportional to its
// weight.  u must be uniform on [0, 1).
func drawIndex(cum []float64, u float64) int {
	target := u * cum[len(cum)-1]
	i := sort.SearchFloat64s(cum, target)
	if i == len(cum) {
		i--
	}
	return i
}

// orderStat returns the k-th smallest (1-based) value of xs without
// mutating xs.
func orderStat(xs []float64, k int) float64 {
	s := append([]float64{}, xs...)
	sort.Float64s(s)
	return s[k-1]
}
