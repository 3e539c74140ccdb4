// Package smc implements an adaptive sequential Monte Carlo (population
// Monte Carlo) ABC sampler.  A weighted particle population approximating
// the posterior is carried across iterations; each iteration refits a
// distance metric from freshly simulated reference data, tightens the
// acceptance threshold via order statistics, and corrects particle
// weights by importance sampling against the mixture proposal built from
// perturbing the previous population.
//
// The algorithm follows Prangle (2017), "Adapting the ABC distance
// function", Bayesian Analysis 12(1).  Because the metric may change
// between iterations, a candidate is accepted only if it passes the whole
// chronological history of (metric, threshold) pairs - this is required
// for statistical correctness and must not be reduced to a latest-pair
// check.
package smc

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/rwcarlsen/abc"
	"github.com/rwcarlsen/abc/metric"
)

// DefaultInitSims is the default capacity of the per-iteration reference
// table that metrics are fitted from.
const DefaultInitSims = 10000

// DefaultAlpha is the default tightening quantile: each new threshold is
// the ceil(N*alpha)-th order statistic of the freshly accepted
// population's distances.
const DefaultAlpha = 0.5

type Option func(*Sampler)

// Alpha sets the tightening quantile; 0 < alpha <= 1.
func Alpha(alpha float64) Option {
	return func(s *Sampler) { s.Alpha = alpha }
}

// InitSims caps the number of (parameter, statistic) pairs collected per
// iteration for metric fitting.
func InitSims(n int) Option {
	return func(s *Sampler) { s.InitSims = n }
}

// Metric sets the distance template that is fitted each iteration.  The
// template's observed statistics must match the problem's.
func Metric(m metric.Metric) Option {
	return func(s *Sampler) { s.Template = m }
}

// Adaptive refits the distance metric from every iteration's reference
// table.  Without it the metric fitted in the first iteration is frozen
// and only the threshold tightens.
func Adaptive() Option {
	return func(s *Sampler) { s.Adaptive = true }
}

// DiagKernel restricts the perturbation kernel to per-parameter
// variances, ignoring cross-covariances.
func DiagKernel() Option {
	return func(s *Sampler) { s.Diag = true }
}

// KeepTables retains each iteration's reference table in the result for
// diagnostics.  Tables can be large (up to InitSims pairs per iteration).
func KeepTables() Option {
	return func(s *Sampler) { s.KeepTables = true }
}

// Observe routes progress events to o instead of the default stdout
// printer.  With Workers > 1, o.Candidate must be safe for concurrent
// use; it is invoked under the sampler's fill lock.
func Observe(o abc.Observer) Option {
	return func(s *Sampler) { s.Obs = o }
}

// Silent suppresses progress reporting.
func Silent() Option {
	return func(s *Sampler) { s.Obs = abc.NullObserver{} }
}

// DB records accepted particles and per-iteration summaries into sql
// database tables (see TblParticles, TblIters).
func DB(db *sql.DB) Option {
	return func(s *Sampler) { s.Db = db }
}

// Workers proposes and simulates candidates on n goroutines during
// population filling.  Acceptance decisions still happen only after a
// candidate's own simulation completes, and the budget stays exact via an
// atomic counter.  The problem's functions must be safe for concurrent
// use when n > 1.
func Workers(n int) Option {
	return func(s *Sampler) { s.Nworkers = n }
}

// Sampler runs the iteration loop.  Construct with New; fields are
// exported for inspection but should not be mutated between Run calls.
type Sampler struct {
	Prob       abc.Problem
	N          int
	MaxSim     int
	Alpha      float64
	InitSims   int
	Template   metric.Metric
	Adaptive   bool
	Diag       bool
	KeepTables bool
	Nworkers   int
	Obs        abc.Observer
	Db         *sql.DB

	runid string
}

// New validates the problem and configuration and returns a sampler for
// a population of n particles under a hard budget of maxsim simulator
// invocations.  Invalid configuration is rejected here, before any
// simulation is attempted.
func New(prob abc.Problem, n, maxsim int, opts ...Option) (*Sampler, error) {
	if err := prob.Check(); err != nil {
		return nil, err
	}

	s := &Sampler{
		Prob:     prob,
		N:        n,
		MaxSim:   maxsim,
		Alpha:    DefaultAlpha,
		InitSims: DefaultInitSims,
		Template: metric.New(metric.Euclidean, prob.Obs),
		Nworkers: 1,
		Obs:      abc.Progress{W: os.Stdout},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.N <= 0 {
		return nil, fmt.Errorf("smc: population size must be positive, got %v", s.N)
	}
	if s.MaxSim <= 0 {
		return nil, fmt.Errorf("smc: simulation budget must be positive, got %v", s.MaxSim)
	}
	if s.Alpha <= 0 || s.Alpha > 1 {
		return nil, fmt.Errorf("smc: alpha must be in (0, 1], got %v", s.Alpha)
	}
	if s.InitSims <= 0 {
		return nil, fmt.Errorf("smc: reference table cap must be positive, got %v", s.InitSims)
	}
	if s.Nworkers <= 0 {
		return nil, fmt.Errorf("smc: worker count must be positive, got %v", s.Nworkers)
	}
	if len(s.Template.Obs) != s.Prob.Nstats {
		return nil, fmt.Errorf("smc: metric observed stats have length %v, expected %v", len(s.Template.Obs), s.Prob.Nstats)
	}
	return s, nil
}

// Run executes iterations until the simulation budget is exhausted and
// returns the accumulated per-iteration output.  A partially filled final
// iteration is discarded, so a run whose simulator never succeeds
// terminates with zero iterations rather than an error.
func (s *Sampler) Run() *Result {
	s.initdb()
	res := newResult(s.N, s.Prob.Nparams, s.Prob.Nstats)
	kcut := int(math.Ceil(float64(s.N) * s.Alpha))

	var nsim atomic.Int64
	var prev *Population
	var metrics []metric.Metric
	var eps []float64

	for iter := 1; int(nsim.Load()) < s.MaxSim; iter++ {
		s.Obs.IterStart(iter)
		start := nsim.Load()

		// The kernel is built once per iteration from the previous
		// population; it drives both the proposals during filling and the
		// mixture density in the importance weights afterward.
		var k kernel
		if prev != nil {
			k = newKernel(prev, s.Diag, abc.Src)
		}

		pop, table, ok := s.fill(prev, k, metrics, eps, &nsim)
		if !ok {
			// Budget ran out mid-fill: the partial iteration is discarded
			// entirely.  Normal termination, not an error.
			break
		}

		m := metrics0(metrics)
		if iter == 1 || s.Adaptive {
			m = s.Template.Fit(table.Params, table.Stats)
		}

		// The next threshold is the k-th order statistic of the new
		// population's distances under the newly fitted metric - not the
		// metric the particles were accepted under.  This is what drives
		// progressive tightening when the metric changes.
		d := make([]float64, s.N)
		for i, st := range pop.Stats {
			d[i] = m.Distance(st)
		}
		e := orderStat(d, kcut)

		if prev == nil {
			for i := range pop.Weights {
				pop.Weights[i] = 1
			}
		} else {
			pop.Weights = mixtureWeights(s.Prob.PriorDensity, pop.Params, prev, k)
		}

		metrics = append(metrics, m)
		eps = append(eps, e)
		res.push(pop, m, e, int(nsim.Load()), table, s.KeepTables)
		s.recordIter(len(eps), pop, e, int(nsim.Load()))
		s.Obs.IterDone(abc.IterInfo{
			Iter:       iter,
			Eps:        e,
			AcceptRate: float64(s.N) / float64(nsim.Load()-start),
			Nsim:       int(nsim.Load()),
		})
		prev = pop
	}
	return res
}

func metrics0(metrics []metric.Metric) metric.Metric {
	if len(metrics) == 0 {
		return metric.Metric{}
	}
	return metrics[0]
}

// fill assembles one iteration's population.  It returns ok == false if
// the budget was exhausted before n particles were accepted.
func (s *Sampler) fill(prev *Population, k kernel, metrics []metric.Metric, eps []float64, nsim *atomic.Int64) (*Population, *RefTable, bool) {
	if s.Nworkers > 1 {
		return s.fillParallel(prev, metrics, eps, nsim)
	}

	table := newRefTable(s.InitSims)
	pop := newPopulation(s.N)
	var cum []float64
	if prev != nil {
		cum = prev.cumWeights()
	}

	for filled := 0; filled < s.N; {
		if int(nsim.Load()) >= s.MaxSim {
			return nil, nil, false
		}

		var theta []float64
		if prev == nil {
			theta = s.Prob.SamplePrior()
		} else {
			j := drawIndex(cum, abc.Rand.Float64())
			theta = k.perturb(prev.Params[j])
		}
		if s.Prob.PriorDensity(theta) == 0 {
			// Discarded before simulating - consumes no budget.
			continue
		}

		nsim.Add(1)
		ok, y := s.Prob.Simulate(theta)
		if !ok {
			s.Obs.Candidate(false)
			continue
		}
		table.add(theta, y)

		d, pass := accept(metrics, eps, y)
		s.Obs.Candidate(pass)
		if !pass {
			continue
		}
		pop.Params[filled] = append([]float64{}, theta...)
		pop.Stats[filled] = append([]float64{}, y...)
		pop.Dists[filled] = d
		filled++
	}
	return pop, table, true
}

// accept applies the full chronological history of (metric, threshold)
// pairs.  An empty history (first iteration) accepts unconditionally.
// The returned distance is under the most recent metric - the one active
// while this candidate was proposed - and is zero for an empty history.
func accept(metrics []metric.Metric, eps []float64, stats []float64) (dist float64, ok bool) {
	for i, m := range metrics {
		d := m.Distance(stats)
		if !(d <= eps[i]) { // NaN distances reject
			return 0, false
		}
		dist = d
	}
	return dist, true
}
