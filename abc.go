// Package abc provides shared primitives for approximate Bayesian
// computation (ABC) samplers: likelihood-free Bayesian inference where a
// stochastic simulator stands in for an intractable likelihood.  The
// samplers themselves live in the reject and smc subpackages; example
// inference problems live in the bench subpackage.
package abc

import "fmt"

// Simulator generates a summary statistic vector for the given parameter
// vector.  ok reports whether the simulation succeeded; failed simulations
// are discarded by samplers but still count against their simulation
// budgets.  A Simulator must draw randomness only from a source it owns -
// samplers may call it from multiple goroutines when configured to run
// candidates concurrently.
type Simulator func(params []float64) (ok bool, stats []float64)

// Problem describes a single ABC inference problem.  It is never mutated
// by samplers and the same Problem may be shared between runs.
type Problem struct {
	// SamplePrior draws an independent parameter vector from the prior.
	SamplePrior func() []float64
	// PriorDensity returns the (possibly unnormalized) prior density at
	// the given parameter vector.  It must be non-negative everywhere.
	PriorDensity func(params []float64) float64
	// Simulate maps a parameter vector to summary statistics.
	Simulate Simulator
	// Obs holds the observed summary statistics that simulated statistics
	// are compared against.  len(Obs) must equal Nstats.
	Obs []float64
	// Nparams is the parameter space dimension.
	Nparams int
	// Nstats is the summary statistic dimension.
	Nstats int
}

// Check validates the problem definition.  Samplers call it at
// construction so that a malformed problem fails before any simulation is
// attempted.
func (p *Problem) Check() error {
	if p.SamplePrior == nil {
		return fmt.Errorf("abc: problem has nil prior sampler")
	}
	if p.PriorDensity == nil {
		return fmt.Errorf("abc: problem has nil prior density")
	}
	if p.Simulate == nil {
		return fmt.Errorf("abc: problem has nil simulator")
	}
	if p.Nparams <= 0 {
		return fmt.Errorf("abc: problem has invalid parameter dimension %v", p.Nparams)
	}
	if p.Nstats <= 0 {
		return fmt.Errorf("abc: problem has invalid statistic dimension %v", p.Nstats)
	}
	if len(p.Obs) != p.Nstats {
		return fmt.Errorf("abc: observed stats have length %v, expected %v", len(p.Obs), p.Nstats)
	}
	return nil
}
