// Package bench provides example inference problems for exercising the
// abc samplers.  Each model bundles a prior, a stochastic simulator, and
// observed summary statistics generated from known "true" parameters so
// posterior quality can be checked.  Models own their random sources and
// are not safe for concurrent simulation.
package bench

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rwcarlsen/abc"
)

type Model interface {
	Name() string
	// Problem returns the ABC problem definition for this model.
	Problem() abc.Problem
	// True returns the parameter values the observed statistics were
	// generated from.
	True() []float64
}

// Gauss is a toy tractable problem: infer the mean of a unit-variance
// normal from the sample mean of Nobs draws.  The observed statistic is
// the idealized sample mean, i.e. the true mean itself.
type Gauss struct {
	// Nobs is the number of draws per simulated data set.
	Nobs  int
	mu0   float64
	src   rand.Source
	prior distuv.Uniform
}

func NewGauss(nobs int, seed uint64) *Gauss {
	src := rand.NewPCG(seed, 0x67617573)
	return &Gauss{
		Nobs:  nobs,
		mu0:   2,
		src:   src,
		prior: distuv.Uniform{Min: -10, Max: 10, Src: src},
	}
}

func (g *Gauss) Name() string    { return "Gauss" }
func (g *Gauss) True() []float64 { return []float64{g.mu0} }

func (g *Gauss) Problem() abc.Problem {
	return abc.Problem{
		SamplePrior:  func() []float64 { return []float64{g.prior.Rand()} },
		PriorDensity: func(th []float64) float64 { return g.prior.Prob(th[0]) },
		Simulate:     g.simulate,
		Obs:          []float64{g.mu0},
		Nparams:      1,
		Nstats:       1,
	}
}

func (g *Gauss) simulate(th []float64) (bool, []float64) {
	norm := distuv.Normal{Mu: th[0], Sigma: 1, Src: g.src}
	tot := 0.0
	for i := 0; i < g.Nobs; i++ {
		tot += norm.Rand()
	}
	return true, []float64{tot / float64(g.Nobs)}
}
