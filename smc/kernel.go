package smc

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// kernelInflate is the fixed factor applied to the weighted covariance of
// the previous population when building the perturbation kernel.  The
// value 2 is the tuning constant from Beaumont et al. (2009), "Adaptive
// approximate Bayesian computation", Biometrika 96(4) - it is not
// adapted at runtime.
const kernelInflate = 2

// minVar floors per-dimension kernel variances.  A population that has
// collapsed along some dimension would otherwise produce a degenerate
// proposal with zero density everywhere off the collapse.
const minVar = 1e-12

// kernel is the zero-mean perturbation distribution built from the
// previous population.  It proposes moves for resampled particles and
// evaluates perturbation densities for the PMC mixture importance
// correction.
type kernel interface {
	perturb(base []float64) []float64
	density(dx []float64) float64
}

// newKernel builds a perturbation kernel from pop's weighted covariance.
// diag selects the diagonal variant, which ignores cross-covariances -
// cheaper and often more stable when the parameter dimension is large
// relative to the population size.  src feeds the kernel's draws so
// concurrent fillers can own independent kernels over the same
// covariance.
func newKernel(pop *Population, diag bool, src rand.Source) kernel {
	w := pop.normWeights()
	nd := len(pop.Params[0])

	if diag {
		return newDiagKernel(pop, w, nd, src)
	}

	x := mat.NewDense(len(pop.Params), nd, nil)
	for i, row := range pop.Params {
		x.SetRow(i, row)
	}
	cov := mat.NewSymDense(nd, nil)
	stat.CovarianceMatrix(cov, x, w)
	cov.ScaleSym(kernelInflate, cov)

	// Diagonal loading for covariances that are not positive definite;
	// if loading fails to repair it, fall back to the diagonal variant.
	ridge := 0.0
	for i := 0; i < nd; i++ {
		if d := cov.At(i, i); d > ridge {
			ridge = d
		}
	}
	ridge = math.Max(ridge*1e-10, minVar)
	for tries := 0; tries < 3; tries++ {
		normal, ok := distmv.NewNormal(make([]float64, nd), cov, src)
		if ok {
			return &fullKernel{normal: normal}
		}
		for i := 0; i < nd; i++ {
			cov.SetSym(i, i, cov.At(i, i)+ridge)
		}
		ridge *= 10
	}
	return newDiagKernel(pop, w, nd, src)
}

type fullKernel struct {
	normal *distmv.Normal
}

func (k *fullKernel) perturb(base []float64) []float64 {
	p := k.normal.Rand(nil)
	for i, b := range base {
		p[i] += b
	}
	return p
}

func (k *fullKernel) density(dx []float64) float64 {
	return math.Exp(k.normal.LogProb(dx))
}

type diagKernel struct {
	dims []distuv.Normal
}

func newDiagKernel(pop *Population, w []float64, nd int, src rand.Source) *diagKernel {
	col := make([]float64, len(pop.Params))
	dims := make([]distuv.Normal, nd)
	for j := 0; j < nd; j++ {
		for i, row := range pop.Params {
			col[i] = row[j]
		}
		v := kernelInflate * stat.Variance(col, w)
		if v < minVar {
			v = minVar
		}
		dims[j] = distuv.Normal{Mu: 0, Sigma: math.Sqrt(v), Src: src}
	}
	return &diagKernel{dims: dims}
}

func (k *diagKernel) perturb(base []float64) []float64 {
	p := make([]float64, len(base))
	for i, b := range base {
		p[i] = b + k.dims[i].Rand()
	}
	return p
}

func (k *diagKernel) density(dx []float64) float64 {
	d := 1.0
	for i, v := range dx {
		d *= k.dims[i].Prob(v)
	}
	return d
}

// mixtureWeights computes unnormalized PMC importance weights for newly
// accepted particles: the prior density over the density of the actual
// proposal mixture that generated them - the weighted sum over previous
// particles of the perturbation density at the displacement.
func mixtureWeights(prior func([]float64) float64, params [][]float64, prev *Population, k kernel) []float64 {
	pw := prev.normWeights()
	w := make([]float64, len(params))
	dx := make([]float64, len(params[0]))
	for i, th := range params {
		num := prior(th)
		if num == 0 {
			continue
		}
		denom := 0.0
		for j, old := range prev.Params {
			for d := range dx {
				dx[d] = th[d] - old[d]
			}
			denom += pw[j] * k.density(dx)
		}
		w[i] = num / denom
	}
	return w
}
