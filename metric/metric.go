// Package metric implements the family of distances used to compare
// simulated summary statistics against observed ones.  Some variants must
// be fitted to a reference sample of simulated statistics before use;
// fitting happens once per sampler iteration and evaluation sits on the
// simulation hot path, so fitted state is precomputed and immutable.
package metric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Kind selects a distance variant.  The set is closed: new variants are
// added here rather than through an open interface so that a fitted
// Metric stays a plain serializable value.
type Kind int

const (
	// Euclidean is the unweighted L2 norm of (stat - obs).  No fitting.
	Euclidean Kind = iota
	// Lp is the generalized p-norm with exponent P.  No fitting.
	Lp
	// Logdist is the Euclidean distance between log-transformed
	// statistics.  Statistics must be strictly positive; NaNs propagate
	// to the returned distance otherwise.
	Logdist
	// WeightedEuclidean scales each statistic by the inverse of its
	// standard deviation over the reference sample.
	WeightedEuclidean
	// MahalanobisEmp whitens statistics with the inverse of the empirical
	// covariance of the reference sample.
	MahalanobisEmp
)

func (k Kind) String() string {
	switch k {
	case Euclidean:
		return "euclidean"
	case Lp:
		return "lp"
	case Logdist:
		return "logdist"
	case WeightedEuclidean:
		return "weightedeuclidean"
	case MahalanobisEmp:
		return "mahalanobis"
	}
	return fmt.Sprintf("kind(%v)", int(k))
}

// KindByName maps the names produced by Kind.String back to kinds.  It is
// used for config file parsing.
func KindByName(name string) (Kind, error) {
	for _, k := range []Kind{Euclidean, Lp, Logdist, WeightedEuclidean, MahalanobisEmp} {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("metric: unknown kind %q", name)
}

// MinStdDev is the floor applied to per-statistic standard deviations
// when fitting WeightedEuclidean.  Reference statistics with (near-)zero
// spread would otherwise produce unbounded scales.
const MinStdDev = 1e-8

// pinvTol is the relative singular value cutoff used when the empirical
// covariance is singular and must be pseudo-inverted.
const pinvTol = 1e-12

// Metric is one distance variant together with any fitted state.  A
// Metric is immutable after Fit; the zero value is the unfitted Euclidean
// distance from a zero-length observation and is not useful.
type Metric struct {
	Kind Kind      `json:"kind"`
	P    float64   `json:"p,omitempty"`
	Obs  []float64 `json:"obs"`
	// Scale holds the per-statistic scale factors 1/sd for
	// WeightedEuclidean.  Empty for other kinds and before fitting.
	Scale []float64 `json:"scale,omitempty"`
	// Prec holds the row-major precision (inverse covariance) matrix for
	// MahalanobisEmp.  Empty for other kinds and before fitting.
	Prec []float64 `json:"prec,omitempty"`
}

// New returns an unfitted metric of the given kind measuring distance
// from obs.  Lp metrics should be built with NewLp instead so the
// exponent is set.
func New(kind Kind, obs []float64) Metric {
	m := Metric{Kind: kind, Obs: append([]float64{}, obs...)}
	if kind == Lp {
		m.P = 2
	}
	return m
}

// NewLp returns an unfitted Lp metric with exponent p measuring distance
// from obs.
func NewLp(p float64, obs []float64) Metric {
	return Metric{Kind: Lp, P: p, Obs: append([]float64{}, obs...)}
}

// Fitted reports whether m is ready for Distance calls.  Kinds without
// fitted state are always ready.
func (m Metric) Fitted() bool {
	switch m.Kind {
	case WeightedEuclidean:
		return len(m.Scale) == len(m.Obs)
	case MahalanobisEmp:
		return len(m.Prec) == len(m.Obs)*len(m.Obs)
	}
	return true
}

// Fit returns a copy of m fitted to the reference sample.  params holds
// one parameter vector per row and stats the matching statistic vectors;
// only stats participate in fitting for the current kinds, but both are
// part of the contract so variants conditioning on parameters can be
// added.  Degenerate samples are regularized rather than rejected: scales
// are floored at MinStdDev and singular covariances pseudo-inverted.
func (m Metric) Fit(params, stats [][]float64) Metric {
	_ = params
	switch m.Kind {
	case WeightedEuclidean:
		m.Scale = fitScales(stats, len(m.Obs))
	case MahalanobisEmp:
		m.Prec = fitPrecision(stats, len(m.Obs))
	}
	return m
}

// Distance returns the distance of the statistic vector from the
// observed statistics under m.  It is non-negative (NaN only for Logdist
// on non-positive inputs, which is the caller's responsibility to avoid).
func (m Metric) Distance(stats []float64) float64 {
	if len(stats) != len(m.Obs) {
		panic(fmt.Sprintf("metric: stat length %v incompatible with observed length %v", len(stats), len(m.Obs)))
	}

	switch m.Kind {
	case Euclidean:
		tot := 0.0
		for i, s := range stats {
			d := s - m.Obs[i]
			tot += d * d
		}
		return math.Sqrt(tot)
	case Lp:
		tot := 0.0
		for i, s := range stats {
			tot += math.Pow(math.Abs(s-m.Obs[i]), m.P)
		}
		return math.Pow(tot, 1/m.P)
	case Logdist:
		tot := 0.0
		for i, s := range stats {
			d := math.Log(s) - math.Log(m.Obs[i])
			tot += d * d
		}
		return math.Sqrt(tot)
	case WeightedEuclidean:
		if !m.Fitted() {
			panic("metric: WeightedEuclidean used before fitting")
		}
		tot := 0.0
		for i, s := range stats {
			d := (s - m.Obs[i]) * m.Scale[i]
			tot += d * d
		}
		return math.Sqrt(tot)
	case MahalanobisEmp:
		if !m.Fitted() {
			panic("metric: MahalanobisEmp used before fitting")
		}
		n := len(stats)
		diff := make([]float64, n)
		for i, s := range stats {
			diff[i] = s - m.Obs[i]
		}
		tot := 0.0
		for i := 0; i < n; i++ {
			row := 0.0
			for j := 0; j < n; j++ {
				row += m.Prec[i*n+j] * diff[j]
			}
			tot += row * diff[i]
		}
		// Guard tiny negative totals from pseudo-inverse roundoff.
		if tot < 0 {
			tot = 0
		}
		return math.Sqrt(tot)
	}
	panic("metric: unknown kind " + m.Kind.String())
}

func fitScales(stats [][]float64, nstats int) []float64 {
	scale := make([]float64, nstats)
	if len(stats) < 2 {
		// Not enough reference samples to estimate spread - fall back to
		// unweighted distances.
		for i := range scale {
			scale[i] = 1
		}
		return scale
	}

	col := make([]float64, len(stats))
	for j := 0; j < nstats; j++ {
		for i, row := range stats {
			col[i] = row[j]
		}
		sd := stat.StdDev(col, nil)
		if sd < MinStdDev {
			sd = MinStdDev
		}
		scale[j] = 1 / sd
	}
	return scale
}

func fitPrecision(stats [][]float64, nstats int) []float64 {
	if len(stats) < 2 {
		// Identity precision - equivalent to plain Euclidean.
		prec := make([]float64, nstats*nstats)
		for i := 0; i < nstats; i++ {
			prec[i*nstats+i] = 1
		}
		return prec
	}

	x := mat.NewDense(len(stats), nstats, nil)
	for i, row := range stats {
		x.SetRow(i, row)
	}
	cov := mat.NewSymDense(nstats, nil)
	stat.CovarianceMatrix(cov, x, nil)

	prec := mat.NewDense(nstats, nstats, nil)
	var chol mat.Cholesky
	if chol.Factorize(cov) {
		var inv mat.SymDense
		if err := chol.InverseTo(&inv); err == nil {
			for i := 0; i < nstats; i++ {
				for j := 0; j < nstats; j++ {
					prec.Set(i, j, inv.At(i, j))
				}
			}
			return prec.RawMatrix().Data
		}
	}
	pinv(prec, cov)
	return prec.RawMatrix().Data
}

// pinv sets dst to the Moore-Penrose pseudo-inverse of a, for covariances
// that are singular or too ill-conditioned for Cholesky.
func pinv(dst *mat.Dense, a mat.Symmetric) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		panic("metric: SVD of covariance failed to converge")
	}

	n := a.SymmetricDim()
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	vals := svd.Values(nil)

	cut := pinvTol * float64(n) * vals[0]
	sinv := mat.NewDense(n, n, nil)
	for i, s := range vals {
		if s > cut {
			sinv.Set(i, i, 1/s)
		}
	}

	dst.Product(&v, sinv, u.T())
}
