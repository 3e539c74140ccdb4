// Package reject implements plain rejection-sampling ABC: parameters are
// drawn from the prior and kept when their simulated statistics land
// close enough to the observed ones.  It is the degenerate single
// iteration special case of the smc sampler and is mostly useful as a
// baseline and for seeding intuition about a problem.
package reject

import (
	"fmt"

	"github.com/petar/GoLLRB/llrb"

	"github.com/rwcarlsen/abc"
	"github.com/rwcarlsen/abc/metric"
)

// Particle is one accepted draw.
type Particle struct {
	Params []float64
	Stats  []float64
	Dist   float64
}

func (p Particle) Less(than llrb.Item) bool {
	return p.Dist < than.(Particle).Dist
}

// Sampler draws from the prior until its simulation budget maxsim is
// exhausted.  With a positive Eps it keeps every draw whose distance is
// at or below Eps (threshold mode); with Eps <= 0 it keeps the N closest
// draws seen over the whole budget (quota mode).
type Sampler struct {
	Prob   abc.Problem
	N      int
	MaxSim int
	Eps    float64
	Dist   metric.Metric
}

// New validates the problem and configuration.  m is used as-is, so
// variants that need fitting must be fitted by the caller - rejection
// sampling has no reference table of its own.
func New(prob abc.Problem, n, maxsim int, eps float64, m metric.Metric) (*Sampler, error) {
	if err := prob.Check(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("reject: population size must be positive, got %v", n)
	}
	if maxsim <= 0 {
		return nil, fmt.Errorf("reject: simulation budget must be positive, got %v", maxsim)
	}
	if !m.Fitted() {
		return nil, fmt.Errorf("reject: %v metric must be fitted before use", m.Kind)
	}
	return &Sampler{Prob: prob, N: n, MaxSim: maxsim, Eps: eps, Dist: m}, nil
}

// Run performs the draws and returns the accepted particles plus the
// number of simulator invocations consumed.  Threshold mode returns
// particles in acceptance order and may return fewer than N (or none) if
// the budget runs out first; quota mode returns min(N, successful draws)
// sorted by distance.
func (s *Sampler) Run() (particles []Particle, nsim int) {
	// Quota mode keeps the N closest draws in a bounded tree, evicting
	// the current worst whenever a closer draw arrives.
	closest := llrb.New()

	for nsim < s.MaxSim && (s.Eps <= 0 || len(particles) < s.N) {
		theta := s.Prob.SamplePrior()
		if s.Prob.PriorDensity(theta) == 0 {
			continue
		}
		nsim++
		ok, y := s.Prob.Simulate(theta)
		if !ok {
			continue
		}

		d := s.Dist.Distance(y)
		p := Particle{
			Params: append([]float64{}, theta...),
			Stats:  append([]float64{}, y...),
			Dist:   d,
		}
		if s.Eps > 0 {
			if d <= s.Eps {
				particles = append(particles, p)
			}
			continue
		}
		closest.InsertNoReplace(p)
		for closest.Len() > s.N {
			closest.DeleteMax()
		}
	}

	if s.Eps <= 0 && closest.Len() > 0 {
		particles = make([]Particle, 0, closest.Len())
		closest.AscendGreaterOrEqual(closest.Min(), func(i llrb.Item) bool {
			particles = append(particles, i.(Particle))
			return true
		})
	}
	return particles, nsim
}
