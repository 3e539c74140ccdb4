package reject_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rwcarlsen/abc"
	"github.com/rwcarlsen/abc/metric"
	"github.com/rwcarlsen/abc/reject"
)

func identityProblem(seed uint64) abc.Problem {
	src := rand.NewPCG(seed, 0x7e7ec7)
	pri := distuv.Uniform{Min: 0, Max: 1, Src: src}
	return abc.Problem{
		SamplePrior:  func() []float64 { return []float64{pri.Rand()} },
		PriorDensity: func(th []float64) float64 { return pri.Prob(th[0]) },
		Simulate:     func(th []float64) (bool, []float64) { return true, []float64{th[0]} },
		Obs:          []float64{0.5},
		Nparams:      1,
		Nstats:       1,
	}
}

func TestConfigErrors(t *testing.T) {
	prob := identityProblem(1)
	m := metric.New(metric.Euclidean, prob.Obs)

	if _, err := reject.New(prob, 0, 100, 0, m); err == nil {
		t.Errorf("zero population: expected config error, got nil")
	}
	if _, err := reject.New(prob, 10, 0, 0, m); err == nil {
		t.Errorf("zero budget: expected config error, got nil")
	}
	unfit := metric.New(metric.WeightedEuclidean, prob.Obs)
	if _, err := reject.New(prob, 10, 100, 0, unfit); err == nil {
		t.Errorf("unfitted metric: expected config error, got nil")
	}
}

func TestQuota(t *testing.T) {
	prob := identityProblem(3)
	n := 50
	budget := 5000
	s, err := reject.New(prob, n, budget, 0, metric.New(metric.Euclidean, prob.Obs))
	if err != nil {
		t.Fatal(err)
	}

	particles, nsim := s.Run()
	if nsim != budget {
		t.Errorf("quota mode consumed %v sims, expected the full budget %v", nsim, budget)
	}
	if len(particles) != n {
		t.Fatalf("expected %v kept particles, got %v", n, len(particles))
	}
	for i := 1; i < len(particles); i++ {
		if particles[i].Dist < particles[i-1].Dist {
			t.Errorf("particles not sorted by distance at %v: %v < %v", i, particles[i].Dist, particles[i-1].Dist)
		}
	}

	// The 50 closest of 5000 uniform draws to 0.5 should all be well
	// inside 0.5 +- 0.02.
	for i, p := range particles {
		if math.Abs(p.Params[0]-0.5) > 0.02 {
			t.Errorf("particle %v: param %v unexpectedly far from 0.5", i, p.Params[0])
		}
	}
}

func TestThreshold(t *testing.T) {
	prob := identityProblem(5)
	eps := 0.1
	s, err := reject.New(prob, 30, 10000, eps, metric.New(metric.Euclidean, prob.Obs))
	if err != nil {
		t.Fatal(err)
	}

	particles, nsim := s.Run()
	if len(particles) != 30 {
		t.Fatalf("expected 30 accepted particles, got %v (after %v sims)", len(particles), nsim)
	}
	for i, p := range particles {
		if p.Dist > eps {
			t.Errorf("particle %v: distance %v above threshold %v", i, p.Dist, eps)
		}
	}
	if nsim > 10000 {
		t.Errorf("consumed %v sims, over budget", nsim)
	}

	// A threshold wider than the whole prior accepts every draw, so the
	// run stops after exactly N simulations.
	s, err = reject.New(prob, 30, 10000, 10, metric.New(metric.Euclidean, prob.Obs))
	if err != nil {
		t.Fatal(err)
	}
	particles, nsim = s.Run()
	if len(particles) != 30 || nsim != 30 {
		t.Errorf("accept-everything threshold: expected 30 particles in 30 sims, got %v in %v", len(particles), nsim)
	}
}

func TestAllFailing(t *testing.T) {
	prob := identityProblem(7)
	prob.Simulate = func(th []float64) (bool, []float64) { return false, nil }

	s, err := reject.New(prob, 10, 200, 0, metric.New(metric.Euclidean, prob.Obs))
	if err != nil {
		t.Fatal(err)
	}
	particles, nsim := s.Run()
	if len(particles) != 0 {
		t.Errorf("expected no particles from always-failing simulator, got %v", len(particles))
	}
	if nsim != 200 {
		t.Errorf("failed sims must still consume budget: got %v of 200", nsim)
	}
}
