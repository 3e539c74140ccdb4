package abc

import "testing"

func validProblem() Problem {
	return Problem{
		SamplePrior:  func() []float64 { return []float64{0.5} },
		PriorDensity: func(th []float64) float64 { return 1 },
		Simulate:     func(th []float64) (bool, []float64) { return true, []float64{th[0]} },
		Obs:          []float64{0.5},
		Nparams:      1,
		Nstats:       1,
	}
}

func TestProblemCheck(t *testing.T) {
	if err := func() error { p := validProblem(); return p.Check() }(); err != nil {
		t.Errorf("valid problem failed check: %v", err)
	}

	tests := []struct {
		name   string
		mangle func(*Problem)
	}{
		{"nil prior sampler", func(p *Problem) { p.SamplePrior = nil }},
		{"nil prior density", func(p *Problem) { p.PriorDensity = nil }},
		{"nil simulator", func(p *Problem) { p.Simulate = nil }},
		{"zero param dim", func(p *Problem) { p.Nparams = 0 }},
		{"zero stat dim", func(p *Problem) { p.Nstats = 0 }},
		{"obs length mismatch", func(p *Problem) { p.Obs = []float64{1, 2} }},
	}
	for _, test := range tests {
		p := validProblem()
		test.mangle(&p)
		if err := p.Check(); err == nil {
			t.Errorf("%v: expected check error, got nil", test.name)
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	Seed(42)
	a := []float64{Rand.Float64(), Rand.Float64(), Rand.Float64()}
	Seed(42)
	b := []float64{Rand.Float64(), Rand.Float64(), Rand.Float64()}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("draw %v: expected %v, got %v after reseed", i, a[i], b[i])
		}
	}
}
