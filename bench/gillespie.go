package bench

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rwcarlsen/abc"
)

// Gillespie infers the three rate constants of a stochastic
// Lotka-Volterra kinetics model (prey birth, predation, predator death)
// simulated exactly with the Gillespie stochastic simulation algorithm.
// Summary statistics are both species' counts at the fixed sample times;
// observed statistics come from one realization at the true rates
// (1, 0.005, 0.6).  Trajectories whose reaction count exceeds MaxSteps
// before the last sample time report failure - the exploding-population
// regime would otherwise dominate run time.
type Gillespie struct {
	// X0, Y0 are the initial prey and predator counts.
	X0, Y0 int
	// Times are the trajectory sample times; statistics are (prey,
	// predator) pairs at each, so Nstats == 2*len(Times).
	Times []float64
	// MaxSteps caps reactions per simulation.
	MaxSteps int

	truth []float64
	obs   []float64
	rng   *rand.Rand
	prior []distuv.Uniform
}

func NewGillespie(seed uint64) *Gillespie {
	src := rand.NewPCG(seed, 0x6c76)
	m := &Gillespie{
		X0:       50,
		Y0:       100,
		Times:    []float64{3, 6, 9, 12, 15},
		MaxSteps: 100000,
		truth:    []float64{1, 0.005, 0.6},
		rng:      rand.New(src),
		prior: []distuv.Uniform{
			{Min: 0, Max: 2, Src: src},
			{Min: 0, Max: 0.01, Src: src},
			{Min: 0, Max: 2, Src: src},
		},
	}

	// One realization at the true rates serves as the observation.
	ok, obs := m.simulate(m.truth)
	if !ok {
		panic("bench: observed Lotka-Volterra trajectory exceeded step cap")
	}
	m.obs = obs
	return m
}

func (m *Gillespie) Name() string    { return "Gillespie" }
func (m *Gillespie) True() []float64 { return append([]float64{}, m.truth...) }

func (m *Gillespie) Problem() abc.Problem {
	return abc.Problem{
		SamplePrior: func() []float64 {
			th := make([]float64, 3)
			for i := range th {
				th[i] = m.prior[i].Rand()
			}
			return th
		},
		PriorDensity: func(th []float64) float64 {
			d := 1.0
			for i, p := range m.prior {
				d *= p.Prob(th[i])
			}
			return d
		},
		Simulate: m.simulate,
		Obs:      append([]float64{}, m.obs...),
		Nparams:  3,
		Nstats:   2 * len(m.Times),
	}
}

func (m *Gillespie) simulate(th []float64) (bool, []float64) {
	x, y := float64(m.X0), float64(m.Y0)
	t := 0.0
	stats := make([]float64, 0, 2*len(m.Times))
	next := 0

	for steps := 0; next < len(m.Times); steps++ {
		if steps >= m.MaxSteps {
			return false, nil
		}

		h1 := th[0] * x
		h2 := th[1] * x * y
		h3 := th[2] * y
		h0 := h1 + h2 + h3
		if h0 == 0 {
			// Both species extinct - the state is frozen for the
			// remaining sample times.
			for ; next < len(m.Times); next++ {
				stats = append(stats, x, y)
			}
			break
		}

		t += m.rng.ExpFloat64() / h0
		for next < len(m.Times) && t > m.Times[next] {
			// The state has not changed yet at the crossed sample times.
			stats = append(stats, x, y)
			next++
		}

		u := m.rng.Float64() * h0
		switch {
		case u < h1:
			x++
		case u < h1+h2:
			x--
			y++
		default:
			y--
		}
	}
	return true, stats
}
