package metric

import (
	"math"
	"testing"
)

const tol = 1e-12

func TestEuclidean(t *testing.T) {
	m := New(Euclidean, []float64{0, 0})
	want := 5.0
	if got := m.Distance([]float64{3, 4}); math.Abs(got-want) > tol {
		t.Errorf("expected distance %v, got %v", want, got)
	}
}

func TestLp(t *testing.T) {
	m := NewLp(1, []float64{0, 0})
	want := 7.0
	if got := m.Distance([]float64{3, -4}); math.Abs(got-want) > tol {
		t.Errorf("L1: expected distance %v, got %v", want, got)
	}

	// p=2 must agree with Euclidean.
	m2 := NewLp(2, []float64{1, 1})
	e := New(Euclidean, []float64{1, 1})
	stats := []float64{4, 5}
	if got, want := m2.Distance(stats), e.Distance(stats); math.Abs(got-want) > tol {
		t.Errorf("L2: expected distance %v, got %v", want, got)
	}
}

func TestLogdist(t *testing.T) {
	m := New(Logdist, []float64{1, 1})
	// log(e)-log(1) = 1 in each coordinate.
	want := math.Sqrt(2)
	if got := m.Distance([]float64{math.E, math.E}); math.Abs(got-want) > tol {
		t.Errorf("expected distance %v, got %v", want, got)
	}
}

func TestWeightedEuclidean(t *testing.T) {
	// Column 0 has stddev 2, column 1 has stddev 1.
	stats := [][]float64{{2, 1}, {-2, -1}, {2, 1}, {-2, -1}, {2, 1}, {-2, -1}}
	sd0 := math.Sqrt(24.0 / 5) // unbiased over 6 samples
	sd1 := sd0 / 2

	m := New(WeightedEuclidean, []float64{0, 0}).Fit(nil, stats)
	if !m.Fitted() {
		t.Fatal("metric not fitted after Fit")
	}

	got := m.Distance([]float64{sd0, 0})
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("one-sd displacement in stat 0: expected distance 1, got %v", got)
	}
	got = m.Distance([]float64{0, sd1})
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("one-sd displacement in stat 1: expected distance 1, got %v", got)
	}
}

func TestWeightedEuclideanZeroVariance(t *testing.T) {
	// Column 1 is constant; its scale must be floored, not infinite.
	stats := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	m := New(WeightedEuclidean, []float64{0, 5}).Fit(nil, stats)

	got := m.Distance([]float64{0, 5})
	if got != 0 {
		t.Errorf("expected zero distance at the observation, got %v", got)
	}
	got = m.Distance([]float64{0, 6})
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("expected finite distance with constant reference column, got %v", got)
	}
	if want := 1 / MinStdDev; math.Abs(got-want) > want*1e-9 {
		t.Errorf("expected floored scale distance %v, got %v", want, got)
	}
}

func TestMahalanobis(t *testing.T) {
	// Sample with mean zero and diagonal covariance diag(8/3, 2/3).
	stats := [][]float64{{2, 0}, {-2, 0}, {0, 1}, {0, -1}}
	m := New(MahalanobisEmp, []float64{0, 0}).Fit(nil, stats)
	if !m.Fitted() {
		t.Fatal("metric not fitted after Fit")
	}

	want := math.Sqrt(3.0/8 + 3.0/2)
	if got := m.Distance([]float64{1, 1}); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected distance %v, got %v", want, got)
	}
}

func TestMahalanobisSingular(t *testing.T) {
	// Second column duplicates the first, so the covariance is singular
	// and the pseudo-inverse path must engage.
	stats := [][]float64{{1, 1}, {2, 2}, {3, 3}, {5, 5}}
	m := New(MahalanobisEmp, []float64{0, 0}).Fit(nil, stats)

	got := m.Distance([]float64{1, 1})
	if math.IsNaN(got) || math.IsInf(got, 0) || got < 0 {
		t.Errorf("expected finite non-negative distance from singular fit, got %v", got)
	}
	t.Logf("singular-covariance distance: %v", got)
}

func TestFitTinySample(t *testing.T) {
	// Fewer than two reference samples cannot support a spread estimate;
	// fitted metrics must degrade to unweighted behavior.
	obs := []float64{0, 0}
	stats := [][]float64{{1, 2}}
	probe := []float64{3, 4}
	want := New(Euclidean, obs).Distance(probe)

	for _, kind := range []Kind{WeightedEuclidean, MahalanobisEmp} {
		m := New(kind, obs).Fit(nil, stats)
		if got := m.Distance(probe); math.Abs(got-want) > tol {
			t.Errorf("%v: expected fallback distance %v, got %v", kind, want, got)
		}
	}
}

func TestKindByName(t *testing.T) {
	for _, k := range []Kind{Euclidean, Lp, Logdist, WeightedEuclidean, MahalanobisEmp} {
		got, err := KindByName(k.String())
		if err != nil {
			t.Errorf("%v: unexpected error %v", k, err)
		} else if got != k {
			t.Errorf("expected kind %v, got %v", k, got)
		}
	}
	if _, err := KindByName("manhattanish"); err == nil {
		t.Errorf("expected error for unknown kind name")
	}
}
