package smc

import "testing"

func TestOrderStat(t *testing.T) {
	xs := []float64{5, 1, 4, 2, 3}
	tests := []struct {
		k    int
		want float64
	}{{1, 1}, {3, 3}, {5, 5}}
	for _, test := range tests {
		if got := orderStat(xs, test.k); got != test.want {
			t.Errorf("k=%v: expected %v, got %v", test.k, test.want, got)
		}
	}
	if xs[0] != 5 {
		t.Errorf("orderStat mutated its input: %v", xs)
	}
}

func TestDrawIndex(t *testing.T) {
	// Weights 1, 0, 3: index 1 must never be drawn, index 2 three times
	// as often as index 0.
	cum := []float64{1, 1, 4}
	tests := []struct {
		u    float64
		want int
	}{{0, 0}, {0.1, 0}, {0.24, 0}, {0.5, 2}, {0.99, 2}}
	for _, test := range tests {
		if got := drawIndex(cum, test.u); got != test.want {
			t.Errorf("u=%v: expected index %v, got %v", test.u, test.want, got)
		}
	}
}

func TestRefTableCap(t *testing.T) {
	table := newRefTable(3)
	for i := 0; i < 5; i++ {
		table.add([]float64{float64(i)}, []float64{float64(-i)})
	}
	if table.Len() != 3 {
		t.Fatalf("expected table capped at 3 pairs, got %v", table.Len())
	}
	// First come, first kept.
	for i := 0; i < 3; i++ {
		if table.Params[i][0] != float64(i) {
			t.Errorf("entry %v: expected param %v, got %v", i, i, table.Params[i][0])
		}
	}
}

func TestRefTableCopies(t *testing.T) {
	table := newRefTable(2)
	th := []float64{1}
	table.add(th, []float64{2})
	th[0] = 99
	if table.Params[0][0] != 1 {
		t.Errorf("table aliases caller slice: got %v", table.Params[0][0])
	}
}
