package abc

import (
	"fmt"
	"io"
)

// IterInfo summarizes one completed sampler iteration.
type IterInfo struct {
	// Iter is the 1-based iteration number.
	Iter int
	// Eps is the acceptance threshold selected at the end of the
	// iteration (applies to the next iteration's candidates).
	Eps float64
	// AcceptRate is accepted candidates divided by simulations performed
	// during this iteration.
	AcceptRate float64
	// Nsim is the cumulative simulation count over the whole run.
	Nsim int
}

// Observer receives progress events from a running sampler.  All methods
// are invoked from the sampler's goroutine at iteration boundaries except
// Candidate, which fires once per simulated candidate and so should be
// cheap.
type Observer interface {
	IterStart(iter int)
	Candidate(accepted bool)
	IterDone(info IterInfo)
}

// NullObserver ignores all events.
type NullObserver struct{}

func (NullObserver) IterStart(iter int)      {}
func (NullObserver) Candidate(accepted bool) {}
func (NullObserver) IterDone(info IterInfo)  {}

// Progress prints a one-line summary per completed iteration to W.
type Progress struct {
	W io.Writer
}

func (Progress) IterStart(iter int)      {}
func (Progress) Candidate(accepted bool) {}

func (p Progress) IterDone(info IterInfo) {
	fmt.Fprintf(p.W, "iter %v: eps=%v accept=%.2f%% nsim=%v\n",
		info.Iter, info.Eps, info.AcceptRate*100, info.Nsim)
}
