package plugin

import "sync/atomic"

// LatchState is the state of a one-shot latch
type LatchState int32

const (
	LatchPending LatchState = iota
	LatchFired
)

// Latch moves from pending to fired exactly once and never back
type Latch struct {
	state atomic.Int32
}

// Fire moves the latch to fired.  It returns true only for the call that performed the transition.
func (l *Latch) Fire() bool {
	return l.state.CompareAndSwap(int32(LatchPending), int32(LatchFired))
}

// State returns the current latch state
func (l *Latch) State() LatchState {
	return LatchState(l.state.Load())
}

// Fired reports whether the latch has fired
func (l *Latch) Fired() bool {
	return l.State() == LatchFired
}
