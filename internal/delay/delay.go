// Package delay implements the hold primitive of the pulse encoder: a busy-wait
// of a fixed, calibrated length per phase. Nothing here sleeps or yields; the
// holds are far below any scheduler's granularity.
package delay

import (
	"time"

	"github.com/coreman2200/pixelwire/internal/timing"
)

// Holder busy-waits for the calibrated length of one phase.
type Holder interface {
	Hold(p timing.Phase)
}

// New returns a Loop when the calibration has iteration counts, else a Spin.
func New(cal timing.Calibration) Holder {
	if cal.Looped() {
		return NewLoop(cal)
	}
	return NewSpin(cal)
}

// Loop spins a fixed number of iterations per phase. The iteration count is read
// from a table, so every phase runs the same instruction sequence.
type Loop struct {
	counts [timing.NumPhases]int
}

func NewLoop(cal timing.Calibration) *Loop {
	return &Loop{counts: cal.Loops}
}

func (l *Loop) Hold(p timing.Phase) {
	cycleLoop(l.counts[p&(timing.NumPhases-1)])
}

// Spin waits on the monotonic clock. Its accuracy is bounded by the cost of a
// clock read, which is tens of nanoseconds on vDSO hosts.
type Spin struct {
	durations [timing.NumPhases]time.Duration
}

func NewSpin(cal timing.Calibration) *Spin {
	return &Spin{durations: cal.Measured}
}

func (s *Spin) Hold(p timing.Phase) {
	d := s.durations[p&(timing.NumPhases-1)]
	start := time.Now()
	for time.Since(start) < d {
	}
}
