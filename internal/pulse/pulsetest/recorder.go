// Package pulsetest records what a Transmitter does to a pin so tests and the
// simulator can inspect the pulse train without hardware.
package pulsetest

import (
	"fmt"
	"time"

	"github.com/coreman2200/pixelwire/internal/hal"
	"github.com/coreman2200/pixelwire/internal/timing"
)

// Kind is the type of a recorded event.
type Kind uint8

const (
	Level Kind = iota
	Hold
)

// Event is a pin level change or a hold.
type Event struct {
	Kind  Kind
	High  bool
	Phase timing.Phase
}

func (e Event) String() string {
	if e.Kind == Hold {
		return "hold " + e.Phase.String()
	}
	if e.High {
		return "high"
	}
	return "low"
}

// Recorder is a hal.Resolver, hal.Pin and delay.Holder in one. Every pin it
// resolves writes into the same event log.
type Recorder struct {
	Events   []Event
	Resolved []hal.PinRef
	// OnHigh, when set, runs on every High. Tests use it to inject faults.
	OnHigh func(n int)

	high  bool
	highs int
}

func (r *Recorder) Resolve(ref hal.PinRef) (hal.Pin, error) {
	r.Resolved = append(r.Resolved, ref)
	return r, nil
}

func (r *Recorder) High() {
	r.highs++
	if r.OnHigh != nil {
		r.OnHigh(r.highs)
	}
	r.high = true
	r.Events = append(r.Events, Event{Kind: Level, High: true})
}

func (r *Recorder) Low() {
	r.high = false
	r.Events = append(r.Events, Event{Kind: Level})
}

func (r *Recorder) Hold(p timing.Phase) {
	r.Events = append(r.Events, Event{Kind: Hold, Phase: p})
}

// IsHigh is the last level driven.
func (r *Recorder) IsHigh() bool { return r.high }

// Reset clears the log.
func (r *Recorder) Reset() {
	*r = Recorder{OnHigh: r.OnHigh}
}

// Levels counts high and low writes.
func (r *Recorder) Levels() (highs, lows int) {
	for _, e := range r.Events {
		if e.Kind != Level {
			continue
		}
		if e.High {
			highs++
		} else {
			lows++
		}
	}
	return highs, lows
}

// Elapsed sums the hold durations under cal.
func (r *Recorder) Elapsed(cal timing.Calibration) time.Duration {
	var d time.Duration
	for _, e := range r.Events {
		if e.Kind == Hold {
			d += cal.Duration(e.Phase)
		}
	}
	return d
}

// Bits decodes the log back into the phase sequence's bit values. The log must
// start with the idle low and then contain only well-formed
// high, hold, low, hold groups.
func (r *Recorder) Bits() ([]bool, error) {
	ev := r.Events
	if len(ev) == 0 || ev[0] != (Event{Kind: Level}) {
		return nil, fmt.Errorf("trace does not start with idle low")
	}
	ev = ev[1:]
	if len(ev)%4 != 0 {
		return nil, fmt.Errorf("trace has %d events after idle, not a multiple of 4", len(ev))
	}
	bits := make([]bool, 0, len(ev)/4)
	for i := 0; i < len(ev); i += 4 {
		g := ev[i : i+4]
		if g[0] != (Event{Kind: Level, High: true}) || g[1].Kind != Hold ||
			g[2] != (Event{Kind: Level}) || g[3].Kind != Hold {
			return nil, fmt.Errorf("malformed bit %d: %v", i/4, g)
		}
		switch {
		case g[1].Phase == timing.OneHigh && g[3].Phase == timing.OneLow:
			bits = append(bits, true)
		case g[1].Phase == timing.ZeroHigh && g[3].Phase == timing.ZeroLow:
			bits = append(bits, false)
		default:
			return nil, fmt.Errorf("bit %d mixes phases %s/%s", i/4, g[1].Phase, g[3].Phase)
		}
	}
	return bits, nil
}

// Bytes packs Bits MSB first.
func (r *Recorder) Bytes() ([]byte, error) {
	bits, err := r.Bits()
	if err != nil {
		return nil, err
	}
	if len(bits)%8 != 0 {
		return nil, fmt.Errorf("%d bits is not a whole number of bytes", len(bits))
	}
	out := make([]byte, len(bits)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out, nil
}
