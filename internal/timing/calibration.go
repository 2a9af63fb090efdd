package timing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Calibration ties the four hold durations to one target's clock and compiler
// settings. Loop counts are only valid for the clock and optimization level they
// were measured at; changing either requires a new scope measurement.
type Calibration struct {
	Target       string
	Clock        physic.Frequency
	Optimization string
	// Loops is the busy-wait iteration count per phase. All zero means the
	// target holds by spinning on the monotonic clock instead.
	Loops [NumPhases]int
	// Measured is what a scope showed for each phase, pin write included.
	Measured [NumPhases]time.Duration
	// Derived is set when Loops were scaled from another target and not
	// re-measured.
	Derived bool
}

// NetduinoPlus2 was tuned on an STM32F4 at 168MHz, gcc full optimization, with a
// volatile counter and one NOP per iteration.
var NetduinoPlus2 = Calibration{
	Target:       "netduino-plus2",
	Clock:        168 * physic.MegaHertz,
	Optimization: "gcc -O3",
	Loops: [NumPhases]int{
		ZeroHigh: 5,
		ZeroLow:  15,
		OneHigh:  12,
		OneLow:   10,
	},
	Measured: [NumPhases]time.Duration{
		ZeroHigh: 350 * time.Nanosecond,
		ZeroLow:  800 * time.Nanosecond,
		OneHigh:  680 * time.Nanosecond,
		OneLow:   580 * time.Nanosecond,
	},
}

// HostSpin holds each phase for the WS2812 nominal time using the monotonic clock.
var HostSpin = Calibration{
	Target:       "host-spin",
	Optimization: "gc default",
	Measured: [NumPhases]time.Duration{
		ZeroHigh: WS2812.Windows[ZeroHigh].Nominal(),
		ZeroLow:  WS2812.Windows[ZeroLow].Nominal(),
		OneHigh:  WS2812.Windows[OneHigh].Nominal(),
		OneLow:   WS2812.Windows[OneLow].Nominal(),
	},
}

// TinyGoOptimization is the build the MCU firmware uses. No table has been
// measured under it yet.
const TinyGoOptimization = "tinygo -opt=2"

// NetduinoPlus2TinyGo carries the gcc loop counts into a TinyGo build. The loop
// body and call path differ, so the counts are a starting point only.
var NetduinoPlus2TinyGo = NetduinoPlus2.Rebuild("netduino-plus2-tinygo", TinyGoOptimization)

var calibrations = map[string]Calibration{
	NetduinoPlus2.Target:       NetduinoPlus2,
	NetduinoPlus2TinyGo.Target: NetduinoPlus2TinyGo,
	HostSpin.Target:            HostSpin,
	"rp2040-125mhz": NetduinoPlus2.
		Scale("rp2040-125mhz", 125*physic.MegaHertz).
		Rebuild("rp2040-125mhz", TinyGoOptimization),
}

// LookupCalibration finds a named calibration.
func LookupCalibration(name string) (Calibration, error) {
	c, ok := calibrations[strings.ToLower(name)]
	if !ok {
		return Calibration{}, fmt.Errorf("unknown calibration %q", name)
	}
	return c, nil
}

// Calibrations lists the known calibration names, sorted.
func Calibrations() []string {
	names := make([]string, 0, len(calibrations))
	for n := range calibrations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Looped reports whether the calibration uses iteration counts.
func (c Calibration) Looped() bool {
	for _, n := range c.Loops {
		if n != 0 {
			return true
		}
	}
	return false
}

func (c Calibration) Duration(p Phase) time.Duration {
	return c.Measured[p]
}

// Scale derives loop counts for another clock by keeping the time per phase
// constant. The result is marked Derived.
func (c Calibration) Scale(target string, clock physic.Frequency) Calibration {
	out := c
	out.Target = target
	out.Clock = clock
	out.Derived = true
	if c.Clock == 0 {
		return out
	}
	ratio := float64(clock) / float64(c.Clock)
	for i, n := range c.Loops {
		out.Loops[i] = int(math.Round(float64(n) * ratio))
	}
	return out
}

// Rebuild returns the calibration for a different compiler or optimization
// level. Loop counts carry over unmeasured, so a change marks it Derived.
func (c Calibration) Rebuild(target, optimization string) Calibration {
	out := c
	out.Target = target
	if optimization != c.Optimization {
		out.Optimization = optimization
		out.Derived = true
	}
	return out
}

// ErrOutOfTolerance is wrapped by every Validate failure.
var ErrOutOfTolerance = errors.New("calibration out of tolerance")

// Validate checks the measured durations against the protocol windows and that a
// "1" is held high strictly longer than a "0".
func (c Calibration) Validate(p Protocol) error {
	for _, ph := range Phases() {
		d := c.Measured[ph]
		w := p.Windows[ph]
		if !w.Contains(d) {
			return fmt.Errorf("%w: %s %s=%v outside [%v, %v] for %s",
				ErrOutOfTolerance, c.Target, ph, d, w.Min, w.Max, p.Name)
		}
	}
	if c.Measured[OneHigh] <= c.Measured[ZeroHigh] {
		return fmt.Errorf("%w: %s T1H=%v not longer than T0H=%v",
			ErrOutOfTolerance, c.Target, c.Measured[OneHigh], c.Measured[ZeroHigh])
	}
	return nil
}
