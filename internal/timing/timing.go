// Package timing holds the WS2812 family pulse tolerances and the per-platform
// calibration tables the busy-wait delays are tuned against.
package timing

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one half of an encoded bit: the high or low part of a "0" or a "1".
type Phase uint8

const (
	ZeroHigh Phase = iota
	ZeroLow
	OneHigh
	OneLow

	NumPhases = 4
)

var phaseNames = [NumPhases]string{"T0H", "T0L", "T1H", "T1L"}

func (p Phase) String() string {
	if int(p) < NumPhases {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Phases lists every phase in table order.
func Phases() [NumPhases]Phase {
	return [NumPhases]Phase{ZeroHigh, ZeroLow, OneHigh, OneLow}
}

// Window is the accepted duration range of a phase.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Around returns nominal±tolerance.
func Around(nominal, tolerance time.Duration) Window {
	return Window{Min: nominal - tolerance, Max: nominal + tolerance}
}

func (w Window) Contains(d time.Duration) bool {
	return d >= w.Min && d <= w.Max
}

func (w Window) Nominal() time.Duration {
	return (w.Min + w.Max) / 2
}

// Protocol is a chip's documented timing contract.
type Protocol struct {
	Name    string
	Windows [NumPhases]Window
	// Latch is the minimum idle-low time before the chain commits a frame.
	Latch time.Duration
}

// BitPeriod is the nominal length of one encoded bit.
func (p Protocol) BitPeriod() time.Duration {
	return p.Windows[ZeroHigh].Nominal() + p.Windows[ZeroLow].Nominal()
}

// FrameTime is the nominal wire time for n pixels, latch excluded.
func (p Protocol) FrameTime(pixels int) time.Duration {
	return time.Duration(pixels) * 24 * p.BitPeriod()
}

const tolerance = 150 * time.Nanosecond

var (
	WS2812 = Protocol{
		Name: "ws2812",
		Windows: [NumPhases]Window{
			ZeroHigh: Around(350*time.Nanosecond, tolerance),
			ZeroLow:  Around(800*time.Nanosecond, tolerance),
			OneHigh:  Around(700*time.Nanosecond, tolerance),
			OneLow:   Around(600*time.Nanosecond, tolerance),
		},
		Latch: 50 * time.Microsecond,
	}

	WS2812B = Protocol{
		Name: "ws2812b",
		Windows: [NumPhases]Window{
			ZeroHigh: Around(400*time.Nanosecond, tolerance),
			ZeroLow:  Around(850*time.Nanosecond, tolerance),
			OneHigh:  Around(800*time.Nanosecond, tolerance),
			OneLow:   Around(450*time.Nanosecond, tolerance),
		},
		Latch: 50 * time.Microsecond,
	}
)

var protocols = map[string]Protocol{
	WS2812.Name:  WS2812,
	WS2812B.Name: WS2812B,
}

// LookupProtocol finds a protocol by case-insensitive name.
func LookupProtocol(name string) (Protocol, error) {
	p, ok := protocols[strings.ToLower(name)]
	if !ok {
		return Protocol{}, fmt.Errorf("unknown protocol %q", name)
	}
	return p, nil
}
