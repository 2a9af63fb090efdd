//go:build tinygo

package critical

import "runtime/interrupt"

// Interrupts masks maskable interrupts on the MCU.
type Interrupts struct{}

func (Interrupts) Disable() State {
	return State(interrupt.Disable())
}

func (Interrupts) Restore(s State) {
	interrupt.Restore(interrupt.State(s))
}

// Default returns the masker for this platform.
func Default() Masker { return Interrupts{} }
