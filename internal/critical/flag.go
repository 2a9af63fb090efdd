package critical

import "sync/atomic"

// Flag models a single global interrupt-enable bit. It is the Masker used by the
// simulator and tests, where the real mask cannot be observed.
type Flag struct {
	enabled  atomic.Bool
	disables atomic.Int64
}

// NewFlag returns a flag with interrupts enabled.
func NewFlag() *Flag {
	f := &Flag{}
	f.enabled.Store(true)
	return f
}

func (f *Flag) Disable() State {
	f.disables.Add(1)
	if f.enabled.Swap(false) {
		return 1
	}
	return 0
}

func (f *Flag) Restore(s State) {
	f.enabled.Store(s != 0)
}

// Enabled reports the current interrupt-enable state.
func (f *Flag) Enabled() bool { return f.enabled.Load() }

// Disables counts calls to Disable.
func (f *Flag) Disables() int64 { return f.disables.Load() }
