//go:build !tinygo

package critical

import (
	"runtime"
	"runtime/debug"
)

// Thread is the closest user-space stand-in for masking interrupts on a hosted
// OS: the goroutine is pinned to its thread and the collector is paused so no
// stop-the-world lands inside the section. The kernel can still preempt.
type Thread struct{}

func (Thread) Disable() State {
	runtime.LockOSThread()
	return State(debug.SetGCPercent(-1))
}

func (Thread) Restore(s State) {
	debug.SetGCPercent(int(s))
	runtime.UnlockOSThread()
}

// Default returns the masker for this platform.
func Default() Masker { return Thread{} }
