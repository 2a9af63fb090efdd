//go:build tinygo && cortexm

package delay

import "device/arm"

// cycleLoop spends one NOP plus loop overhead per iteration. Its cycle cost
// under TinyGo has not been measured; tables for it are Derived until a scope
// confirms them.
//
//go:noinline
func cycleLoop(n int) {
	for i := n; i > 0; i-- {
		arm.Asm("nop")
	}
}
