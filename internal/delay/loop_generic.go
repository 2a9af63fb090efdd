//go:build !(tinygo && cortexm)

package delay

// sink keeps the loop body observable so the compiler cannot drop it.
var sink uint32

//go:noinline
func cycleLoop(n int) {
	for i := n; i > 0; i-- {
		sink++
	}
}
