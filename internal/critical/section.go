// Package critical provides scoped, non-preemptible regions. Entering a section
// suppresses whatever the platform's Masker suppresses; the matching Exit always
// restores the exact prior state, so sections nest and survive early returns.
package critical

// State is the opaque mask state returned by Disable.
type State uintptr

// Masker suppresses and restores preemption for the whole process.
type Masker interface {
	Disable() State
	Restore(State)
}

// Section is one acquired critical region.
type Section struct {
	m     Masker
	state State
	open  bool
}

// Enter disables preemption through m. Callers defer Exit immediately.
func Enter(m Masker) *Section {
	return &Section{m: m, state: m.Disable(), open: true}
}

// Exit restores the state seen by Enter. Calling it more than once is a no-op.
func (s *Section) Exit() {
	if !s.open {
		return
	}
	s.open = false
	s.m.Restore(s.state)
}

// Do runs fn inside a section. The section is released even if fn panics.
func Do(m Masker, fn func()) {
	sec := Enter(m)
	defer sec.Exit()
	fn()
}
