package critical

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionRestores(t *testing.T) {
	f := NewFlag()
	sec := Enter(f)
	assert.False(t, f.Enabled())
	sec.Exit()
	assert.True(t, f.Enabled())

	// second exit must not re-apply a stale state
	f.Disable()
	sec.Exit()
	assert.False(t, f.Enabled())
}

func TestSectionNests(t *testing.T) {
	f := NewFlag()
	Do(f, func() {
		Do(f, func() {
			assert.False(t, f.Enabled())
		})
		assert.False(t, f.Enabled(), "inner exit must keep outer section masked")
	})
	assert.True(t, f.Enabled())
	assert.EqualValues(t, 2, f.Disables())
}

func TestSectionAlreadyMasked(t *testing.T) {
	f := NewFlag()
	f.Disable()
	Do(f, func() {})
	assert.False(t, f.Enabled())
}

func TestDoReleasesOnPanic(t *testing.T) {
	f := NewFlag()
	assert.Panics(t, func() {
		Do(f, func() { panic("fault") })
	})
	assert.True(t, f.Enabled())
}

func TestThreadRestoresGCPercent(t *testing.T) {
	prev := debug.SetGCPercent(70)
	defer debug.SetGCPercent(prev)

	Do(Thread{}, func() {
		assert.Equal(t, -1, debug.SetGCPercent(-1))
	})
	assert.Equal(t, 70, debug.SetGCPercent(70))
}
