package periphgpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/pixelwire/internal/hal"
)

type fastTestPin struct {
	gpiotest.Pin
	fast []gpio.Level
}

func (p *fastTestPin) FastOut(l gpio.Level) {
	p.fast = append(p.fast, l)
}

func TestResolveRegisteredPin(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO250", Num: 250, L: gpio.High}
	require.NoError(t, gpioreg.Register(p))
	t.Cleanup(func() { _ = gpioreg.Unregister("GPIO250") })

	r := New()
	ref := hal.NewPinRef(15, 10)
	require.NoError(t, r.Prepare(ref))
	assert.Equal(t, gpio.Low, p.Read())

	pin, err := r.Resolve(ref)
	require.NoError(t, err)
	pin.High()
	assert.Equal(t, gpio.High, p.Read())
	pin.Low()
	assert.Equal(t, gpio.Low, p.Read())
}

func TestResolvePrefersFastOut(t *testing.T) {
	p := &fastTestPin{Pin: gpiotest.Pin{N: "GPIO3", Num: 3}}
	r := &Resolver{byName: func(name string) gpio.PinIO {
		if name == "GPIO3" {
			return p
		}
		return nil
	}}

	pin, err := r.Resolve(hal.NewPinRef(0, 3))
	require.NoError(t, err)
	pin.High()
	pin.Low()
	assert.Equal(t, []gpio.Level{gpio.High, gpio.Low}, p.fast)
}

func TestResolveUnknown(t *testing.T) {
	r := &Resolver{byName: func(string) gpio.PinIO { return nil }}
	_, err := r.Resolve(hal.NewPinRef(3, 1))
	assert.ErrorIs(t, err, hal.ErrUnknownPin)
	assert.ErrorIs(t, r.Prepare(hal.NewPinRef(3, 1)), hal.ErrUnknownPin)
}
