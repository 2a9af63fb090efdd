// Package periphgpio resolves pins through periph.io's registry, which covers
// the Raspberry Pi, Allwinner boards and sysfs GPIO.
package periphgpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/pixelwire/internal/hal"
)

// fastOuter is implemented by the memory-mapped SoC drivers (bcm283x,
// allwinner). FastOut skips the function-select checks Out performs.
type fastOuter interface {
	FastOut(l gpio.Level)
}

// Resolver looks pins up by their GPIO number.
type Resolver struct {
	byName func(name string) gpio.PinIO
}

// Open initializes the periph host drivers and returns a resolver.
func Open() (*Resolver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return New(), nil
}

// New returns a resolver over whatever is already registered in gpioreg.
func New() *Resolver {
	return &Resolver{byName: gpioreg.ByName}
}

func (r *Resolver) lookup(ref hal.PinRef) (gpio.PinIO, error) {
	name := fmt.Sprintf("GPIO%d", ref.Number())
	p := r.byName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s (%s)", hal.ErrUnknownPin, name, ref)
	}
	return p, nil
}

func (r *Resolver) Resolve(ref hal.PinRef) (hal.Pin, error) {
	p, err := r.lookup(ref)
	if err != nil {
		return nil, err
	}
	if f, ok := p.(fastOuter); ok {
		return fastPin{f}, nil
	}
	return outPin{p}, nil
}

// Prepare switches the pin to output, driven low.
func (r *Resolver) Prepare(ref hal.PinRef) error {
	p, err := r.lookup(ref)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("%s: configure output: %w", p, err)
	}
	return nil
}

type fastPin struct{ p fastOuter }

func (f fastPin) High() { f.p.FastOut(gpio.High) }
func (f fastPin) Low()  { f.p.FastOut(gpio.Low) }

// outPin drops Out's error: the pin was configured by Prepare and the encoder
// has no way to act on a failure mid-frame.
type outPin struct{ p gpio.PinOut }

func (o outPin) High() { _ = o.p.Out(gpio.High) }
func (o outPin) Low()  { _ = o.p.Out(gpio.Low) }
