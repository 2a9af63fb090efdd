//go:build tinygo

// Package machinepin resolves pins on TinyGo targets.
package machinepin

import (
	"machine"

	"github.com/coreman2200/pixelwire/internal/hal"
)

// Resolver maps a PinRef to machine.Pin(ref.Number()), which matches the
// bank*16+bit numbering TinyGo uses on STM32 and RP2040.
type Resolver struct{}

func (Resolver) Resolve(ref hal.PinRef) (hal.Pin, error) {
	return machine.Pin(ref.Number()), nil
}

func (Resolver) Prepare(ref hal.PinRef) error {
	p := machine.Pin(ref.Number())
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return nil
}
