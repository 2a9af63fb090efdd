// Package mmio drives STM32F2/F4-style GPIO ports through their registers.
//
// Each port is a 0x400-byte block starting at GPIOA. Output uses BSRR: writing a
// mask to the low half sets those pins, writing it to the high half resets them.
// Vendor headers name the two halves BSRRL/BSRRH the other way round; this
// package addresses the 32-bit register and never uses those names.
package mmio

import (
	"fmt"
	"sync/atomic"

	"github.com/coreman2200/pixelwire/internal/hal"
)

const (
	// GPIOABase is the AHB1 address of port A on STM32F2/F4.
	GPIOABase int64 = 0x40020000
	// PortStride is the byte distance between consecutive ports.
	PortStride = 0x400

	portWords = PortStride / 4

	regMODER   = 0x00 / 4
	regOTYPER  = 0x04 / 4
	regOSPEEDR = 0x08 / 4
	regBSRR    = 0x18 / 4

	modeOutput    = 0b01
	speedVeryHigh = 0b11
)

// Resolver maps pins onto a register window covering one or more ports.
type Resolver struct {
	regs []uint32
}

// NewResolver wraps a register window whose first word is port A's MODER.
func NewResolver(regs []uint32) *Resolver {
	return &Resolver{regs: regs}
}

// Ports is the number of ports the window covers.
func (r *Resolver) Ports() int { return len(r.regs) / portWords }

func (r *Resolver) port(ref hal.PinRef) ([]uint32, error) {
	off := int(ref.Bank()) * portWords
	if off+portWords > len(r.regs) {
		return nil, fmt.Errorf("%w: %s outside %d mapped ports", hal.ErrUnknownPin, ref, r.Ports())
	}
	return r.regs[off : off+portWords], nil
}

func (r *Resolver) Resolve(ref hal.PinRef) (hal.Pin, error) {
	port, err := r.port(ref)
	if err != nil {
		return nil, err
	}
	mask := uint32(ref.Mask())
	return &pin{bsrr: &port[regBSRR], set: mask, reset: mask << 16}, nil
}

// Prepare selects push-pull output at the highest slew rate and drives the
// pin low.
func (r *Resolver) Prepare(ref hal.PinRef) error {
	port, err := r.port(ref)
	if err != nil {
		return err
	}
	bit := uint32(ref.Bit())
	atomic.StoreUint32(&port[regBSRR], uint32(ref.Mask())<<16)
	update(&port[regMODER], 0b11<<(2*bit), modeOutput<<(2*bit))
	update(&port[regOTYPER], 1<<bit, 0)
	update(&port[regOSPEEDR], 0b11<<(2*bit), speedVeryHigh<<(2*bit))
	return nil
}

func update(reg *uint32, clear, set uint32) {
	atomic.StoreUint32(reg, atomic.LoadUint32(reg)&^clear|set)
}

type pin struct {
	bsrr       *uint32
	set, reset uint32
}

func (p *pin) High() { atomic.StoreUint32(p.bsrr, p.set) }
func (p *pin) Low()  { atomic.StoreUint32(p.bsrr, p.reset) }
