// Package pulse is the single-wire NeoPixel encoder. It drives one output pin
// through a high/low pulse per bit, MSB first, inside one critical section that
// covers the whole frame.
package pulse

import (
	"errors"
	"fmt"

	"github.com/coreman2200/pixelwire/internal/critical"
	"github.com/coreman2200/pixelwire/internal/delay"
	"github.com/coreman2200/pixelwire/internal/hal"
	"github.com/coreman2200/pixelwire/internal/timing"
)

// BytesPerPixel is fixed by the three-channel wire format.
const BytesPerPixel = 3

// ErrInvalidArgument is wrapped when a call is rejected before touching the pin.
var ErrInvalidArgument = errors.New("invalid argument")

// Transmitter is stateless between calls. It does not serialize callers: two
// concurrent transmits on the same pin corrupt each other.
type Transmitter struct {
	pins hal.Resolver
	hold delay.Holder
	mask critical.Masker
}

func New(pins hal.Resolver, hold delay.Holder, mask critical.Masker) *Transmitter {
	return &Transmitter{pins: pins, hold: hold, mask: mask}
}

// Transmit sends the first pixelCount*3 bytes of buf on ref and returns with the
// pin low. A rejected call has no hardware effect. The caller owns the latch gap
// between frames.
func (t *Transmitter) Transmit(buf []byte, pixelCount int, ref hal.PinRef) error {
	n, err := frameLen(len(buf), pixelCount)
	if err != nil {
		return err
	}
	pin, err := t.pins.Resolve(ref)
	if err != nil {
		return err
	}

	pin.Low()

	sec := critical.Enter(t.mask)
	defer sec.Exit()

	hold := t.hold
	for _, b := range buf[:n] {
		for bit := byte(0x80); bit != 0; bit >>= 1 {
			pin.High()
			if b&bit != 0 {
				hold.Hold(timing.OneHigh)
				pin.Low()
				hold.Hold(timing.OneLow)
			} else {
				hold.Hold(timing.ZeroHigh)
				pin.Low()
				hold.Hold(timing.ZeroLow)
			}
		}
	}
	return nil
}

func frameLen(bufLen, pixelCount int) (int, error) {
	if pixelCount < 0 {
		return 0, fmt.Errorf("%w: negative pixel count %d", ErrInvalidArgument, pixelCount)
	}
	if pixelCount > bufLen/BytesPerPixel {
		return 0, fmt.Errorf("%w: %d pixels need %d bytes, buffer has %d",
			ErrInvalidArgument, pixelCount, pixelCount*BytesPerPixel, bufLen)
	}
	return pixelCount * BytesPerPixel, nil
}
