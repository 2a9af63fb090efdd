// Package hal is the platform seam between the pulse encoder and real GPIO.
// The encoder only ever sees two capabilities, drive high and drive low; which
// register, bit or syscall that maps to is decided by the resolver.
package hal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownPin is returned when a PinRef does not name a usable pin.
var ErrUnknownPin = errors.New("unknown pin")

// PinRef packs a GPIO bank and bit as bank<<4 | bit.
type PinRef uint32

const maxBanks = 16

// NewPinRef builds a reference from a bank index (0 = A) and a bit (0..15).
func NewPinRef(bank, bit uint8) PinRef {
	return PinRef(bank&0x0F)<<4 | PinRef(bit&0x0F)
}

// PinNumber builds a reference from a linear GPIO number (bank*16 + bit).
func PinNumber(n int) (PinRef, error) {
	if n < 0 || n >= maxBanks*16 {
		return 0, fmt.Errorf("%w: GPIO%d", ErrUnknownPin, n)
	}
	return PinRef(n), nil
}

func (r PinRef) Bank() uint8 { return uint8(r>>4) & 0x0F }
func (r PinRef) Bit() uint8  { return uint8(r) & 0x0F }

// Mask is the bit's position within its bank's 16-bit port.
func (r PinRef) Mask() uint16 { return 1 << r.Bit() }

// Number is the linear GPIO number.
func (r PinRef) Number() int { return int(r.Bank())*16 + int(r.Bit()) }

func (r PinRef) String() string {
	return fmt.Sprintf("P%c%d", 'A'+r.Bank(), r.Bit())
}

// ParsePinRef accepts port notation ("PA5", "pc13"), "GPIO18" or a bare number.
func ParsePinRef(s string) (PinRef, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(u, "GPIO"):
		n, err := strconv.Atoi(u[4:])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnknownPin, s)
		}
		return PinNumber(n)
	case len(u) >= 3 && u[0] == 'P' && u[1] >= 'A' && u[1] < 'A'+maxBanks:
		bit, err := strconv.Atoi(u[2:])
		if err != nil || bit < 0 || bit > 15 {
			return 0, fmt.Errorf("%w: %q", ErrUnknownPin, s)
		}
		return NewPinRef(u[1]-'A', uint8(bit)), nil
	}
	n, err := strconv.Atoi(u)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPin, s)
	}
	return PinNumber(n)
}

// Pin is a resolved output. Both calls must be constant-time.
type Pin interface {
	High()
	Low()
}

// Resolver maps a reference to a pin.
type Resolver interface {
	Resolve(ref PinRef) (Pin, error)
}

// Preparer configures a pin as a push-pull output driven low. It is the
// collaborator step that must happen before the first transmit.
type Preparer interface {
	Prepare(ref PinRef) error
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ref PinRef) (Pin, error)

func (f ResolverFunc) Resolve(ref PinRef) (Pin, error) { return f(ref) }
