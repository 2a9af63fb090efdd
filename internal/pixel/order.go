package pixel

import (
	"fmt"
	"strings"
)

// Order is the channel sequence a chain expects on the wire, e.g. "GRB".
type Order string

const (
	OrderGRB Order = "GRB"
	OrderRGB Order = "RGB"
	OrderBRG Order = "BRG"
	OrderRBG Order = "RBG"
	OrderGBR Order = "GBR"
	OrderBGR Order = "BGR"
)

// ParseOrder validates an order string. Empty means GRB, the WS2812 default.
func ParseOrder(s string) (Order, error) {
	o := Order(strings.ToUpper(strings.TrimSpace(s)))
	if o == "" {
		return OrderGRB, nil
	}
	if len(o) != 3 || !strings.ContainsRune(string(o), 'R') ||
		!strings.ContainsRune(string(o), 'G') || !strings.ContainsRune(string(o), 'B') {
		return "", fmt.Errorf("invalid color order %q", s)
	}
	return o, nil
}

func (o Order) pick(c Color, i int) byte {
	switch o[i] {
	case 'R':
		return c.R
	case 'G':
		return c.G
	default:
		return c.B
	}
}

// Put writes c into dst[0:3] in this order.
func (o Order) Put(dst []byte, c Color) {
	_ = dst[2]
	dst[0] = o.pick(c, 0)
	dst[1] = o.pick(c, 1)
	dst[2] = o.pick(c, 2)
}

// Encode appends the wire bytes for px to dst.
func (o Order) Encode(dst []byte, px []Color) []byte {
	for _, c := range px {
		var b [3]byte
		o.Put(b[:], c)
		dst = append(dst, b[:]...)
	}
	return dst
}

// FromRGB reorders an RGB byte stream into dst, which must be as long as rgb.
func (o Order) FromRGB(dst, rgb []byte) {
	for i := 0; i+2 < len(rgb); i += 3 {
		o.Put(dst[i:i+3], Color{R: rgb[i], G: rgb[i+1], B: rgb[i+2]})
	}
}
