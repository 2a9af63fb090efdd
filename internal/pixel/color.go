// Package pixel is the collaborator layer that turns colors into the byte
// buffer the encoder sends: one triple per pixel, in the chain's channel order.
package pixel

import (
	"fmt"
	"image/color"
)

const (
	redOffset   uint8 = 0x10
	greenOffset uint8 = 0x08
	blueOffset  uint8 = 0x00
)

// Color is one pixel's 8-bit channels.
type Color struct {
	R, G, B uint8
}

func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

// Gray sets every channel to v.
func Gray(v uint8) Color { return Color{R: v, G: v, B: v} }

// FromUint32 unpacks 0x00RRGGBB.
func FromUint32(c uint32) Color {
	return Color{
		R: getchan(c, redOffset),
		G: getchan(c, greenOffset),
		B: getchan(c, blueOffset),
	}
}

func getchan(c uint32, off uint8) uint8 {
	return uint8((c >> off) & 0xFF)
}

// Uint32 packs to 0x00RRGGBB.
func (c Color) Uint32() uint32 {
	return uint32(c.R)<<redOffset | uint32(c.G)<<greenOffset | uint32(c.B)<<blueOffset
}

// Hex formats as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// FromColor drops alpha after un-premultiplying.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// RGBA implements color.Color as fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}.RGBA()
}

var (
	Black = Color{}
	White = Gray(0xFF)
	Red   = RGB(0xFF, 0, 0)
	Green = RGB(0, 0xFF, 0)
	Blue  = RGB(0, 0, 0xFF)
)
