// Package patterns generates bring-up frames for a freshly wired strip: the
// index sweep shows chain order, the channel test shows the color order.
package patterns

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/pixelwire/internal/pixel"
)

type Kind string

const (
	Off         Kind = "off"
	Solid       Kind = "solid"
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
	Rainbow     Kind = "rainbow"
)

var kinds = []Kind{Off, Solid, IndexSweep, RGBChannels, Rainbow}

// Kinds lists the known patterns.
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

// ParseKind accepts a pattern name; empty is Off.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return Off, nil
	}
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown pattern %q", s)
}

// ParseColor reads "#rrggbb".
func ParseColor(s string) (pixel.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return pixel.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return pixel.RGB(r, g, b), nil
}

type Plan struct {
	Kind  Kind
	Color pixel.Color // Solid only
	// Speed is the rainbow hue advance per step, in turns. Zero means 0.01.
	Speed float64
}

type Runner struct {
	plan  Plan
	step  int
	phase float64
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step fills dst with the next frame; returns false when the pattern is
// complete, leaving dst black.
func (r *Runner) Step(dst []pixel.Color) bool {
	n := len(dst)
	for i := range dst {
		dst[i] = pixel.Black
	}

	switch r.plan.Kind {
	case Off:
	case Solid:
		for i := range dst {
			dst[i] = r.plan.Color
		}
	case IndexSweep:
		if r.step >= n {
			return false
		}
		dst[r.step] = pixel.White
	case RGBChannels:
		c := [3]pixel.Color{pixel.Red, pixel.Green, pixel.Blue}[r.step%3]
		for i := range dst {
			dst[i] = c
		}
	case Rainbow:
		speed := r.plan.Speed
		if speed == 0 {
			speed = 0.01
		}
		for i := range dst {
			h := math.Mod(float64(i)/float64(n)+r.phase, 1.0)
			dst[i] = pixel.RGB(colorful.Hsv(h*360, 1, 1).RGB255())
		}
		r.phase = math.Mod(r.phase+speed, 1.0)
	default:
		return false
	}
	r.step++
	return true
}
