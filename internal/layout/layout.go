package layout

import (
	"fmt"
	"image"
	"strings"

	"github.com/coreman2200/pixelwire/internal/pixel"
)

// Direction is the travel of the chain along one axis.
type Direction uint8

const (
	LeftToRight Direction = iota
	RightToLeft
	TopToBottom
	BottomToTop
)

var directionNames = [...]string{"LeftToRight", "RightToLeft", "TopToBottom", "BottomToTop"}

func (d Direction) horizontal() bool { return d == LeftToRight || d == RightToLeft }
func (d Direction) reversed() bool   { return d == RightToLeft || d == BottomToTop }

// Arrangement describes how a chain is folded into a grid. Along is the
// direction within a line, Across the order the lines are laid. A zigzag
// restarts every line from the same side; a snake reverses every other line.
type Arrangement struct {
	Along  Direction
	Across Direction
	Snake  bool
}

func (a Arrangement) valid() bool {
	return a.Along.horizontal() != a.Across.horizontal()
}

func (a Arrangement) String() string {
	kind := "Zigzag"
	if a.Snake {
		kind = "Snake"
	}
	return directionNames[a.Along] + "_" + directionNames[a.Across] + "_" + kind
}

// ParseArrangement accepts names like "LeftToRight_TopToBottom_Snake",
// case-insensitive.
func ParseArrangement(s string) (Arrangement, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "_")
	if len(parts) != 3 {
		return Arrangement{}, fmt.Errorf("invalid arrangement %q", s)
	}
	dir := func(p string) (Direction, bool) {
		for i, n := range directionNames {
			if strings.ToLower(n) == p {
				return Direction(i), true
			}
		}
		return 0, false
	}
	along, ok1 := dir(parts[0])
	across, ok2 := dir(parts[1])
	a := Arrangement{Along: along, Across: across}
	switch parts[2] {
	case "zigzag":
	case "snake":
		a.Snake = true
	default:
		ok1 = false
	}
	if !ok1 || !ok2 || !a.valid() {
		return Arrangement{}, fmt.Errorf("invalid arrangement %q", s)
	}
	return a, nil
}

// Arrangements lists all sixteen valid arrangements.
func Arrangements() []Arrangement {
	var out []Arrangement
	for _, snake := range []bool{false, true} {
		for along := LeftToRight; along <= BottomToTop; along++ {
			for across := LeftToRight; across <= BottomToTop; across++ {
				a := Arrangement{Along: along, Across: across, Snake: snake}
				if a.valid() {
					out = append(out, a)
				}
			}
		}
	}
	return out
}

// Grid maps a Width×Height pixel matrix onto a chain. (0,0) is top-left.
type Grid struct {
	Width       int
	Height      int
	Arrangement Arrangement
}

func (g Grid) Count() int {
	return g.Width * g.Height
}

// Index maps x,y -> chain index (0..Count-1).
func (g Grid) Index(x, y int) int {
	a := g.Arrangement
	pos, line := x, y
	lineLen, lines := g.Width, g.Height
	if !a.Along.horizontal() {
		pos, line = y, x
		lineLen, lines = g.Height, g.Width
	}
	if a.Across.reversed() {
		line = lines - 1 - line
	}
	if a.Along.reversed() {
		pos = lineLen - 1 - pos
	}
	if a.Snake && line%2 == 1 {
		pos = lineLen - 1 - pos
	}
	return line*lineLen + pos
}

// IndexFunc is a custom mapping for layouts no Arrangement covers.
type IndexFunc func(x, y, w, h int) int

// Map samples img over the grid and returns chain-ordered pixels. Pixels
// outside img's bounds are black.
func (g Grid) Map(img image.Image) []pixel.Color {
	return g.MapFunc(img, func(x, y, _, _ int) int { return g.Index(x, y) })
}

// MapFunc is Map with a caller-supplied index mapping.
func (g Grid) MapFunc(img image.Image, index IndexFunc) []pixel.Color {
	out := make([]pixel.Color, g.Count())
	b := img.Bounds()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			p := image.Pt(b.Min.X+x, b.Min.Y+y)
			if !p.In(b) {
				continue
			}
			i := index(x, y, g.Width, g.Height)
			if i < 0 || i >= len(out) {
				continue
			}
			out[i] = pixel.FromColor(img.At(p.X, p.Y))
		}
	}
	return out
}
