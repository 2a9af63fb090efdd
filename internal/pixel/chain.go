package pixel

import "fmt"

// Chain is the ordered list of pixels on one strip; index 0 is the pixel wired
// to the controller.
type Chain struct {
	px []Color
}

// NewChain returns n black pixels.
func NewChain(n int) *Chain {
	return &Chain{px: make([]Color, n)}
}

func (c *Chain) Len() int { return len(c.px) }

// Pixels exposes the backing slice.
func (c *Chain) Pixels() []Color { return c.px }

// Add appends and returns the new index.
func (c *Chain) Add(col Color) int {
	c.px = append(c.px, col)
	return len(c.px) - 1
}

func (c *Chain) At(i int) Color { return c.px[i] }

func (c *Chain) Set(i int, col Color) error {
	if i < 0 || i >= len(c.px) {
		return fmt.Errorf("pixel index %d out of range [0,%d)", i, len(c.px))
	}
	c.px[i] = col
	return nil
}

// Fill sets every pixel.
func (c *Chain) Fill(col Color) {
	for i := range c.px {
		c.px[i] = col
	}
}

func (c *Chain) Insert(i int, col Color) error {
	if i < 0 || i > len(c.px) {
		return fmt.Errorf("insert index %d out of range [0,%d]", i, len(c.px))
	}
	c.px = append(c.px, Color{})
	copy(c.px[i+1:], c.px[i:])
	c.px[i] = col
	return nil
}

func (c *Chain) RemoveAt(i int) error {
	if i < 0 || i >= len(c.px) {
		return fmt.Errorf("pixel index %d out of range [0,%d)", i, len(c.px))
	}
	c.px = append(c.px[:i], c.px[i+1:]...)
	return nil
}

// IndexOf returns the first pixel equal to col, or -1.
func (c *Chain) IndexOf(col Color) int {
	for i, p := range c.px {
		if p == col {
			return i
		}
	}
	return -1
}

func (c *Chain) Contains(col Color) bool { return c.IndexOf(col) >= 0 }

// Clear removes every pixel.
func (c *Chain) Clear() { c.px = c.px[:0] }

// Bytes encodes the whole chain for the wire.
func (c *Chain) Bytes(o Order) []byte {
	return o.Encode(make([]byte, 0, len(c.px)*3), c.px)
}

// RGB encodes the chain as plain RGB, the driver input format.
func (c *Chain) RGB() []byte {
	return OrderRGB.Encode(make([]byte, 0, len(c.px)*3), c.px)
}
