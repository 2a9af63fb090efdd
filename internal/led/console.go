package led

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Console paints each frame as one row of colored cells on the terminal.
type Console struct {
	mu    sync.Mutex
	d     display.Drawer
	img   *image.NRGBA
	count int
}

func NewConsole(count int) *Console {
	return newConsole(screen.New(count), count)
}

func newConsole(d display.Drawer, count int) *Console {
	return &Console{d: d, img: image.NewNRGBA(image.Rect(0, 0, count, 1)), count: count}
}

func (c *Console) Write(rgb []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(rgb) != c.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), c.count)
	}
	for i := 0; i < c.count; i++ {
		c.img.SetNRGBA(i, 0, color.NRGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: 0xFF})
	}
	return c.d.Draw(c.d.Bounds(), c.img, image.Point{})
}

func (c *Console) Close() error {
	return c.d.Halt()
}
