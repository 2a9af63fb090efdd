package led

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/coreman2200/pixelwire/internal/hal"
	"github.com/coreman2200/pixelwire/internal/pixel"
)

// Transmitter is the single-wire encoder the Bitbang driver feeds.
type Transmitter interface {
	Transmit(buf []byte, pixelCount int, ref hal.PinRef) error
}

type BitbangOpts struct {
	Pin       hal.PinRef
	NumPixels int
	Order     pixel.Order // wire channel order, GRB when empty
	// Latch is the idle-low gap the chain needs before the next frame.
	Latch time.Duration
	// Prepare, when set, configures Pin as an output before the first frame.
	Prepare hal.Preparer
	// Release is closed with the driver, e.g. a register mapping.
	Release io.Closer
	Clock   clock.Clock
}

// Bitbang owns one pin. Writes are serialized and spaced by at least the
// latch gap so every frame is committed before the next one starts.
type Bitbang struct {
	mu     sync.Mutex
	tx     Transmitter
	opts   BitbangOpts
	clk    clock.Clock
	buf    []byte
	last   time.Time
	closed bool
}

func NewBitbang(tx Transmitter, opts BitbangOpts) (*Bitbang, error) {
	if opts.NumPixels < 0 {
		return nil, fmt.Errorf("invalid LED count: %d", opts.NumPixels)
	}
	order, err := pixel.ParseOrder(string(opts.Order))
	if err != nil {
		return nil, err
	}
	opts.Order = order
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	if opts.Prepare != nil {
		if err := opts.Prepare.Prepare(opts.Pin); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", opts.Pin, err)
		}
	}
	return &Bitbang{
		tx:   tx,
		opts: opts,
		clk:  clk,
		buf:  make([]byte, opts.NumPixels*3),
	}, nil
}

func (b *Bitbang) Write(rgb []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if len(rgb) != len(b.buf) {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), b.opts.NumPixels)
	}
	b.opts.Order.FromRGB(b.buf, rgb)
	return b.send()
}

func (b *Bitbang) send() error {
	if !b.last.IsZero() {
		if gap := b.opts.Latch - b.clk.Since(b.last); gap > 0 {
			b.clk.Sleep(gap)
		}
	}
	err := b.tx.Transmit(b.buf, b.opts.NumPixels, b.opts.Pin)
	b.last = b.clk.Now()
	return err
}

// Close blanks the strip and releases the pin.
func (b *Bitbang) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for i := range b.buf {
		b.buf[i] = 0
	}
	err := b.send()
	if b.opts.Release != nil {
		err = multierr.Append(err, b.opts.Release.Close())
	}
	return err
}

func (b *Bitbang) String() string {
	return fmt.Sprintf("bitbang{%s, %d, %s}", b.opts.Pin, b.opts.NumPixels, b.opts.Order)
}
