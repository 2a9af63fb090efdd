package led

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPI drives the chain from a SPI MOSI line, each data bit expanded to an NRZ
// symbol by nrzled. nrzled emits GRB, so no reordering happens here.
type SPI struct {
	mu     sync.Mutex
	dev    *nrzled.Dev
	port   spi.PortCloser
	count  int
	closed bool
}

// OpenSPI opens a spidev port by name; empty picks the first one.
func OpenSPI(name string, count int, speed physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", name, err)
	}
	s, err := NewSPI(p, count, speed)
	if err != nil {
		return nil, multierr.Append(err, p.Close())
	}
	s.port = p
	return s, nil
}

// NewSPI wraps an already open port. The port is not closed by Close.
func NewSPI(p spi.Port, count int, speed physic.Frequency) (*SPI, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if speed == 0 {
		speed = 2500 * physic.KiloHertz
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: speed})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{dev: d, count: count}, nil
}

func (s *SPI) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}
	if _, err := s.dev.Write(rgb); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	err := s.dev.Halt()
	if s.port != nil {
		err = multierr.Append(err, s.port.Close())
	}
	return err
}

func (s *SPI) String() string { return s.dev.String() }
