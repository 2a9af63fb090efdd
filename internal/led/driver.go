// Package led holds the output sinks a frame can be written to. Every driver
// takes RGB input, three bytes per pixel, and converts to its own wire format.
package led

import "errors"

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("led: driver closed")
