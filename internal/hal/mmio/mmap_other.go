//go:build !linux

package mmio

import "errors"

// Mapping is a register window mapped from a memory device.
type Mapping struct {
	*Resolver
}

func Open(dev string, base int64, ports int) (*Mapping, error) {
	return nil, errors.New("mmio: register mapping is only supported on linux")
}

func (m *Mapping) Close() error { return nil }
