//go:build linux

package mmio

import (
	"fmt"
	"os"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Mapping is a register window mapped from a memory device.
type Mapping struct {
	*Resolver
	f   *os.File
	mem []byte
}

// Open maps ports consecutive GPIO ports starting at base from dev
// (usually /dev/mem).
func Open(dev string, base int64, ports int) (*Mapping, error) {
	if ports <= 0 {
		return nil, fmt.Errorf("invalid port count: %d", ports)
	}
	f, err := os.OpenFile(dev, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	mem, err := unix.Mmap(int(f.Fd()), base, ports*PortStride, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap %s at 0x%x: %w", dev, base, err)
	}
	regs := unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), len(mem)/4)
	return &Mapping{Resolver: NewResolver(regs), f: f, mem: mem}, nil
}

func (m *Mapping) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	m.Resolver = NewResolver(nil)
	return multierr.Append(err, m.f.Close())
}
