//go:build linux

package regs

import (
	"os"
	"sync/atomic"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"pwmled-go/errcode"
)

// DevMem maps one peripheral block from /dev/mem. The mapping stays valid
// for the bank's entire lifetime; Close unmaps it.
type DevMem struct {
	f      *os.File
	m      mmap.MMap
	closed atomic.Bool
}

// OpenDevMem maps size bytes of physical memory at base. base must be
// page-aligned; use Window for registers that sit inside the page.
func OpenDevMem(base int64, size int) (*DevMem, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, errcode.Wrap(errcode.RegisterMapFailed, "regs: open /dev/mem", err)
	}
	m, err := mmap.MapRegion(f, size, mmap.RDWR, 0, base)
	if err != nil {
		_ = f.Close()
		return nil, errcode.Wrap(errcode.RegisterMapFailed, "regs: map region",
			errors.Wrapf(err, "base %#x size %d", base, size))
	}
	return &DevMem{f: f, m: m}, nil
}

func (d *DevMem) Read32(off uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(&d.m[off]))
}

func (d *DevMem) Write32(off, v uint32) {
	*(*uint32)(unsafe.Pointer(&d.m[off])) = v
}

// Close unmaps the block. Idempotent.
func (d *DevMem) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return multierr.Append(d.m.Unmap(), d.f.Close())
}
