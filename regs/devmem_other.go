//go:build !linux

package regs

import "pwmled-go/errcode"

// DevMem requires the Linux /dev/mem interface.
type DevMem struct{}

func OpenDevMem(base int64, size int) (*DevMem, error) {
	return nil, errcode.Wrap(errcode.RegisterMapFailed, "regs: /dev/mem unsupported on this platform", nil)
}

func (d *DevMem) Read32(off uint32) uint32 { return 0 }
func (d *DevMem) Write32(off, v uint32)    {}
func (d *DevMem) Close() error             { return nil }
