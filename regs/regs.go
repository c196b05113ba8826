// Package regs abstracts the hardware register blocks behind a small
// read/write-by-offset interface with two backings: a physical /dev/mem
// mapping for real silicon and an in-memory journal for tests.
package regs

// Bank is a block of 32-bit control registers addressed by byte offset.
// Register access has no failure channel; acquiring the mapping is the only
// operation that can fail.
type Bank interface {
	Read32(off uint32) uint32
	Write32(off, v uint32)
}

// BankCloser is a Bank whose mapping can be torn down.
type BankCloser interface {
	Bank
	Close() error
}

// BCM2835 physical layout. The PWM peripheral, its clock manager, and the
// GPIO function-select block each get their own mapping.
const (
	PeriphBase = 0x3F000000 // Pi 2/3 class; Pi 1 uses 0x20000000

	GPIOBase  = PeriphBase + 0x200000
	ClockBase = PeriphBase + 0x101000
	PWMBase   = PeriphBase + 0x20C000

	BlockSize = 4096
)

// PWM peripheral registers (channel 1).
const (
	PWMCtl  = 0x00
	PWMSta  = 0x04
	PWMRng1 = 0x10
	PWMDat1 = 0x14

	PWMCtlEnable1 = 1 << 0
)

// PWM clock manager registers, relative to ClockWindow within the clock
// manager page. Every write must carry ClockPassword or the hardware
// silently ignores it.
const (
	ClockWindow = 0xA0 // byte offset of the PWM clock pair in the CM page

	ClockCtl = 0x00
	ClockDiv = 0x04

	ClockPassword = 0x5A000000
	ClockSrcOsc   = 0x1
	ClockEnable   = 1 << 4
	ClockKill     = 1 << 5
	ClockBusy     = 1 << 7

	OscFreqHz = 19_200_000
)

// Window presents a sub-range of a bank as its own bank, so code written
// against a block's documented offsets works on a page-aligned mapping.
func Window(b Bank, base uint32) Bank {
	return &window{b: b, base: base}
}

type window struct {
	b    Bank
	base uint32
}

func (w *window) Read32(off uint32) uint32 { return w.b.Read32(w.base + off) }
func (w *window) Write32(off, v uint32)    { w.b.Write32(w.base+off, v) }
