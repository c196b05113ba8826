package gpio

import (
	"sync"
	"time"

	"pwmled-go/errcode"
	"pwmled-go/regs"
	"pwmled-go/x/mathx"
)

// Manager owns every line reservation the controller makes, and the
// function-select state for lines switched to an alternate function. All
// methods are safe for concurrent use, though in practice only the startup
// and teardown paths call them.
type Manager struct {
	chip Chip
	fsel regs.Bank // nil unless the hardware PWM path mapped the GPIO block

	mu    sync.Mutex
	lines map[int]Line
	saved map[int]uint32 // line -> original 3-bit function field
}

// NewManager wraps a chip. fsel may be nil when no alternate-function
// switching will happen (software PWM mode).
func NewManager(chip Chip, fsel regs.Bank) *Manager {
	return &Manager{
		chip:  chip,
		fsel:  fsel,
		lines: map[int]Line{},
		saved: map[int]uint32{},
	}
}

func (m *Manager) checkLine(line int) error {
	if !mathx.Between(line, 0, MaxLine) {
		return errcode.Wrap(errcode.InvalidLine, "gpio: reserve", nil)
	}
	return nil
}

// ReserveOutput reserves a line as an output driven to initial.
func (m *Manager) ReserveOutput(line, initial int) (Line, error) {
	if err := m.checkLine(line); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.lines[line]; busy {
		return nil, errcode.Wrap(errcode.LineUnavailable, "gpio: reserve output", nil)
	}
	l, err := m.chip.RequestOutput(line, initial)
	if err != nil {
		return nil, errcode.Wrap(errcode.LineUnavailable, "gpio: reserve output", err)
	}
	m.lines[line] = l
	return l, nil
}

// ReserveInput reserves a line as an edge-interrupt input. A reservation
// that fails at the kernel is an interrupt-registration failure, since the
// request and the edge subscription are one operation on the character
// device.
func (m *Manager) ReserveInput(line int, handler func(ts time.Duration)) error {
	if err := m.checkLine(line); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.lines[line]; busy {
		return errcode.Wrap(errcode.LineUnavailable, "gpio: reserve input", nil)
	}
	l, err := m.chip.RequestInput(line, handler)
	if err != nil {
		return errcode.Wrap(errcode.IRQRegisterFailed, "gpio: reserve input", err)
	}
	m.lines[line] = l
	return nil
}

// Release frees a reserved line. Idempotent: releasing an unreserved line
// is a no-op.
func (m *Manager) Release(line int) {
	m.mu.Lock()
	l := m.lines[line]
	delete(m.lines, line)
	m.mu.Unlock()
	if l != nil {
		_ = l.Close()
	}
}

// ReleaseAll frees every reservation still held.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	lines := m.lines
	m.lines = map[int]Line{}
	m.mu.Unlock()
	for _, l := range lines {
		_ = l.Close()
	}
}

// fselReg returns the function-select register offset and the bit position
// of a line's 3-bit field: 10 lines packed per 32-bit register.
func fselReg(line int) (off uint32, shift uint) {
	return uint32(4 * (line / 10)), uint(line%10) * 3
}

// SelectAltFunction switches a line's function-select field to fn, saving
// the original field value so RestoreFunction can put it back bit-exact.
func (m *Manager) SelectAltFunction(line int, fn uint32) error {
	if err := m.checkLine(line); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fsel == nil {
		return errcode.Wrap(errcode.RegisterMapFailed, "gpio: function select", nil)
	}
	off, shift := fselReg(line)
	v := m.fsel.Read32(off)
	if _, ok := m.saved[line]; !ok {
		m.saved[line] = (v >> shift) & 0x7
	}
	v &^= 0x7 << shift
	v |= (fn & 0x7) << shift
	m.fsel.Write32(off, v)
	return nil
}

// RestoreFunction rewrites the function-select field saved by
// SelectAltFunction. No-op if nothing was saved for the line.
func (m *Manager) RestoreFunction(line int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orig, ok := m.saved[line]
	if !ok || m.fsel == nil {
		return
	}
	delete(m.saved, line)
	off, shift := fselReg(line)
	v := m.fsel.Read32(off)
	v &^= 0x7 << shift
	v |= orig << shift
	m.fsel.Write32(off, v)
}
