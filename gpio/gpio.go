// Package gpio reserves button and LED lines, drives outputs, registers
// edge interrupts, and (for the hardware PWM path) switches a line's
// alternate function through the function-select registers.
package gpio

import "time"

// Line is a reserved GPIO line handle.
type Line interface {
	// SetValue drives an output line (0 or 1). No-op for inputs.
	SetValue(v int) error
	Close() error
}

// Chip hands out line reservations. The production implementation sits on
// the Linux GPIO character device; tests substitute a fake.
type Chip interface {
	// RequestOutput reserves a line as an output driven to initial.
	RequestOutput(offset, initial int) (Line, error)
	// RequestInput reserves a line as an input and delivers rising-edge
	// events to handler with the kernel's monotonic event timestamp.
	// The handler runs on the event-delivery goroutine and must not block.
	RequestInput(offset int, handler func(ts time.Duration)) (Line, error)
	Close() error
}

// Function-select field values (3 bits per line).
const (
	FuncInput  uint32 = 0x0
	FuncOutput uint32 = 0x1
	FuncAlt0   uint32 = 0x4
	FuncAlt5   uint32 = 0x2
)

// MaxLine is the highest valid line number on the 54-pin bank.
const MaxLine = 53
