//go:build !linux

package gpio

import (
	"time"

	"pwmled-go/errcode"
)

// CdevChip requires the Linux GPIO character device.
type CdevChip struct{}

func NewCdevChip(name, consumer string) *CdevChip { return &CdevChip{} }

func (c *CdevChip) RequestOutput(offset, initial int) (Line, error) {
	return nil, errcode.Wrap(errcode.LineUnavailable, "gpio: cdev unsupported on this platform", nil)
}

func (c *CdevChip) RequestInput(offset int, handler func(ts time.Duration)) (Line, error) {
	return nil, errcode.Wrap(errcode.IRQRegisterFailed, "gpio: cdev unsupported on this platform", nil)
}

func (c *CdevChip) Close() error { return nil }
