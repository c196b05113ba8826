//go:build linux

package gpio

import (
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// CdevChip reserves lines through the Linux GPIO character device.
type CdevChip struct {
	name     string
	consumer string
}

// NewCdevChip returns a chip for e.g. "gpiochip0".
func NewCdevChip(name, consumer string) *CdevChip {
	return &CdevChip{name: name, consumer: consumer}
}

func (c *CdevChip) RequestOutput(offset, initial int) (Line, error) {
	l, err := gpiocdev.RequestLine(c.name, offset,
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer(c.consumer))
	if err != nil {
		return nil, err
	}
	return &cdevLine{l: l}, nil
}

func (c *CdevChip) RequestInput(offset int, handler func(ts time.Duration)) (Line, error) {
	l, err := gpiocdev.RequestLine(c.name, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithConsumer(c.consumer),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type == gpiocdev.LineEventRisingEdge {
				handler(evt.Timestamp)
			}
		}))
	if err != nil {
		return nil, err
	}
	return &cdevLine{l: l}, nil
}

func (c *CdevChip) Close() error { return nil }

type cdevLine struct {
	l *gpiocdev.Line
}

func (cl *cdevLine) SetValue(v int) error { return cl.l.SetValue(v) }

func (cl *cdevLine) Close() error {
	// Revert to input on the way out, as the kernel keeps the last driven
	// value otherwise.
	_ = cl.l.Reconfigure(gpiocdev.AsInput)
	return cl.l.Close()
}
