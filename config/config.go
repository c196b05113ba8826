// Package config holds the immutable startup configuration. It is
// constructed once in cmd, normalized, validated, and passed down; nothing
// mutates it after load.
package config

import (
	"time"

	"pwmled-go/errcode"
	"pwmled-go/gpio"
	"pwmled-go/x/mathx"
)

const (
	DefaultChip            = "gpiochip0"
	DefaultUpButtonLine    = 23
	DefaultDownButtonLine  = 24
	DefaultLEDLine         = 18 // PWM0 via ALT5
	DefaultMaxLevel        = 5
	DefaultBrightnessRange = 32
	DefaultPulsePeriod     = 10 * time.Millisecond
	DefaultPWMClockHz      = 100_000
)

// Config is read once at startup and immutable thereafter.
type Config struct {
	Chip           string
	UpButtonLine   int
	DownButtonLine int
	LEDLine        int

	// MaxLevel is the brightness ceiling, clamped into [1, BrightnessRange].
	MaxLevel int

	// PulsePeriod is the software strategy's cycle period.
	PulsePeriod time.Duration

	// DebounceWindow is the minimum spacing between accepted button edges.
	// Zero selects the default.
	DebounceWindow time.Duration

	// HardwarePWM selects register-programmed PWM instead of timed toggling.
	HardwarePWM bool

	// BrightnessRange is the PWM range register value (hardware strategy).
	BrightnessRange uint32

	// PWMClockHz is the target PWM clock frequency derived from the
	// oscillator divisors (hardware strategy).
	PWMClockHz uint32
}

func Default() Config {
	return Config{
		Chip:            DefaultChip,
		UpButtonLine:    DefaultUpButtonLine,
		DownButtonLine:  DefaultDownButtonLine,
		LEDLine:         DefaultLEDLine,
		MaxLevel:        DefaultMaxLevel,
		PulsePeriod:     DefaultPulsePeriod,
		BrightnessRange: DefaultBrightnessRange,
		PWMClockHz:      DefaultPWMClockHz,
	}
}

// Normalize fills zero values with defaults and clamps MaxLevel into the
// brightness range.
func (c Config) Normalize() Config {
	if c.Chip == "" {
		c.Chip = DefaultChip
	}
	if c.PulsePeriod <= 0 {
		c.PulsePeriod = DefaultPulsePeriod
	}
	if c.BrightnessRange == 0 {
		c.BrightnessRange = DefaultBrightnessRange
	}
	if c.PWMClockHz == 0 {
		c.PWMClockHz = DefaultPWMClockHz
	}
	c.MaxLevel = mathx.Clamp(c.MaxLevel, 1, int(c.BrightnessRange))
	return c
}

// Validate rejects out-of-range or colliding line assignments.
func (c Config) Validate() error {
	for _, op := range []struct {
		name string
		line int
	}{
		{"up button", c.UpButtonLine},
		{"down button", c.DownButtonLine},
		{"led", c.LEDLine},
	} {
		if !mathx.Between(op.line, 0, gpio.MaxLine) {
			return errcode.Wrap(errcode.InvalidLine, "config: "+op.name+" line", nil)
		}
	}
	if c.UpButtonLine == c.DownButtonLine ||
		c.UpButtonLine == c.LEDLine ||
		c.DownButtonLine == c.LEDLine {
		return errcode.Wrap(errcode.InvalidParams, "config: lines must be distinct", nil)
	}
	return nil
}
