// Package pwmengine drives the LED from the current brightness level with
// one of two interchangeable strategies: timed GPIO toggling (software) or
// direct programming of the PWM peripheral (hardware).
package pwmengine

import "context"

// Engine consumes the brightness level produced by the state machine.
// Apply is cheap and non-blocking; the strategy's own loop picks the level
// up. Close is cancel-and-wait: when it returns, no further line or
// register writes will happen.
type Engine interface {
	Start(ctx context.Context) error
	Apply(level int)
	Close() error
}
