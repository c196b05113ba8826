// Package controller wires the event pipeline together: debounced button
// edges feed a single-slot mailbox, the deferred dispatcher runs the
// state-machine step, and the PWM engine consumes the resulting level.
package controller

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pwmled-go/bus"
	"pwmled-go/button"
	"pwmled-go/config"
	"pwmled-go/dispatch"
	"pwmled-go/fsm"
	"pwmled-go/gpio"
	"pwmled-go/pwmengine"
	"pwmled-go/regs"
)

// Topics published on the bus (retained).
var (
	TopicLevel = bus.Topic{"led", "level"}
	TopicState = bus.Topic{"led", "state"}
)

// Deps injects the platform surfaces so tests can substitute fakes for the
// chip and the register mappings.
type Deps struct {
	Chip     gpio.Chip
	OpenBank func(base int64, size int) (regs.BankCloser, error)
	Log      *zap.Logger
	Bus      *bus.Bus
}

// Controller owns every resource the system acquires and is the only
// mutation path to the brightness level and the hardware registers.
type Controller struct {
	cfg config.Config
	log *zap.Logger
	b   *bus.Bus

	mgr     *gpio.Manager
	machine *fsm.Machine
	slot    *button.Slot
	src     *button.Source
	disp    *dispatch.Dispatcher
	engine  pwmengine.Engine

	pwmBank  regs.BankCloser
	clkBank  regs.BankCloser
	gpioBank regs.BankCloser

	cancel  context.CancelFunc
	started bool

	closeOnce sync.Once
	closeErr  error
}

// New acquires every startup resource in order: register mappings
// (hardware mode), the LED line, then the button lines with their edge
// handlers. Any failure unwinds what was acquired so far in strict reverse
// order; partial initialization is never left live.
func New(cfg config.Config, deps Deps) (*Controller, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Bus == nil {
		deps.Bus = bus.New(8)
	}

	c := &Controller{
		cfg:     cfg,
		log:     deps.Log,
		b:       deps.Bus,
		machine: fsm.New(cfg.MaxLevel),
		slot:    &button.Slot{},
	}
	c.disp = dispatch.New(c.step)
	c.src = button.NewSource(c.slot, cfg.DebounceWindow, c.disp.Kick)

	var cleanups []func()
	fail := func(err error) (*Controller, error) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		return nil, err
	}

	var fsel regs.Bank
	if cfg.HardwarePWM {
		var err error
		if c.pwmBank, err = deps.OpenBank(regs.PWMBase, regs.BlockSize); err != nil {
			return fail(err)
		}
		cleanups = append(cleanups, func() { _ = c.pwmBank.Close() })

		if c.clkBank, err = deps.OpenBank(regs.ClockBase, regs.BlockSize); err != nil {
			return fail(err)
		}
		cleanups = append(cleanups, func() { _ = c.clkBank.Close() })

		if c.gpioBank, err = deps.OpenBank(regs.GPIOBase, regs.BlockSize); err != nil {
			return fail(err)
		}
		cleanups = append(cleanups, func() { _ = c.gpioBank.Close() })
		fsel = c.gpioBank
	}

	c.mgr = gpio.NewManager(deps.Chip, fsel)

	if cfg.HardwarePWM {
		divI, divF := pwmengine.Divisors(cfg.PWMClockHz)
		c.engine = pwmengine.NewHard(
			c.pwmBank,
			regs.Window(c.clkBank, regs.ClockWindow),
			c.mgr,
			cfg.LEDLine,
			pwmengine.HardConfig{
				MaxLevel: cfg.MaxLevel,
				Range:    cfg.BrightnessRange,
				DivI:     divI,
				DivF:     divF,
			},
		)
	} else {
		line, err := c.mgr.ReserveOutput(cfg.LEDLine, 0)
		if err != nil {
			return fail(err)
		}
		cleanups = append(cleanups, func() { c.mgr.Release(cfg.LEDLine) })
		c.engine = pwmengine.NewSoft(line, cfg.PulsePeriod, cfg.MaxLevel, false)
	}

	if err := c.mgr.ReserveInput(cfg.UpButtonLine, c.src.UpEdge); err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, func() { c.mgr.Release(cfg.UpButtonLine) })

	if err := c.mgr.ReserveInput(cfg.DownButtonLine, c.src.DownEdge); err != nil {
		return fail(err)
	}

	return c, nil
}

// Run starts the dispatcher and the PWM engine, publishes the initial
// state, and blocks until ctx is cancelled, then tears everything down.
func (c *Controller) Run(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.disp.Start(ctx)
	c.started = true

	if err := c.engine.Start(ctx); err != nil {
		c.cancel()
		return multierr.Append(err, c.Close())
	}

	c.publish(c.machine.Level())
	c.log.Info("brightness controller running",
		zap.Int("up_line", c.cfg.UpButtonLine),
		zap.Int("down_line", c.cfg.DownButtonLine),
		zap.Int("led_line", c.cfg.LEDLine),
		zap.Int("max_level", c.cfg.MaxLevel),
		zap.Bool("hardware_pwm", c.cfg.HardwarePWM))

	<-ctx.Done()
	return c.Close()
}

// step is the deferred FSM-update-and-output path. It is only ever run by
// the dispatcher, which guarantees at most one concurrent execution.
func (c *Controller) step() {
	ev := c.slot.Take()
	if ev == fsm.EventNone {
		return
	}
	level, changed := c.machine.Step(ev)
	if !changed {
		return
	}
	c.engine.Apply(level)
	c.publish(level)
}

func (c *Controller) publish(level int) {
	c.b.Publish(&bus.Message{Topic: TopicLevel, Payload: level, Retained: true})
	c.b.Publish(&bus.Message{Topic: TopicState, Payload: c.machine.State().String(), Retained: true})
}

// Close tears down in order: stop the engine's timers and the dispatcher
// (cancel-and-wait), restore hardware state, unmap the register regions,
// then release the interrupt and GPIO lines. Safe against a
// partially-initialized controller and safe to call more than once.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		if c.started {
			c.disp.Wait()
		}

		var errs error
		if c.engine != nil {
			errs = multierr.Append(errs, c.engine.Close())
		}
		for _, b := range []regs.BankCloser{c.gpioBank, c.clkBank, c.pwmBank} {
			if b != nil {
				errs = multierr.Append(errs, b.Close())
			}
		}
		c.mgr.ReleaseAll()
		c.closeErr = errs
		c.log.Info("brightness controller stopped")
	})
	return c.closeErr
}
