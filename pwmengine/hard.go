package pwmengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pwmled-go/regs"
	"pwmled-go/x/mathx"
)

// FuncSelector switches a line's function-select field and restores it at
// teardown.
type FuncSelector interface {
	SelectAltFunction(line int, fn uint32) error
	RestoreFunction(line int)
}

// HardConfig is the immutable hardware-strategy configuration.
type HardConfig struct {
	MaxLevel int
	// Range is the PWM range register value; the duty register runs 0..Range.
	Range uint32
	// DivI/DivF are the integer and fractional clock divisors applied to
	// the 19.2 MHz oscillator.
	DivI uint32
	DivF uint32
	// AltFunc is the function-select value that routes PWM0 to the LED line.
	AltFunc uint32
}

// Divisors returns integer/fractional clock divisors for a target PWM
// clock frequency from the oscillator.
func Divisors(targetHz uint32) (divI, divF uint32) {
	if targetHz == 0 {
		return 0xFFF, 0
	}
	return mathx.RoundDiv(uint32(regs.OscFreqHz), targetHz) & 0xFFF, 0
}

// settleDelay separates order-sensitive register writes; the clock manager
// is reputed to lock up without it.
const settleDelay = 10 * time.Microsecond

// refreshDelay re-arms the duty refresh. The refresh is a continuous
// low-latency loop bounded only by this delay, not a coarse periodic timer.
const refreshDelay = 500 * time.Microsecond

// Hard programs the PWM peripheral directly: one order-sensitive clock and
// channel setup at start, then a recurring refresh that rewrites the duty
// register from the current level.
type Hard struct {
	pwm regs.Bank
	clk regs.Bank
	sel FuncSelector

	ledLine int
	cfg     HardConfig

	level atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	sleep  func(time.Duration)
}

// NewHard builds the hardware strategy. clk must already be windowed onto
// the PWM clock control/divisor pair.
func NewHard(pwm, clk regs.Bank, sel FuncSelector, ledLine int, cfg HardConfig) *Hard {
	if cfg.MaxLevel < 1 {
		cfg.MaxLevel = 1
	}
	if cfg.Range == 0 {
		cfg.Range = 32
	}
	if cfg.AltFunc == 0 {
		cfg.AltFunc = 0x2 // ALT5 routes PWM0 to GPIO18
	}
	return &Hard{
		pwm:     pwm,
		clk:     clk,
		sel:     sel,
		ledLine: ledLine,
		cfg:     cfg,
		done:    make(chan struct{}),
		sleep:   time.Sleep,
	}
}

// Start runs the one-time setup sequence and launches the refresh loop.
// The write order below is load-bearing; the clock manager ignores
// unpassworded writes and misordered ones leave the channel dead.
func (h *Hard) Start(ctx context.Context) error {
	h.clk.Write32(regs.ClockCtl, regs.ClockPassword)
	h.clk.Write32(regs.ClockDiv, regs.ClockPassword)
	h.clk.Write32(regs.ClockCtl, regs.ClockPassword|regs.ClockKill)
	h.sleep(settleDelay)

	h.clk.Write32(regs.ClockDiv, regs.ClockPassword|(h.cfg.DivI&0xFFF)<<12|h.cfg.DivF&0xFFF)
	h.sleep(settleDelay)

	h.clk.Write32(regs.ClockCtl, regs.ClockPassword|regs.ClockEnable|regs.ClockSrcOsc)
	h.sleep(settleDelay)

	if err := h.sel.SelectAltFunction(h.ledLine, h.cfg.AltFunc); err != nil {
		h.clk.Write32(regs.ClockCtl, regs.ClockPassword|regs.ClockKill)
		return err
	}

	h.pwm.Write32(regs.PWMRng1, h.cfg.Range)
	h.pwm.Write32(regs.PWMCtl, regs.PWMCtlEnable1)
	h.sleep(settleDelay)

	ctx, h.cancel = context.WithCancel(ctx)
	go h.run(ctx)
	return nil
}

func (h *Hard) Apply(level int) { h.level.Store(int64(level)) }

// duty maps the level onto the duty register range, truncating.
func (h *Hard) duty(level int) uint32 {
	if level < 0 {
		level = 0
	}
	if level > h.cfg.MaxLevel {
		level = h.cfg.MaxLevel
	}
	return mathx.ScaleDiv(h.cfg.Range, uint32(level), uint32(h.cfg.MaxLevel))
}

func (h *Hard) run(ctx context.Context) {
	defer close(h.done)
	t := time.NewTimer(refreshDelay)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.pwm.Write32(regs.PWMDat1, h.duty(int(h.level.Load())))
			t.Reset(refreshDelay)
		}
	}
}

// Close stops the refresh loop, then winds the hardware back: disable the
// channel, kill the clock, restore the LED line's function-select field.
// The caller unmaps the register banks only after Close returns.
func (h *Hard) Close() error {
	h.once.Do(func() {
		if h.cancel != nil {
			h.cancel()
			<-h.done
		}
		h.pwm.Write32(regs.PWMCtl, 0)
		h.sleep(settleDelay)
		h.clk.Write32(regs.ClockCtl, regs.ClockPassword|regs.ClockKill)
		h.sel.RestoreFunction(h.ledLine)
	})
	return nil
}
