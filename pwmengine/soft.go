package pwmengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pwmled-go/gpio"
)

// Soft approximates a duty cycle with two chained timers on one goroutine.
// The period timer fires every pulse period: it drives the line to the
// cycle's off edge, arms the duty timer at a level-proportional delay, and
// re-arms itself. The duty timer is one-shot per arming: when it fires with
// a non-zero level it drives the line to the on edge.
type Soft struct {
	line      gpio.Line
	period    time.Duration
	maxLevel  int
	activeLow bool

	level atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewSoft builds the software strategy on a reserved output line.
func NewSoft(line gpio.Line, period time.Duration, maxLevel int, activeLow bool) *Soft {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	if maxLevel < 1 {
		maxLevel = 1
	}
	return &Soft{
		line:      line,
		period:    period,
		maxLevel:  maxLevel,
		activeLow: activeLow,
		done:      make(chan struct{}),
	}
}

func (s *Soft) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
	return nil
}

// Apply publishes a new level; the timer loop picks it up on its next tick.
func (s *Soft) Apply(level int) { s.level.Store(int64(level)) }

// Close stops both timers and waits for the loop to exit, leaving the line
// at the off edge.
func (s *Soft) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
	})
	return nil
}

// dutyDelay is the level-proportional arming delay for the duty timer.
// Computed over nanoseconds so every distinct level yields a distinct
// delay; monotonic non-decreasing in level.
func (s *Soft) dutyDelay(level int) time.Duration {
	if level < 0 {
		level = 0
	}
	if level > s.maxLevel {
		level = s.maxLevel
	}
	return time.Duration(int64(s.period) * int64(level) / int64(s.maxLevel))
}

func (s *Soft) offEdge() int {
	if s.activeLow {
		return 1
	}
	return 0
}

func (s *Soft) onEdge() int { return 1 - s.offEdge() }

func (s *Soft) run(ctx context.Context) {
	defer close(s.done)

	periodT := time.NewTimer(s.period)
	dutyT := time.NewTimer(time.Hour)
	if !dutyT.Stop() {
		drainTimer(dutyT)
	}
	defer periodT.Stop()
	defer dutyT.Stop()

	_ = s.line.SetValue(s.offEdge())

	for {
		select {
		case <-ctx.Done():
			_ = s.line.SetValue(s.offEdge())
			return

		case <-periodT.C:
			_ = s.line.SetValue(s.offEdge())
			if lvl := int(s.level.Load()); lvl > 0 {
				resetTimer(dutyT, s.dutyDelay(lvl))
			}
			periodT.Reset(s.period)

		case <-dutyT.C:
			if s.level.Load() > 0 {
				_ = s.line.SetValue(s.onEdge())
			}
		}
	}
}
