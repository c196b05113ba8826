// Package button turns raw edge interrupts on the two push-button lines
// into a filtered stream of logical up/down events.
package button

import (
	"sync/atomic"
	"time"

	"pwmled-go/fsm"
)

// DefaultDebounceWindow is the minimum spacing between accepted edges on
// one line.
const DefaultDebounceWindow = 200 * time.Millisecond

// Slot is the single pending-event mailbox between the edge handlers and
// the dispatcher. It is deliberately a slot, not a queue: each accepted
// edge overwrites any unconsumed predecessor, so when both buttons fire
// between two dispatcher runs only the most recent edge survives.
type Slot struct {
	v atomic.Int32
}

// Publish overwrites the pending event.
func (s *Slot) Publish(ev fsm.Event) { s.v.Store(int32(ev)) }

// Take consumes the pending event, resetting the slot to EventNone.
func (s *Slot) Take() fsm.Event { return fsm.Event(s.v.Swap(int32(fsm.EventNone))) }

// Source debounces edges per line. Edge handlers run on the event-delivery
// goroutine of their line request; they must not block and must not touch
// hardware registers, so acceptance is timestamp compare + slot store +
// dispatcher kick, nothing else.
type Source struct {
	slot   *Slot
	window time.Duration
	kick   func()

	// Last accepted edge per line, in nanoseconds of the event clock.
	// Zero means no edge has been accepted yet.
	lastUp   atomic.Int64
	lastDown atomic.Int64

	drops atomic.Uint32
}

// NewSource wires a debouncer to the pending-event slot and the dispatcher
// trigger. A window <= 0 falls back to DefaultDebounceWindow.
func NewSource(slot *Slot, window time.Duration, kick func()) *Source {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Source{slot: slot, window: window, kick: kick}
}

// UpEdge handles a rising edge on the up-button line. ts is the kernel
// event timestamp (monotonic).
func (s *Source) UpEdge(ts time.Duration) { s.edge(fsm.EventUp, &s.lastUp, ts) }

// DownEdge handles a rising edge on the down-button line.
func (s *Source) DownEdge(ts time.Duration) { s.edge(fsm.EventDown, &s.lastDown, ts) }

func (s *Source) edge(ev fsm.Event, last *atomic.Int64, ts time.Duration) {
	now := int64(ts)
	prev := last.Load()
	if prev != 0 && now-prev < int64(s.window) {
		// Bounce: no event, no timestamp update, no dispatch.
		s.drops.Add(1)
		return
	}
	last.Store(now)
	s.slot.Publish(ev)
	s.kick()
}

// Drops reports how many edges the debounce filter discarded.
func (s *Source) Drops() uint32 { return s.drops.Load() }
