// Package fsm holds the brightness state machine: a bounded level counter
// and a total (state, event) -> action table.
package fsm

import "pwmled-go/x/mathx"

// Event is a debounced button event.
type Event uint8

const (
	EventNone Event = iota
	EventUp
	EventDown

	eventCount
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventUp:
		return "up"
	case EventDown:
		return "down"
	}
	return "invalid"
}

// State is derived purely from (level, maxLevel); it is never stored
// independently of the level.
type State uint8

const (
	StateOff State = iota // level == 0
	StateOn               // 0 < level < maxLevel
	StateMax              // level == maxLevel

	stateCount
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateOn:
		return "on"
	case StateMax:
		return "max"
	}
	return "invalid"
}

// StateOf derives the state from a level and its ceiling.
func StateOf(level, maxLevel int) State {
	switch {
	case level <= 0:
		return StateOff
	case level >= maxLevel:
		return StateMax
	default:
		return StateOn
	}
}

type action uint8

const (
	actNone action = iota
	actIncrease
	actDecrease
)

// transitions is total over all state/event combinations. The no-op entries
// are deliberate: DOWN at the floor and UP at the ceiling change nothing.
var transitions = [stateCount][eventCount]action{
	StateOff: {EventNone: actNone, EventUp: actIncrease, EventDown: actNone},
	StateOn:  {EventNone: actNone, EventUp: actIncrease, EventDown: actDecrease},
	StateMax: {EventNone: actNone, EventUp: actNone, EventDown: actDecrease},
}

// Machine owns the bounded brightness counter. It is not safe for concurrent
// use; the deferred dispatcher is its single caller.
type Machine struct {
	level    int
	maxLevel int
}

func New(maxLevel int) *Machine {
	return &Machine{maxLevel: mathx.Max(maxLevel, 1)}
}

func (m *Machine) Level() int    { return m.level }
func (m *Machine) MaxLevel() int { return m.maxLevel }
func (m *Machine) State() State  { return StateOf(m.level, m.maxLevel) }

// Step applies one event: look up the action for the current derived state,
// mutate the level with clamping, and report whether it changed. The state
// is recomputed from the level on the next call to State.
func (m *Machine) Step(ev Event) (level int, changed bool) {
	if ev >= eventCount {
		ev = EventNone
	}
	prev := m.level
	switch transitions[m.State()][ev] {
	case actIncrease:
		m.level = mathx.Min(m.level+1, m.maxLevel)
	case actDecrease:
		m.level = mathx.Max(m.level-1, 0)
	}
	return m.level, m.level != prev
}
