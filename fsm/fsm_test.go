package fsm

import "testing"

func TestStateOf(t *testing.T) {
	cases := []struct {
		level, max int
		want       State
	}{
		{0, 5, StateOff},
		{1, 5, StateOn},
		{4, 5, StateOn},
		{5, 5, StateMax},
		{0, 1, StateOff},
		{1, 1, StateMax},
	}
	for _, c := range cases {
		if got := StateOf(c.level, c.max); got != c.want {
			t.Errorf("StateOf(%d, %d) = %v, want %v", c.level, c.max, got, c.want)
		}
	}
}

func TestTransitionTableIsTotal(t *testing.T) {
	for s := State(0); s < stateCount; s++ {
		for e := Event(0); e < eventCount; e++ {
			// Index panics would fail the test; also pin the no-op cells.
			act := transitions[s][e]
			if e == EventNone && act != actNone {
				t.Errorf("state %v: EventNone must be a no-op, got %d", s, act)
			}
		}
	}
	if transitions[StateOff][EventDown] != actNone {
		t.Error("OFF + DOWN must be a no-op")
	}
	if transitions[StateMax][EventUp] != actNone {
		t.Error("MAX + UP must be a no-op")
	}
}

func TestStepFromOff(t *testing.T) {
	// One accepted UP from level 0 turns the LED on at level 1.
	m := New(5)
	if m.State() != StateOff {
		t.Fatalf("initial state = %v, want off", m.State())
	}
	level, changed := m.Step(EventUp)
	if level != 1 || !changed {
		t.Fatalf("Step(up) = (%d, %v), want (1, true)", level, changed)
	}
	if m.State() != StateOn {
		t.Errorf("state = %v, want on", m.State())
	}
}

func TestStepSaturatesAtMax(t *testing.T) {
	m := New(5)
	for i := 0; i < 4; i++ {
		m.Step(EventUp)
	}
	level, changed := m.Step(EventUp)
	if level != 5 || !changed || m.State() != StateMax {
		t.Fatalf("fifth up: level=%d changed=%v state=%v", level, changed, m.State())
	}
	level, changed = m.Step(EventUp)
	if level != 5 || changed {
		t.Errorf("up at max: level=%d changed=%v, want (5, false)", level, changed)
	}
}

func TestStepDownAtFloor(t *testing.T) {
	m := New(5)
	level, changed := m.Step(EventDown)
	if level != 0 || changed || m.State() != StateOff {
		t.Errorf("down at floor: level=%d changed=%v state=%v", level, changed, m.State())
	}
}

func TestLevelStaysBounded(t *testing.T) {
	// A long mixed sequence never escapes [0, max], and the state always
	// matches the level.
	m := New(3)
	seq := []Event{
		EventUp, EventUp, EventDown, EventUp, EventUp, EventUp, EventUp,
		EventNone, EventDown, EventDown, EventDown, EventDown, EventUp,
		EventNone, EventUp, EventDown, EventUp, EventUp, EventUp, EventDown,
	}
	for i, ev := range seq {
		level, _ := m.Step(ev)
		if level < 0 || level > 3 {
			t.Fatalf("step %d (%v): level %d out of bounds", i, ev, level)
		}
		if m.State() != StateOf(level, 3) {
			t.Fatalf("step %d: state %v inconsistent with level %d", i, m.State(), level)
		}
	}
}

func TestStepNoneIsNoop(t *testing.T) {
	m := New(5)
	m.Step(EventUp)
	level, changed := m.Step(EventNone)
	if level != 1 || changed {
		t.Errorf("Step(none) = (%d, %v), want (1, false)", level, changed)
	}
}
