package pwmengine

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingLine struct {
	mu     sync.Mutex
	values []int
}

func (l *recordingLine) SetValue(v int) error {
	l.mu.Lock()
	l.values = append(l.values, v)
	l.mu.Unlock()
	return nil
}

func (l *recordingLine) Close() error { return nil }

func (l *recordingLine) snapshot() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.values...)
}

func TestDutyDelayProportional(t *testing.T) {
	s := NewSoft(&recordingLine{}, 10*time.Millisecond, 5, false)
	cases := []struct {
		level int
		want  time.Duration
	}{
		{0, 0},
		{1, 2 * time.Millisecond},
		{2, 4 * time.Millisecond},
		{3, 6 * time.Millisecond},
		{5, 10 * time.Millisecond},
		{7, 10 * time.Millisecond}, // clamped
	}
	for _, c := range cases {
		if got := s.dutyDelay(c.level); got != c.want {
			t.Errorf("dutyDelay(%d) = %v, want %v", c.level, got, c.want)
		}
	}
}

func TestDutyDelayMonotonic(t *testing.T) {
	// Nanosecond fixed-point keeps every level distinct; the delay never
	// decreases as the level rises.
	s := NewSoft(&recordingLine{}, 7*time.Millisecond, 31, false)
	prev := time.Duration(-1)
	for lvl := 0; lvl <= 31; lvl++ {
		d := s.dutyDelay(lvl)
		if d < prev {
			t.Fatalf("dutyDelay(%d) = %v < dutyDelay(%d) = %v", lvl, d, lvl-1, prev)
		}
		if lvl > 0 && d == s.dutyDelay(lvl-1) {
			t.Fatalf("levels %d and %d collapsed to the same delay", lvl-1, lvl)
		}
		prev = d
	}
}

func TestSoftTogglesLine(t *testing.T) {
	line := &recordingLine{}
	s := NewSoft(line, 5*time.Millisecond, 5, false)
	s.Apply(3)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	vals := line.snapshot()
	if len(vals) < 4 {
		t.Fatalf("too few writes: %v", vals)
	}
	// Both edges appear, and the final write leaves the line off.
	var sawOn, sawOff bool
	for _, v := range vals {
		switch v {
		case 0:
			sawOff = true
		case 1:
			sawOn = true
		default:
			t.Fatalf("unexpected line value %d", v)
		}
	}
	if !sawOn || !sawOff {
		t.Fatalf("missing edge in %v", vals)
	}
	if vals[len(vals)-1] != 0 {
		t.Fatalf("line left at %d after close", vals[len(vals)-1])
	}
}

func TestSoftZeroLevelStaysOff(t *testing.T) {
	line := &recordingLine{}
	s := NewSoft(line, 5*time.Millisecond, 5, false)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(25 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	for _, v := range line.snapshot() {
		if v != 0 {
			t.Fatalf("line driven to %d at level 0", v)
		}
	}
}

func TestSoftActiveLowInvertsEdges(t *testing.T) {
	line := &recordingLine{}
	s := NewSoft(line, 5*time.Millisecond, 5, true)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(12 * time.Millisecond)
	_ = s.Close()

	vals := line.snapshot()
	if len(vals) == 0 || vals[0] != 1 {
		t.Fatalf("active-low off edge should drive 1, got %v", vals)
	}
}

func TestSoftCloseTwice(t *testing.T) {
	s := NewSoft(&recordingLine{}, 5*time.Millisecond, 5, false)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
