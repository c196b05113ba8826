package regs

import "testing"

func TestMemReadBack(t *testing.T) {
	m := NewMem()
	m.Write32(0x10, 0xDEADBEEF)
	if got := m.Read32(0x10); got != 0xDEADBEEF {
		t.Fatalf("Read32 = %#x, want 0xDEADBEEF", got)
	}
	if got := m.Read32(0x14); got != 0 {
		t.Fatalf("unwritten register = %#x, want 0", got)
	}
}

func TestMemJournalOrder(t *testing.T) {
	m := NewMem()
	m.Write32(0x0, 1)
	m.Write32(0x4, 2)
	m.Write32(0x0, 3)

	j := m.Journal()
	want := []WriteRecord{{Off: 0x0, Val: 1}, {Off: 0x4, Val: 2}, {Off: 0x0, Val: 3}}
	if len(j) != len(want) {
		t.Fatalf("journal length = %d, want %d", len(j), len(want))
	}
	for i := range want {
		if j[i] != want[i] {
			t.Errorf("journal[%d] = %+v, want %+v", i, j[i], want[i])
		}
	}
}

func TestMemLateWrites(t *testing.T) {
	m := NewMem()
	m.Write32(0x14, 7)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	m.Write32(0x14, 8)

	if got := m.LateWrites(); got != 1 {
		t.Fatalf("LateWrites = %d, want 1", got)
	}
	// Late writes do not land in the register file.
	if got := m.Read32(0x14); got != 7 {
		t.Fatalf("register after late write = %d, want 7", got)
	}
}

func TestWindowShiftsOffsets(t *testing.T) {
	m := NewMem()
	w := Window(m, ClockWindow)

	w.Write32(ClockDiv, ClockPassword|0x5000)
	if got := m.Read32(ClockWindow + ClockDiv); got != ClockPassword|0x5000 {
		t.Fatalf("underlying register = %#x", got)
	}
	if got := w.Read32(ClockDiv); got != ClockPassword|0x5000 {
		t.Fatalf("windowed read = %#x", got)
	}
}
