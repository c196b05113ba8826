package regs

import "sync"

// WriteRecord is one journaled register write.
type WriteRecord struct {
	Off uint32
	Val uint32
	// Late marks a write that arrived after Close; teardown ordering bugs
	// show up here.
	Late bool
}

// Mem is an in-memory register bank for tests. Every write is journaled so
// tests can assert bit-exact register sequences, and writes after Close are
// recorded as violations instead of faulting.
type Mem struct {
	mu      sync.Mutex
	words   map[uint32]uint32
	journal []WriteRecord
	closed  bool
}

func NewMem() *Mem {
	return &Mem{words: map[uint32]uint32{}}
}

func (m *Mem) Read32(off uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.words[off]
}

func (m *Mem) Write32(off, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = append(m.journal, WriteRecord{Off: off, Val: v, Late: m.closed})
	if !m.closed {
		m.words[off] = v
	}
}

// Close marks the bank unmapped. Idempotent.
func (m *Mem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Journal returns a copy of all writes seen so far.
func (m *Mem) Journal() []WriteRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WriteRecord(nil), m.journal...)
}

// LateWrites counts writes that arrived after Close.
func (m *Mem) LateWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.journal {
		if r.Late {
			n++
		}
	}
	return n
}

// Poke sets a register value without journaling, for test arrangement.
func (m *Mem) Poke(off, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words[off] = v
}
