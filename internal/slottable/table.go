// Package slottable implements the fixed-capacity open-addressed table
// mapping opaque scene handles to 12-bit network ids (spec §4.C).
package slottable

import "odin-replicator/internal/wire"

// Handle is an opaque scene object reference. The core never interprets
// its bits beyond hashing them; the host scene owns the real type.
type Handle uint64

// Capacity is the fixed slot count, dictated by the 12-bit NetworkId
// index namespace (§3).
const Capacity = wire.MaxObjects

type slotState uint8

const (
	free slotState = iota
	occupied
	tombstone
)

type entry struct {
	state  slotState
	handle Handle
}

// Table is NOT safe for concurrent use; per §5 it is mutated solely by
// the server (or client) tick.
type Table struct {
	entries [Capacity]entry
}

func New() *Table {
	return &Table{}
}

// hash XORs the 12-bit chunks of handle together, per §4.C.
func hash(h Handle) int {
	v := uint64(h)
	x := 0
	for v != 0 {
		x ^= int(v & (Capacity - 1))
		v >>= 12
	}
	return x
}

// ErrFull is returned by Insert when capacity is exhausted. Per §7 this
// is fatal to the session — the caller is expected to terminate, not
// recover.
type ErrFull struct{}

func (ErrFull) Error() string { return "slottable: capacity exhausted (4096 objects)" }

// Insert places handle using linear probing with wraparound and returns
// its assigned id.
func (t *Table) Insert(h Handle) (int, error) {
	start := hash(h)
	for i := 0; i < Capacity; i++ {
		idx := (start + i) % Capacity
		if t.entries[idx].state != occupied {
			t.entries[idx] = entry{state: occupied, handle: h}
			return idx, nil
		}
	}
	return 0, ErrFull{}
}

// InsertAt forces handle into a specific slot, for a caller that must
// mirror an id the server already assigned.
func (t *Table) InsertAt(id int, h Handle) {
	t.entries[id] = entry{state: occupied, handle: h}
}

// Find runs the same probe sequence as Insert, halting at the first free
// slot and probing past tombstones. Because RemoveAt leaves a tombstone
// rather than a free slot, a free slot really does mean "handle was never
// placed in this probe chain" (§9, §8 property 7).
func (t *Table) Find(h Handle) (int, bool) {
	start := hash(h)
	for i := 0; i < Capacity; i++ {
		idx := (start + i) % Capacity
		e := t.entries[idx]
		if e.state == free {
			return 0, false
		}
		if e.state == occupied && e.handle == h {
			return idx, true
		}
	}
	return 0, false
}

// GetAt looks up the handle at a known id without searching.
func (t *Table) GetAt(id int) (Handle, bool) {
	e := t.entries[id]
	if e.state != occupied {
		return 0, false
	}
	return e.handle, true
}

// RemoveAt frees id by leaving a tombstone in its slot. A naive "mark
// empty" would leave later entries of the same probe chain in slots Find
// can no longer reach once it hits the new free slot first (§9's flagged
// bug). The tombstone keeps every remaining handle reachable from its own
// hash without moving it, so no other handle's id changes; Insert reuses
// tombstoned slots.
func (t *Table) RemoveAt(id int) {
	t.entries[id] = entry{state: tombstone}
}
