// Package snapshot implements the per-frame world snapshot ring (§4.B),
// generalized from a sequence-keyed eviction buffer keyed on message
// sequence numbers to one keyed on 24-bit frame indices.
package snapshot

import "odin-replicator/internal/wire"

// FrameMask is the wrap point of the 24-bit frame counter (§3, §9). Frame
// wrap handling is optional per spec; this module compares frames with
// modular arithmetic throughout so a long-running session degrades
// gracefully rather than corrupting GC/find logic at the wrap boundary.
const FrameMask = 1 << 24

// FrameBefore reports whether a is strictly before b under 24-bit modular
// arithmetic, interpreting the difference as a signed 24-bit value per §9.
func FrameBefore(a, b uint32) bool {
	diff := (a - b) & (FrameMask - 1)
	return diff != 0 && diff >= FrameMask/2
}

// FrameAfter is the mirror of FrameBefore.
func FrameAfter(a, b uint32) bool {
	return FrameBefore(b, a)
}

// Object pairs a slot index with the state sampled for it this frame.
type Object struct {
	Index int
	State wire.ObjectState
}

// Snapshot is one server tick's authoritative world state.
type Snapshot struct {
	Frame   uint32
	Objects []Object
	Deleted []wire.NetworkId

	// byIndex supports O(1) baseline lookup per object during delta
	// encoding; built lazily on first lookup.
	byIndex map[int]*wire.ObjectState
}

// Lookup returns the sampled state for slot index in this snapshot, or
// nil if the object did not exist at this frame.
func (s *Snapshot) Lookup(index int) *wire.ObjectState {
	if s.byIndex == nil {
		s.byIndex = make(map[int]*wire.ObjectState, len(s.Objects))
		for i := range s.Objects {
			s.byIndex[s.Objects[i].Index] = &s.Objects[i].State
		}
	}
	return s.byIndex[index]
}
