package snapshot

import "odin-replicator/internal/wire"

// Store is an ordered ring of snapshots indexed by frame. It is mutated
// solely by the server tick (§5: single-threaded cooperative scheduling,
// scene and replication share one thread), and read within that same
// tick by the encoder — no synchronization is needed or added here,
// unlike a connection hub touched concurrently by many goroutines.
type Store struct {
	frames []*Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Append adds a new snapshot. Frames must be appended in increasing
// order; the server tick loop is the sole producer.
func (s *Store) Append(snap *Snapshot) {
	s.frames = append(s.frames, snap)
}

// Find returns the snapshot at frame, or (nil, false) if it has been
// garbage collected or was never appended (e.g. before the session
// began). Callers fall back to full, no-baseline encoding in that case.
func (s *Store) Find(frame uint32) (*Snapshot, bool) {
	for _, f := range s.frames {
		if f.Frame == frame {
			return f, true
		}
	}
	return nil, false
}

// Latest returns the most recently appended snapshot, or nil if empty.
func (s *Store) Latest() *Snapshot {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// GC drops every snapshot older than minAcked (the minimum last-acked
// frame across the clients that have acknowledged at least one frame;
// see session.Hub.MinAckedFrame). A client with no acknowledgement yet
// does not hold GC back: it is sent full, baseline-less deltas and needs
// no retained snapshot.
func (s *Store) GC(minAcked uint32) {
	keep := s.frames[:0]
	for _, f := range s.frames {
		if f.Frame == minAcked || FrameAfter(f.Frame, minAcked) {
			keep = append(keep, f)
		}
	}
	s.frames = keep
}

// Len reports how many snapshots are currently retained (test/metrics use).
func (s *Store) Len() int { return len(s.frames) }

// DeletionsSince unions Deleted across every retained frame strictly
// after lastAcked and up to and including upTo (§4.E step 3), so a
// deletion whose own datagram was lost still reaches the client once
// its frame stays within the client's un-acked window (§3 invariant 5:
// every deletion observed at least once). Each id appears at most once
// in the result even if it shows up in more than one frame's Deleted.
func (s *Store) DeletionsSince(lastAcked, upTo uint32) []wire.NetworkId {
	var out []wire.NetworkId
	var seen map[wire.NetworkId]bool
	for _, f := range s.frames {
		if !FrameAfter(f.Frame, lastAcked) || FrameAfter(f.Frame, upTo) {
			continue
		}
		for _, id := range f.Deleted {
			if seen == nil {
				seen = make(map[wire.NetworkId]bool)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
