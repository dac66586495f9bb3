package slottable

import "testing"

// collidingHandles returns n (at most Capacity) handles that all hash to
// the same slot, by construction: the low 12-bit chunk is the same for
// all of them, and the next two chunks both hold i, so those two cancel
// out under hash()'s XOR.
func collidingHandles(n int) []Handle {
	out := make([]Handle, n)
	for i := range out {
		out[i] = Handle(uint64(i)<<24 | uint64(i)<<12 | 17)
	}
	return out
}

func TestInsertFindRoundTrip(t *testing.T) {
	tbl := New()
	id, err := tbl.Insert(Handle(42))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, ok := tbl.Find(Handle(42))
	if !ok || got != id {
		t.Fatalf("find mismatch: got=%d ok=%v want=%d", got, ok, id)
	}
}

func TestCapacityExhaustionIsFull(t *testing.T) {
	tbl := New()
	for i := 0; i < Capacity; i++ {
		if _, err := tbl.Insert(Handle(i + 1)); err != nil {
			t.Fatalf("unexpected Full at %d: %v", i, err)
		}
	}
	if _, err := tbl.Insert(Handle(999999)); err == nil {
		t.Fatalf("expected ErrFull once capacity is exhausted")
	}
}

// TestCollisionRemovalDoesNotOrphan is §8 property 7: removing a slot in
// the middle of a collision chain must not make a later colliding
// successor unfindable.
func TestCollisionRemovalDoesNotOrphan(t *testing.T) {
	tbl := New()

	// Three handles that all hash to the same bucket: construct handles
	// whose every 12-bit chunk is identical, so hash() XORs to that same
	// constant regardless of how many chunks the handle has.
	const bucket = 17
	wide := func(lowChunks int) Handle {
		var h uint64
		for i := 0; i < lowChunks; i++ {
			h |= uint64(bucket) << uint(12*i)
		}
		return Handle(h)
	}
	a := wide(1) // hashes to `bucket`
	b := wide(3) // three identical chunks XOR to `bucket` too (odd count)
	c := wide(5)

	idA, err := tbl.Insert(a)
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	idB, err := tbl.Insert(b)
	if err != nil {
		t.Fatalf("insert b: %v", err)
	}
	idC, err := tbl.Insert(c)
	if err != nil {
		t.Fatalf("insert c: %v", err)
	}
	if idA == idB || idB == idC || idA == idC {
		t.Fatalf("expected distinct slots via probing: %d %d %d", idA, idB, idC)
	}

	tbl.RemoveAt(idA)

	gotB, ok := tbl.Find(b)
	if !ok || gotB != idB {
		t.Fatalf("b became unfindable after removing a: ok=%v got=%d want=%d", ok, gotB, idB)
	}
	gotC, ok := tbl.Find(c)
	if !ok || gotC != idC {
		t.Fatalf("c became unfindable after removing a: ok=%v got=%d want=%d", ok, gotC, idC)
	}
}

func TestInsertAtAndGetAt(t *testing.T) {
	tbl := New()
	tbl.InsertAt(100, Handle(55))
	h, ok := tbl.GetAt(100)
	if !ok || h != Handle(55) {
		t.Fatalf("GetAt mismatch: %v %v", h, ok)
	}
}
