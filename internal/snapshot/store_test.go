package snapshot

import "testing"

func TestStoreAppendFindGC(t *testing.T) {
	s := NewStore()
	for f := uint32(1); f <= 10; f++ {
		s.Append(&Snapshot{Frame: f})
	}

	if _, ok := s.Find(5); !ok {
		t.Fatalf("expected frame 5 present")
	}

	s.GC(7)
	if _, ok := s.Find(6); ok {
		t.Fatalf("frame 6 should have been collected")
	}
	if _, ok := s.Find(7); !ok {
		t.Fatalf("frame 7 (the ack boundary) must be retained")
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 snapshots retained (7,8,9,10), got %d", s.Len())
	}
}

func TestFindMissingBaselineFallsBack(t *testing.T) {
	s := NewStore()
	s.Append(&Snapshot{Frame: 100})
	s.GC(100)
	if _, ok := s.Find(50); ok {
		t.Fatalf("expected GC'd frame to be absent")
	}
}

func TestFrameWrapComparison(t *testing.T) {
	// Near the 24-bit wrap boundary, a small frame value can legitimately
	// be "after" a large one.
	const near = FrameMask - 1
	if !FrameAfter(5, near) {
		t.Fatalf("expected frame 5 to be after %d across the wrap", near)
	}
	if FrameAfter(near, 5) {
		t.Fatalf("expected %d to not be after 5 across the wrap", near)
	}
}
