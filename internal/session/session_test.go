package session

import (
	"testing"

	"odin-replicator/internal/snapshot"
	"odin-replicator/internal/wire"
)

func TestCursorMonotonicAdvance(t *testing.T) {
	c := NewClientCursor(0)
	c.AdvanceAck(10)
	if c.LastAckedFrame != 10 {
		t.Fatalf("expected 10, got %d", c.LastAckedFrame)
	}
	c.AdvanceAck(5) // stale/out-of-order ack must not move the cursor backward
	if c.LastAckedFrame != 10 {
		t.Fatalf("stale ack moved cursor backward: %d", c.LastAckedFrame)
	}
	c.AdvanceAck(12)
	if c.LastAckedFrame != 12 {
		t.Fatalf("expected 12, got %d", c.LastAckedFrame)
	}
}

func TestCursorBaselineNilUntilAcked(t *testing.T) {
	c := NewClientCursor(0)
	store := snapshot.NewStore()
	store.Append(&snapshot.Snapshot{Frame: 1})
	if b := c.Baseline(store); b != nil {
		t.Fatalf("expected nil baseline before first ack")
	}
	c.AdvanceAck(1)
	if b := c.Baseline(store); b == nil {
		t.Fatalf("expected non-nil baseline after ack")
	}
}

func TestCursorAdvanceInputRejectsStaleSequence(t *testing.T) {
	c := NewClientCursor(0)
	if !c.AdvanceInput(3) {
		t.Fatalf("expected first sequence to be accepted")
	}
	if c.AdvanceInput(3) {
		t.Fatalf("expected duplicate sequence to be rejected")
	}
	if c.AdvanceInput(1) {
		t.Fatalf("expected stale sequence to be rejected")
	}
	if !c.AdvanceInput(4) {
		t.Fatalf("expected newer sequence to be accepted")
	}
	if c.InputSequence != 4 {
		t.Fatalf("expected InputSequence 4, got %d", c.InputSequence)
	}
}

func TestInitPacketRoundTrip(t *testing.T) {
	cfg := wire.DefaultCodecConfig
	tables := PrecacheTables{
		Sounds:     []string{"explosion", "footstep"},
		Models:     []string{"player", "crate"},
		Animations: []string{"idle", "run"},
		Particles:  []string{"spark"},
	}
	snap := &snapshot.Snapshot{
		Frame: 42,
		Objects: []snapshot.Object{
			{Index: 0, State: wire.ObjectState{Position: wire.Vec3{X: 1, Y: 2, Z: 3}, ModelIndex: 1, AnimationIndex: -1, ParticleIndex: -1, SoundIndex: -1, Scale: wire.IdentityScale}},
			{Index: 1, State: wire.ObjectState{Position: wire.Vec3{X: 4, Y: 5, Z: 6}, ModelIndex: 0, AnimationIndex: -1, ParticleIndex: -1, SoundIndex: -1, Scale: wire.IdentityScale}},
		},
	}

	payload := BuildInitPacket(3, tables, snap, 0, cfg, nil)
	parsed, err := ParseInitPacket(payload, 0, cfg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.PlayerIndex != 3 {
		t.Fatalf("player index: got %d", parsed.PlayerIndex)
	}
	if parsed.Frame != 42 {
		t.Fatalf("frame: got %d", parsed.Frame)
	}
	if len(parsed.Deltas) != 1 {
		t.Fatalf("expected own object omitted, 1 remaining, got %d", len(parsed.Deltas))
	}
	if parsed.Deltas[0].ID.Index() != 1 {
		t.Fatalf("expected index 1, got %d", parsed.Deltas[0].ID.Index())
	}
	if len(parsed.Tables.Sounds) != 2 || parsed.Tables.Sounds[1] != "footstep" {
		t.Fatalf("sound table mismatch: %+v", parsed.Tables.Sounds)
	}
}

func TestClientLimiterAllowsBurstThenThrottles(t *testing.T) {
	l := NewClientLimiter(1, 2)
	if !l.AllowInput() || !l.AllowInput() {
		t.Fatalf("expected burst of 2 to be allowed immediately")
	}
	if l.AllowInput() {
		t.Fatalf("expected third immediate call to be throttled")
	}
}
