package session

import "odin-replicator/internal/snapshot"

// ClientCursor tracks one connected client's replication progress, the
// server-side bookkeeping §4.G/§8-property-10 describes: the last frame
// the client has acknowledged only ever moves forward, driving both the
// per-client baseline lookup and the snapshot store's GC watermark.
type ClientCursor struct {
	PlayerIndex    uint8
	InGameObjectID int // NetworkId.Index() of the client's own controlled object, -1 until spawned
	LastAckedFrame uint32
	HasAcked       bool // false until the first ack arrives; Find must not be attempted with HasAcked==false
	ReadyForGame   bool // true once bootstrap (init packet) has been sent
	InputSequence  uint32
	hasInput       bool // false until the first PLAYER_INPUT arrives
}

func NewClientCursor(playerIndex uint8) *ClientCursor {
	return &ClientCursor{
		PlayerIndex:    playerIndex,
		InGameObjectID: -1,
	}
}

// AdvanceAck updates LastAckedFrame if frame is newer, ignoring stale or
// duplicate acks arriving out of order over UDP (§8-property-10: the
// cursor is monotonic even though the transport is not ordered).
func (c *ClientCursor) AdvanceAck(frame uint32) {
	if !c.HasAcked || snapshot.FrameAfter(frame, c.LastAckedFrame) {
		c.LastAckedFrame = frame
		c.HasAcked = true
	}
}

// AdvanceInput accepts seq as the client's current input sequence if it is
// newer than the last accepted one, reporting whether it was accepted.
// Older or duplicate PLAYER_INPUT packets arriving out of order over UDP
// are dropped (§4.G: the server only accepts a strictly increasing
// input_sequence).
func (c *ClientCursor) AdvanceInput(seq uint32) bool {
	if c.hasInput && seq <= c.InputSequence {
		return false
	}
	c.InputSequence = seq
	c.hasInput = true
	return true
}

// Baseline returns the snapshot this client last acknowledged, or nil if
// none has been acknowledged yet (forcing a full, baseline-less send).
func (c *ClientCursor) Baseline(store *snapshot.Store) *snapshot.Snapshot {
	if !c.HasAcked {
		return nil
	}
	snap, ok := store.Find(c.LastAckedFrame)
	if !ok {
		return nil
	}
	return snap
}
