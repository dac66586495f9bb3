package session

import (
	"fmt"

	"odin-replicator/internal/snapshot"
	"odin-replicator/internal/wire"
)

// BuildInitPacket assembles the bootstrap payload a server sends a client
// immediately after accepting its reliable connection (§4.G step 3):
// an optional host-supplied prefix, the assigned player index, the four
// precache lists in order, the current frame index, and a full (no
// baseline, culling disabled) object dump with the client's own object
// omitted. prefix may be nil.
func BuildInitPacket(playerIndex uint8, tables PrecacheTables, snap *snapshot.Snapshot, ownIndex int, cfg wire.CodecConfig, prefix func([]byte) []byte) []byte {
	buf := make([]byte, 0, 512)
	if prefix != nil {
		buf = prefix(buf)
	}
	buf = appendByte(buf, playerIndex)
	buf = writeStringList(buf, tables.Sounds)
	buf = writeStringList(buf, tables.Models)
	buf = writeStringList(buf, tables.Animations)
	buf = writeStringList(buf, tables.Particles)

	buf = appendU24(buf, snap.Frame)

	objects := snap.Objects
	count := 0
	for _, o := range objects {
		if o.Index == ownIndex {
			continue
		}
		count++
	}
	buf = appendU16(buf, uint16(count))
	for _, o := range objects {
		if o.Index == ownIndex {
			continue
		}
		buf = wire.EncodeObject(buf, o.Index, o.State, nil, cfg)
	}
	return buf
}

// InitPacket is the decoded form of BuildInitPacket's payload.
type InitPacket struct {
	PlayerIndex uint8
	Tables      PrecacheTables
	Frame       uint32
	Deltas      []wire.Delta
}

// ParseInitPacket decodes a bootstrap payload. prefixLen skips any
// host-specific prefix bytes BuildInitPacket's caller wrote (0 if none).
func ParseInitPacket(payload []byte, prefixLen int, cfg wire.CodecConfig) (InitPacket, error) {
	if prefixLen > len(payload) {
		return InitPacket{}, fmt.Errorf("session: init packet shorter than prefix (%d < %d)", len(payload), prefixLen)
	}
	r := newByteReader(payload[prefixLen:])

	playerIndex, err := r.byteVal()
	if err != nil {
		return InitPacket{}, fmt.Errorf("session: read player index: %w", err)
	}

	var tables PrecacheTables
	if tables.Sounds, err = readStringList(r); err != nil {
		return InitPacket{}, err
	}
	if tables.Models, err = readStringList(r); err != nil {
		return InitPacket{}, err
	}
	if tables.Animations, err = readStringList(r); err != nil {
		return InitPacket{}, err
	}
	if tables.Particles, err = readStringList(r); err != nil {
		return InitPacket{}, err
	}

	frame, err := r.u24()
	if err != nil {
		return InitPacket{}, fmt.Errorf("session: read init frame index: %w", err)
	}

	count, err := r.u16()
	if err != nil {
		return InitPacket{}, fmt.Errorf("session: read init object count: %w", err)
	}

	wireReader := wire.NewReader(r.remaining())
	deltas := make([]wire.Delta, 0, count)
	for i := 0; i < int(count); i++ {
		d, err := wire.DecodeObject(wireReader, cfg)
		if err != nil {
			return InitPacket{}, fmt.Errorf("session: decode init object %d: %w", i, err)
		}
		deltas = append(deltas, d)
	}

	return InitPacket{
		PlayerIndex: playerIndex,
		Tables:      tables,
		Frame:       frame,
		Deltas:      deltas,
	}, nil
}
