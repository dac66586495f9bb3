// Package wire implements the bit-packed per-object delta codec used to
// move ObjectState between the authoritative server and its clients.
package wire

// NetworkId is the 16-bit wire identifier for a replicated object: the
// low 12 bits are the object's slot index (0..4095), the high 4 bits are
// inline flags describing the object's shape and this frame's encoding,
// not "which fields changed" (that lives in the field mask byte).
//
// This module picks the 12-bit index / 4-flag layout over the 14-bit / 2-flag
// variant seen elsewhere in the lineage — see DESIGN.md for the reasoning.
type NetworkId uint16

const (
	indexBits = 12
	indexMask = (1 << indexBits) - 1
	flagShift = indexBits
)

// Inline flag bits, packed into the top 4 bits of a NetworkId.
const (
	FlagIs2D NetworkId = 1 << (flagShift + iota)
	FlagCompressedOrientAndVel
	FlagIsAttached
	FlagHasBlob
)

// MaxObjects is the hard cap on concurrently replicated objects imposed by
// the 12-bit index namespace.
const MaxObjects = 1 << indexBits

// NewNetworkId packs an object index and a set of inline flags into a
// NetworkId. index must be < MaxObjects; callers that violate this have a
// slot table bug, not a wire bug, so this does not return an error.
func NewNetworkId(index int, flags NetworkId) NetworkId {
	return NetworkId(index&indexMask) | (flags &^ indexMask)
}

// Index returns the 12-bit object index.
func (id NetworkId) Index() int {
	return int(id & indexMask)
}

// Flags returns the inline flag bits, still shifted into their wire
// position (compare against FlagIs2D etc. directly).
func (id NetworkId) Flags() NetworkId {
	return id &^ indexMask
}

func (id NetworkId) Has(flag NetworkId) bool {
	return id&flag != 0
}

// WithFlags returns a copy of id with flags replaced (index unchanged).
func (id NetworkId) WithFlags(flags NetworkId) NetworkId {
	return NetworkId(id.Index()) | (flags &^ indexMask)
}
