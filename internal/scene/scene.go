// Package scene defines the boundary between the replication engine and
// whatever renders/simulates the actual game world (§4.H). The engine
// never touches a concrete engine/scene-graph type; it talks to this
// interface, so the same replicator and reconciler packages can sit on
// top of any host (a real renderer, a headless bot, or the in-memory
// Reference implementation used by this module's own tests).
package scene

import "odin-replicator/internal/wire"

// Adapter is the narrow surface the replicator (server side) and
// reconciler (client side) need from the host scene.
type Adapter interface {
	// Objects lists every currently registered object's index, for the
	// server's per-tick sampling pass.
	Objects() []int

	// Sample reads the current authoritative state of an object. ok is
	// false if index is no longer registered (destroyed mid-tick).
	Sample(index int) (wire.ObjectState, bool)

	// Register creates a replica object at a host-chosen index and
	// returns it; is2D selects a 2D or 3D replica per §3. Used by the
	// client reconciler when a delta references an object it has not
	// seen before.
	Register(is2D bool) int

	// Unregister destroys a replica, e.g. on receipt of a deletion
	// entry (§4.F).
	Unregister(index int)

	// Apply pushes a decoded delta's fields onto the host object at
	// index, in the order the reconciler determines them (already
	// smoothed/interpolated by the caller where applicable).
	Apply(index int, state wire.ObjectState)

	// ResolveSound is called when a decoded delta changes SoundIndex:
	// name is "" to mean "stop any sound on this object". is2D,
	// radius and unitSize follow §4.F's 2D/3D sound handling rules.
	ResolveSound(index int, name string, is2D bool, radius uint8, unitSize float32)

	// ResolveModel/ResolveAnimation/ResolveParticle attach a precached
	// asset by name to an object. name == "" clears the attachment.
	ResolveModel(index int, name string)
	ResolveAnimation(index int, name string)
	ResolveParticle(index int, name string)
}
