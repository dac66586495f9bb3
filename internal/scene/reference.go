package scene

import "odin-replicator/internal/wire"

// Reference is an in-memory Adapter used by tests and by the local
// "both" role (server and client sharing a process, §9's explicit-DI
// design note) when no real renderer is attached. It tracks just enough
// state to exercise the replication/reconciliation paths.
type Reference struct {
	objects map[int]*wire.ObjectState
	is2D    map[int]bool
	sounds  map[int]string
	models  map[int]string
	anims   map[int]string
	parts   map[int]string
	nextID  int
}

func NewReference() *Reference {
	return &Reference{
		objects: make(map[int]*wire.ObjectState),
		is2D:    make(map[int]bool),
		sounds:  make(map[int]string),
		models:  make(map[int]string),
		anims:   make(map[int]string),
		parts:   make(map[int]string),
	}
}

// Add registers an object at an explicit index with initial state, for
// server-side test setup (the server owns index assignment via its own
// slot table, not via Register).
func (r *Reference) Add(index int, is2D bool, state wire.ObjectState) {
	s := state
	r.objects[index] = &s
	r.is2D[index] = is2D
}

func (r *Reference) Objects() []int {
	out := make([]int, 0, len(r.objects))
	for idx := range r.objects {
		out = append(out, idx)
	}
	return out
}

func (r *Reference) Sample(index int) (wire.ObjectState, bool) {
	s, ok := r.objects[index]
	if !ok {
		return wire.ObjectState{}, false
	}
	return *s, true
}

func (r *Reference) Register(is2D bool) int {
	idx := r.nextID
	r.nextID++
	s := wire.ObjectState{Scale: wire.IdentityScale, ModelIndex: wire.NoIndex, AnimationIndex: wire.NoIndex, ParticleIndex: wire.NoIndex, SoundIndex: wire.SoundNone, IsD2: is2D}
	r.objects[idx] = &s
	r.is2D[idx] = is2D
	return idx
}

func (r *Reference) Unregister(index int) {
	delete(r.objects, index)
	delete(r.is2D, index)
	delete(r.sounds, index)
	delete(r.models, index)
	delete(r.anims, index)
	delete(r.parts, index)
}

func (r *Reference) Apply(index int, state wire.ObjectState) {
	if s, ok := r.objects[index]; ok {
		*s = state
		return
	}
	s := state
	r.objects[index] = &s
}

func (r *Reference) ResolveSound(index int, name string, is2D bool, radius uint8, unitSize float32) {
	if name == "" {
		delete(r.sounds, index)
		return
	}
	r.sounds[index] = name
}

func (r *Reference) ResolveModel(index int, name string) {
	if name == "" {
		delete(r.models, index)
		return
	}
	r.models[index] = name
}

func (r *Reference) ResolveAnimation(index int, name string) {
	if name == "" {
		delete(r.anims, index)
		return
	}
	r.anims[index] = name
}

func (r *Reference) ResolveParticle(index int, name string) {
	if name == "" {
		delete(r.parts, index)
		return
	}
	r.parts[index] = name
}

// SoundOf, ModelOf etc. let tests assert on resolved attachments.
func (r *Reference) SoundOf(index int) string { return r.sounds[index] }
func (r *Reference) ModelOf(index int) string { return r.models[index] }
