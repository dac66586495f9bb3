// Package reconciler implements the client side of snapshot replication
// (§4.F): decode a snapshot datagram, apply it to the local scene
// through the slot table, and smooth position/orientation/scale so
// small authoritative corrections don't pop.
package reconciler

import (
	"fmt"
	"time"

	"odin-replicator/internal/metrics"
	"odin-replicator/internal/scene"
	"odin-replicator/internal/slottable"
	"odin-replicator/internal/snapshot"
	"odin-replicator/internal/wire"

	"github.com/rs/zerolog"
)

// Reconciler owns the client-side slot table (wire index -> scene
// object) and the per-object smoothing state.
type Reconciler struct {
	Scene   scene.Adapter
	Codec   wire.CodecConfig
	Tables  Precache
	Logger  zerolog.Logger
	Metrics *metrics.Registry
	Window  time.Duration // smoothing window, §4.F (default 100ms)
	Epsilon float32       // below this distance/delta, snap instead of smoothing (default 0.01)

	slots     *slottable.Table
	indexOf   map[wire.NetworkId]int // wire id -> scene index, mirrors slot table occupancy
	smooth    map[int]*smoothState
	lastFrame uint32
	haveFrame bool
}

// Precache mirrors session.PrecacheTables so this package does not
// depend on the session package; the client role (internal/server's
// Client) copies the negotiated tables in at bootstrap.
type Precache struct {
	Sounds     []string
	Models     []string
	Animations []string
	Particles  []string
}

func New(sc scene.Adapter, codec wire.CodecConfig, tables Precache, window time.Duration, epsilon float32, logger zerolog.Logger, metricsRegistry *metrics.Registry) *Reconciler {
	return &Reconciler{
		Scene:   sc,
		Codec:   codec,
		Tables:  tables,
		Window:  window,
		Epsilon: epsilon,
		Logger:  logger,
		Metrics: metricsRegistry,
		slots:   slottable.New(),
		indexOf: make(map[wire.NetworkId]int),
		smooth:  make(map[int]*smoothState),
	}
}

// ApplyDatagram decodes a raw snapshot payload (post packet-type byte)
// and applies it. Returns the decoded frame index. Call Tick every
// render frame (not just on datagram receipt) to keep smoothing
// advancing between snapshots.
func (r *Reconciler) ApplyDatagram(payload []byte) (uint32, error) {
	rd := newByteReader(payload)
	frame, err := rd.u24()
	if err != nil {
		return 0, fmt.Errorf("reconciler: read frame index: %w", err)
	}
	// Monotonic-only update (§8-property-10): a datagram older than the
	// newest one already applied is discarded outright, since UDP may
	// reorder.
	if r.haveFrame && !snapshot.FrameAfter(frame, r.lastFrame) {
		return frame, nil
	}
	r.lastFrame = frame
	r.haveFrame = true

	count, err := rd.u16()
	if err != nil {
		return frame, fmt.Errorf("reconciler: read object count: %w", err)
	}

	wireReader := wire.NewReader(rd.remaining())
	for i := 0; i < int(count); i++ {
		d, err := wire.DecodeObject(wireReader, r.Codec)
		if err != nil {
			if r.Metrics != nil {
				r.Metrics.DecodeErrors.Inc()
			}
			return frame, fmt.Errorf("reconciler: decode object %d: %w", i, err)
		}
		r.applyDelta(d)
	}

	rd2 := newByteReader(wireReader.Tail())
	delCount, err := rd2.u16()
	if err != nil {
		return frame, fmt.Errorf("reconciler: read deletion count: %w", err)
	}
	for i := 0; i < int(delCount); i++ {
		idRaw, err := rd2.u16()
		if err != nil {
			return frame, fmt.Errorf("reconciler: read deletion entry %d: %w", i, err)
		}
		r.handleDeletion(wire.NetworkId(idRaw))
	}

	return frame, nil
}

// ApplyInitialDeltas applies a bootstrap object dump (§4.G step 3,
// decoded by session.ParseInitPacket) the same way a snapshot's deltas
// are applied, without needing the frame/count/deletion wrapping a
// regular datagram carries.
func (r *Reconciler) ApplyInitialDeltas(frame uint32, deltas []wire.Delta) {
	r.lastFrame = frame
	r.haveFrame = true
	for _, d := range deltas {
		r.applyDelta(d)
	}
}

func (r *Reconciler) applyDelta(d wire.Delta) {
	sceneIndex, known := r.indexOf[d.ID]
	if !known {
		sceneIndex = r.Scene.Register(d.Is2D)
		r.indexOf[d.ID] = sceneIndex
		if _, err := r.slots.Insert(slottable.Handle(d.ID)); err != nil {
			r.Logger.Warn().Err(err).Msg("slot table full, dropping new object")
			delete(r.indexOf, d.ID)
			r.Scene.Unregister(sceneIndex)
			return
		}
	}

	current, _ := r.Scene.Sample(sceneIndex)
	next := current

	if d.Attached {
		next.Attached = true
		next.AttachedTo = d.AttachTo
	} else if d.Mask.Has(wire.FieldVelocity) || d.Mask.Has(wire.FieldPosition) || d.Mask.Has(wire.FieldOrientation) || d.Mask.Has(wire.FieldScale) {
		next.Attached = false
	}

	firstSight := !known
	if d.Mask.Has(wire.FieldVelocity) {
		next.Velocity = d.Velocity
	}
	if !next.Attached {
		if d.Mask.Has(wire.FieldPosition) {
			r.startPositionSmooth(sceneIndex, current.Position, d.Position, firstSight)
			next.Position = d.Position
		}
		if d.Mask.Has(wire.FieldOrientation) {
			r.startOrientationSmooth(sceneIndex, current.Orientation, d.Orientation, firstSight)
			next.Orientation = d.Orientation
		}
		if d.Mask.Has(wire.FieldScale) {
			r.startScaleSmooth(sceneIndex, current.Scale, d.Scale, firstSight)
			next.Scale = d.Scale
		}
	}

	if d.Mask.Has(wire.FieldSound) {
		r.resolveSound(sceneIndex, d)
	}
	if d.Mask.Has(wire.FieldModel) {
		name, ok := lookup(r.Tables.Models, d.ModelIndex)
		if !ok && d.ModelIndex >= 0 {
			r.Logger.Debug().Int("index", int(d.ModelIndex)).Msg("model precache index out of range")
		}
		r.Scene.ResolveModel(sceneIndex, name)
	}
	if d.Mask.Has(wire.FieldAnimation) {
		name, ok := lookup(r.Tables.Animations, d.AnimationIndex)
		if !ok && d.AnimationIndex >= 0 {
			r.Logger.Debug().Int("index", int(d.AnimationIndex)).Msg("animation precache index out of range")
		}
		r.Scene.ResolveAnimation(sceneIndex, name)
	}
	if d.Mask.Has(wire.FieldParticle) {
		name, ok := lookup(r.Tables.Particles, d.ParticleIndex)
		if !ok && d.ParticleIndex >= 0 {
			r.Logger.Debug().Int("index", int(d.ParticleIndex)).Msg("particle precache index out of range")
		}
		r.Scene.ResolveParticle(sceneIndex, name)
	}
	if d.HasBlob {
		next.Blob = d.Blob
	}

	r.Scene.Apply(sceneIndex, next)
}

func (r *Reconciler) resolveSound(sceneIndex int, d wire.Delta) {
	switch {
	case d.SoundIndex == wire.SoundNone:
		r.Scene.ResolveSound(sceneIndex, "", false, 0, 0)
	case d.SoundIndex < -1:
		idx := -(d.SoundIndex + 2)
		name, ok := lookup(r.Tables.Sounds, idx)
		if !ok {
			r.Logger.Debug().Int("index", int(idx)).Msg("2D sound precache index out of range")
			return
		}
		r.Scene.ResolveSound(sceneIndex, name, true, 0, 0)
	default:
		name, ok := lookup(r.Tables.Sounds, d.SoundIndex)
		if !ok {
			r.Logger.Debug().Int("index", int(d.SoundIndex)).Msg("3D sound precache index out of range")
			return
		}
		r.Scene.ResolveSound(sceneIndex, name, false, d.SoundRadius, 0.15*float32(d.SoundRadius))
	}
}

func (r *Reconciler) handleDeletion(id wire.NetworkId) {
	sceneIndex, known := r.indexOf[id]
	if !known {
		return
	}
	if pos, ok := r.slots.Find(slottable.Handle(id)); ok {
		r.slots.RemoveAt(pos)
	}
	delete(r.indexOf, id)
	delete(r.smooth, sceneIndex)
	r.Scene.Unregister(sceneIndex)
}

func lookup(list []string, idx int16) (string, bool) {
	if idx < 0 || int(idx) >= len(list) {
		return "", false
	}
	return list[idx], true
}
