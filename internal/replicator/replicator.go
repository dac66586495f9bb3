// Package replicator implements the authoritative server side of
// snapshot replication (§4.E): each tick it samples the scene, stores a
// snapshot, and builds one delta-compressed datagram per client against
// that client's last acknowledged baseline.
package replicator

import (
	"net"

	"odin-replicator/internal/metrics"
	"odin-replicator/internal/scene"
	"odin-replicator/internal/session"
	"odin-replicator/internal/snapshot"
	"odin-replicator/internal/transport"
	"odin-replicator/internal/visibility"
	"odin-replicator/internal/wire"

	"github.com/rs/zerolog"
)

// Sender is the subset of the unreliable transport the replicator needs,
// narrowed for testability (see replicator_test.go, which fakes it).
type Sender interface {
	Send(addr net.Addr, payload []byte) error
}

type Replicator struct {
	Store       *snapshot.Store
	Hub         *session.Hub
	Scene       scene.Adapter
	Codec       wire.CodecConfig
	MaxDatagram int
	Logger      zerolog.Logger
	Metrics     *metrics.Registry
}

func New(store *snapshot.Store, hub *session.Hub, sc scene.Adapter, codec wire.CodecConfig, maxDatagram int, logger zerolog.Logger, metricsRegistry *metrics.Registry) *Replicator {
	if maxDatagram <= 0 || maxDatagram > transport.MaxDatagramBytes {
		maxDatagram = transport.MaxDatagramBytes
	}
	return &Replicator{
		Store:       store,
		Hub:         hub,
		Scene:       sc,
		Codec:       codec,
		MaxDatagram: maxDatagram,
		Logger:      logger,
		Metrics:     metricsRegistry,
	}
}

// Tick samples the scene into a new snapshot, appends it to the store,
// sends each client its per-baseline delta datagram, and GCs the store.
// deleted carries indices destroyed since the previous tick (the host is
// responsible for tracking destruction, since the scene adapter has no
// "since last tick" memory of its own).
func (r *Replicator) Tick(frame uint32, deleted []wire.NetworkId, send Sender) {
	snap := r.sampleSnapshot(frame, deleted)
	r.Store.Append(snap)
	if r.Metrics != nil {
		r.Metrics.SnapshotsStored.Set(float64(r.Store.Len()))
		r.Metrics.ActiveObjects.Set(float64(len(snap.Objects)))
	}

	r.Hub.Range(func(c *session.Client) {
		if !c.Cursor.ReadyForGame || c.UnreliableAddr == nil {
			return
		}
		payload := r.buildDatagram(c, snap)
		if len(payload) == 0 {
			return
		}
		if err := send.Send(c.UnreliableAddr, payload); err != nil {
			r.Logger.Debug().Err(err).Uint64("client", c.ID).Msg("datagram send failed")
			if r.Metrics != nil {
				r.Metrics.DroppedDatagrams.Inc()
			}
		}
		if r.Metrics != nil {
			r.Metrics.DatagramBytes.Observe(float64(len(payload)))
		}
	})

	if minAcked, ok := r.Hub.MinAckedFrame(); ok {
		r.Store.GC(minAcked)
		if r.Metrics != nil {
			r.Metrics.SnapshotGCTotal.Inc()
		}
	}
}

func (r *Replicator) sampleSnapshot(frame uint32, deleted []wire.NetworkId) *snapshot.Snapshot {
	indices := r.Scene.Objects()
	objects := make([]snapshot.Object, 0, len(indices))
	for _, idx := range indices {
		state, ok := r.Scene.Sample(idx)
		if !ok {
			continue
		}
		objects = append(objects, snapshot.Object{Index: idx, State: state})
	}
	return &snapshot.Snapshot{Frame: frame, Objects: objects, Deleted: deleted}
}

// buildDatagram writes the per-client payload: frame index, a reserved
// object count, visible object deltas up to MaxDatagram bytes, then the
// deletion list. Objects that don't fit are deferred (simply left out of
// this tick's datagram; they reappear next tick since Sample still
// reports their current state against the same or a newer baseline).
func (r *Replicator) buildDatagram(c *session.Client, snap *snapshot.Snapshot) []byte {
	baseline := c.Cursor.Baseline(r.Store)

	viewer, ownIndex, haveViewer := r.viewerFor(c)
	bootstrap := !c.Cursor.HasAcked

	buf := make([]byte, 0, r.MaxDatagram)
	buf = append(buf, session.PacketSnapshot)
	buf = appendU24(buf, snap.Frame)
	countPos := len(buf)
	buf = append(buf, 0, 0) // object count placeholder, patched below

	// The deletion list written after the objects must fit as well, so the
	// object loop stops short of the room it needs (a 2-byte count plus 2
	// bytes per id).
	pending := snap.Deleted
	if c.Cursor.HasAcked {
		pending = r.Store.DeletionsSince(c.Cursor.LastAckedFrame, snap.Frame)
	}
	reserve := 2 + 2*len(pending)

	count := 0
	deferred := 0
	for _, obj := range snap.Objects {
		if haveViewer && obj.Index == ownIndex {
			continue
		}
		if haveViewer && !visibility.Visible(viewer, obj.Index, ownIndex, obj.State, bootstrap) {
			continue
		}

		var baselineState *wire.ObjectState
		if baseline != nil {
			baselineState = baseline.Lookup(obj.Index)
		}

		candidate := wire.EncodeObject(nil, obj.Index, obj.State, baselineState, r.Codec)
		if len(candidate) == 0 {
			continue // unchanged against baseline, nothing to send
		}
		if len(buf)+len(candidate) > r.MaxDatagram-reserve {
			deferred++
			continue
		}
		buf = append(buf, candidate...)
		count++
	}
	buf[countPos] = byte(count)
	buf[countPos+1] = byte(count >> 8)

	// Deletions must cover every frame since the client's last ack, not
	// just this tick's, so one lost datagram doesn't permanently drop a
	// deletion (§4.E step 3, §3 invariant 5).
	var deletions []wire.NetworkId
	if c.Cursor.HasAcked {
		deletions = r.Store.DeletionsSince(c.Cursor.LastAckedFrame, snap.Frame)
	} else {
		deletions = snap.Deleted
	}
	buf = appendU16(buf, uint16(len(deletions)))
	for _, id := range deletions {
		buf = appendU16(buf, uint16(id))
	}

	if deferred > 0 && r.Metrics != nil {
		r.Metrics.ObjectsDeferred.Add(float64(deferred))
	}
	if r.Metrics != nil {
		r.Metrics.ObjectsPerTick.Observe(float64(count))
		if baseline == nil {
			r.Metrics.FullBaselineSend.Inc()
		}
	}
	return buf
}

func (r *Replicator) viewerFor(c *session.Client) (visibility.Viewer, int, bool) {
	if c.Cursor.InGameObjectID < 0 {
		return visibility.Viewer{}, -1, false
	}
	state, ok := r.Scene.Sample(c.Cursor.InGameObjectID)
	if !ok {
		return visibility.Viewer{}, -1, false
	}
	return visibility.Viewer{
		Position: state.Position,
		Forward:  visibility.EulerYawToForward(state.Orientation),
	}, c.Cursor.InGameObjectID, true
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU24(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16))
}
