package reconciler

import (
	"testing"
	"time"

	"odin-replicator/internal/scene"
	"odin-replicator/internal/wire"

	"github.com/rs/zerolog"
)

func newTestReconciler() (*Reconciler, *scene.Reference) {
	ref := scene.NewReference()
	r := New(ref, wire.DefaultCodecConfig, Precache{
		Sounds:     []string{"boom"},
		Models:     []string{"crate"},
		Animations: []string{"idle"},
		Particles:  []string{"spark"},
	}, 100*time.Millisecond, 0.01, zerolog.Nop(), nil)
	return r, ref
}

func buildSnapshotPayload(t *testing.T, frame uint32, objs []struct {
	index int
	state wire.ObjectState
}) []byte {
	t.Helper()
	buf := []byte{}
	buf = append(buf, byte(frame), byte(frame>>8), byte(frame>>16))
	buf = append(buf, byte(len(objs)), byte(len(objs)>>8))
	for _, o := range objs {
		buf = wire.EncodeObject(buf, o.index, o.state, nil, wire.DefaultCodecConfig)
	}
	buf = append(buf, 0, 0) // no deletions
	return buf
}

func TestApplyDatagramSpawnsNewObject(t *testing.T) {
	r, ref := newTestReconciler()
	payload := buildSnapshotPayload(t, 1, []struct {
		index int
		state wire.ObjectState
	}{
		{index: 0, state: wire.ObjectState{Position: wire.Vec3{X: 1, Y: 2, Z: 3}, Scale: wire.IdentityScale, ModelIndex: 0, AnimationIndex: -1, ParticleIndex: -1, SoundIndex: -1}},
	})

	frame, err := r.ApplyDatagram(payload)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if frame != 1 {
		t.Fatalf("expected frame 1, got %d", frame)
	}
	if len(ref.Objects()) != 1 {
		t.Fatalf("expected 1 object, got %d", len(ref.Objects()))
	}
}

func TestApplyDatagramStaleFrameIgnored(t *testing.T) {
	r, _ := newTestReconciler()
	p1 := buildSnapshotPayload(t, 5, nil)
	if _, err := r.ApplyDatagram(p1); err != nil {
		t.Fatalf("apply p1: %v", err)
	}
	p0 := buildSnapshotPayload(t, 3, nil)
	frame, err := r.ApplyDatagram(p0)
	if err != nil {
		t.Fatalf("apply p0: %v", err)
	}
	if frame != 3 {
		t.Fatalf("expected decoded frame 3, got %d", frame)
	}
	if r.lastFrame != 5 {
		t.Fatalf("stale frame must not move lastFrame: got %d", r.lastFrame)
	}
}

func TestApplyDatagramResolvesModelAndSoundByIndex(t *testing.T) {
	r, ref := newTestReconciler()
	payload := buildSnapshotPayload(t, 1, []struct {
		index int
		state wire.ObjectState
	}{
		{index: 0, state: wire.ObjectState{Position: wire.Vec3{X: 1}, Scale: wire.IdentityScale, ModelIndex: 0, AnimationIndex: -1, ParticleIndex: -1, SoundIndex: 0}},
	})
	if _, err := r.ApplyDatagram(payload); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := ref.ModelOf(0); got != "crate" {
		t.Fatalf("expected model %q, got %q", "crate", got)
	}
	if got := ref.SoundOf(0); got != "boom" {
		t.Fatalf("expected sound %q, got %q", "boom", got)
	}
}

func TestPositionSmoothingConverges(t *testing.T) {
	r, ref := newTestReconciler()
	ref.Add(0, false, wire.ObjectState{Position: wire.ZeroVec3, Scale: wire.IdentityScale, ModelIndex: -1, AnimationIndex: -1, ParticleIndex: -1, SoundIndex: -1})
	r.indexOf[wire.NewNetworkId(0, 0)] = 0

	target := wire.ObjectState{Position: wire.Vec3{X: 10}, Scale: wire.IdentityScale, ModelIndex: -1, AnimationIndex: -1, ParticleIndex: -1, SoundIndex: -1}
	payload := buildSnapshotPayload(t, 1, []struct {
		index int
		state wire.ObjectState
	}{{index: 0, state: target}})
	if _, err := r.ApplyDatagram(payload); err != nil {
		t.Fatalf("apply: %v", err)
	}

	for i := 0; i < 20; i++ {
		r.Tick(0.01)
	}
	got, _ := ref.Sample(0)
	if got.Position.X < 9.9 {
		t.Fatalf("expected smoothing to have converged near 10, got %v", got.Position.X)
	}
}
