package visibility

import (
	"testing"

	"odin-replicator/internal/wire"
)

func TestOwnObjectNeverVisible(t *testing.T) {
	v := Viewer{Position: wire.Vec3{}, Forward: wire.Vec3{Z: 1}}
	if Visible(v, 3, 3, wire.ObjectState{SoundIndex: wire.SoundNone}, false) {
		t.Fatalf("client's own object must never be visible to itself")
	}
}

func TestBootstrapDisablesCulling(t *testing.T) {
	v := Viewer{Position: wire.Vec3{}, Forward: wire.Vec3{Z: 1}}
	behind := wire.ObjectState{Position: wire.Vec3{Z: -100}, SoundIndex: wire.SoundNone}
	if !Visible(v, 1, 0, behind, true) {
		t.Fatalf("bootstrap snapshot must disable visibility culling")
	}
}

func TestOutsideFrustumAndSoundIsSkipped(t *testing.T) {
	v := Viewer{Position: wire.Vec3{}, Forward: wire.Vec3{Z: 1}}
	behind := wire.ObjectState{Position: wire.Vec3{Z: -100}, ViewRadius: 1, SoundIndex: wire.SoundNone}
	if Visible(v, 1, 0, behind, false) {
		t.Fatalf("object behind viewer with no sound should not transmit")
	}
}

func TestSoundOverridesFrustum(t *testing.T) {
	v := Viewer{Position: wire.Vec3{}, Forward: wire.Vec3{Z: 1}}
	behindButLoud := wire.ObjectState{
		Position:    wire.Vec3{Z: -5},
		ViewRadius:  1,
		SoundIndex:  2,
		SoundRadius: 20,
	}
	if !Visible(v, 1, 0, behindButLoud, false) {
		t.Fatalf("object within sound radius must transmit even if out of frustum")
	}
}

func TestInFrontWithinFOVIsVisible(t *testing.T) {
	v := Viewer{Position: wire.Vec3{}, Forward: wire.Vec3{Z: 1}}
	ahead := wire.ObjectState{Position: wire.Vec3{Z: 10}, ViewRadius: 0.5, SoundIndex: wire.SoundNone}
	if !Visible(v, 1, 0, ahead, false) {
		t.Fatalf("object straight ahead within FOV should be visible")
	}
}

func Test2DSoundAlwaysAudible(t *testing.T) {
	state := wire.ObjectState{SoundIndex: -2, Position: wire.Vec3{X: 9999}}
	if !SoundAudible(state, wire.Vec3{}) {
		t.Fatalf("2D sounds are not positional and should always be audible")
	}
}
