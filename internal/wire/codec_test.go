package wire

import (
	"bytes"
	"math"
	"testing"
)

func decodeOne(t *testing.T, buf []byte, cfg CodecConfig) Delta {
	t.Helper()
	r := newReader(buf)
	d, err := DecodeObject(r, cfg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return d
}

func TestRoundTripFull(t *testing.T) {
	cfg := CodecConfig{PositionMode: ModeFull, OrientationMode: ModeFull, VelocityMode: ModeFull, ScaleMode: ModeFull}
	s := ObjectState{
		Position:       Vec3{1, 2, 3},
		Orientation:    Vec3{0.1, 0.2, 0.3},
		Scale:          Vec3{2, 2, 2},
		Velocity:       Vec3{10, 0, 0},
		ModelIndex:     5,
		AnimationIndex: 2,
		ParticleIndex:  1,
		SoundIndex:     -1,
	}
	buf := EncodeObject(nil, 7, s, nil, cfg)
	d := decodeOne(t, buf, cfg)

	if d.ID.Index() != 7 {
		t.Fatalf("index = %d", d.ID.Index())
	}
	if d.Position != s.Position || d.Orientation != s.Orientation || d.Scale != s.Scale || d.Velocity != s.Velocity {
		t.Fatalf("transform mismatch: %+v", d)
	}
	if d.ModelIndex != s.ModelIndex || d.AnimationIndex != s.AnimationIndex || d.ParticleIndex != s.ParticleIndex {
		t.Fatalf("index fields mismatch: %+v", d)
	}
}

func TestRoundTripHalfPrecision(t *testing.T) {
	cfg := CodecConfig{PositionMode: ModeHalf, OrientationMode: ModeHalf, VelocityMode: ModeHalf, ScaleMode: ModeHalf}
	s := ObjectState{Position: Vec3{123.5, -45.25, 0.125}, SoundIndex: -1}
	buf := EncodeObject(nil, 0, s, nil, cfg)
	d := decodeOne(t, buf, cfg)

	relErr := func(got, want float32) float64 {
		if want == 0 {
			return math.Abs(float64(got))
		}
		return math.Abs(float64(got-want) / float64(want))
	}
	if e := relErr(d.Position.X, s.Position.X); e > math.Pow(2, -10) {
		t.Fatalf("X relative error %v exceeds bound", e)
	}
	if e := relErr(d.Position.Y, s.Position.Y); e > math.Pow(2, -10) {
		t.Fatalf("Y relative error %v exceeds bound", e)
	}
}

func TestRoundTripCompressedDirection(t *testing.T) {
	cfg := CodecConfig{PositionMode: ModeFull, OrientationMode: ModeCompressed, VelocityMode: ModeCompressed, ScaleMode: ModeFull}
	s := ObjectState{Velocity: Vec3{100, 0, 0}, SoundIndex: -1}
	buf := EncodeObject(nil, 1, s, nil, cfg)
	d := decodeOne(t, buf, cfg)

	mag := sqrt32(d.Velocity.X*d.Velocity.X + d.Velocity.Y*d.Velocity.Y + d.Velocity.Z*d.Velocity.Z)
	if math.Abs(float64(mag-100)) > 1 {
		t.Fatalf("magnitude drifted too far: %v", mag)
	}
	// cos(7.5 degrees) ~ 0.9914; dot of unit vectors bounds the angular error.
	dot := (d.Velocity.X / mag) // original direction is exactly +X
	if float64(dot) < math.Cos(7.5*math.Pi/180) {
		t.Fatalf("direction error exceeds codebook bound: dot=%v", dot)
	}
}

func TestDeltaIdempotence(t *testing.T) {
	cfg := DefaultCodecConfig
	s := ObjectState{Position: Vec3{1, 2, 3}, SoundIndex: -1}
	buf := EncodeObject(nil, 3, s, &s, cfg)
	if len(buf) != 0 {
		t.Fatalf("expected 0 bytes for s==baseline, got %d", len(buf))
	}
}

func TestFieldMaskCompleteness(t *testing.T) {
	cfg := DefaultCodecConfig
	baseline := ObjectState{SoundIndex: -1}
	s := ObjectState{
		Position:       Vec3{1, 0, 0},
		Orientation:    Vec3{0, 1, 0},
		Scale:          Vec3{1, 1, 2},
		ModelIndex:     9,
		AnimationIndex: 1,
		ParticleIndex:  4,
		SoundIndex:     -1,
	}
	buf := EncodeObject(nil, 2, s, &baseline, cfg)
	d := decodeOne(t, buf, cfg)

	if !d.Mask.Has(FieldPosition) || !d.Mask.Has(FieldOrientation) || !d.Mask.Has(FieldScale) {
		t.Fatalf("expected transform bits set: %08b", d.Mask)
	}
	if !d.Mask.Has(FieldModel) || !d.Mask.Has(FieldAnimation) || !d.Mask.Has(FieldParticle) {
		t.Fatalf("expected precache bits set: %08b", d.Mask)
	}
	if d.Mask.Has(FieldVelocity) || d.Mask.Has(FieldSound) {
		t.Fatalf("unexpected bits set: %08b", d.Mask)
	}
}

func TestAttachedExclusionSizes(t *testing.T) {
	cfg := DefaultCodecConfig
	baseline := ObjectState{Attached: true, AttachedTo: NewNetworkId(4, 0), SoundIndex: -1}
	same := baseline
	buf := EncodeObject(nil, 1, same, &baseline, cfg)
	if len(buf) != 3 {
		t.Fatalf("attached+unchanged should be header-only 3 bytes, got %d", len(buf))
	}
	id := NetworkId(uint16(buf[0]) | uint16(buf[1])<<8)
	if id.Has(FlagIsAttached) {
		t.Fatalf("IS_ATTACHED must be cleared on an unchanged attach header")
	}

	changed := baseline
	changed.AttachedTo = NewNetworkId(9, 0)
	buf2 := EncodeObject(nil, 1, changed, &baseline, cfg)
	if len(buf2) != 5 {
		t.Fatalf("attach-id change should be 5 bytes, got %d", len(buf2))
	}
}

func TestVelocityPositionSuppression(t *testing.T) {
	cfg := DefaultCodecConfig
	baseline := ObjectState{Velocity: Vec3{10, 0, 0}, Position: Vec3{0, 0, 0}, SoundIndex: -1}
	cur := baseline
	cur.Position = Vec3{0.5, 0, 0} // drifted per dead reckoning, velocity unchanged
	buf := EncodeObject(nil, 0, cur, &baseline, cfg)
	if len(buf) != 0 {
		d := decodeOne(t, buf, cfg)
		if d.Mask.Has(FieldVelocity) || d.Mask.Has(FieldPosition) {
			t.Fatalf("expected neither velocity nor position sent, got mask %08b", d.Mask)
		}
	}
}

func TestSoundSignEncoding(t *testing.T) {
	cfg := DefaultCodecConfig
	s3d := ObjectState{SoundIndex: 4, SoundRadius: 20}
	buf := EncodeObject(nil, 0, s3d, nil, cfg)
	d := decodeOne(t, buf, cfg)
	if d.SoundIndex != 4 || d.SoundRadius != 20 {
		t.Fatalf("3D sound mismatch: %+v", d)
	}

	s2d := ObjectState{SoundIndex: -2} // index 0 as a 2D sound
	buf2 := EncodeObject(nil, 0, s2d, nil, cfg)
	d2 := decodeOne(t, buf2, cfg)
	if d2.SoundIndex != -2 {
		t.Fatalf("2D sound mismatch: %+v", d2)
	}
	decoded2DIndex := -(d2.SoundIndex + 2)
	if decoded2DIndex != 0 {
		t.Fatalf("expected 2D sound index 0, got %d", decoded2DIndex)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	cfg := DefaultCodecConfig
	s := ObjectState{SoundIndex: -1, Blob: bytes.Repeat([]byte{0xAB}, 37)}
	buf := EncodeObject(nil, 0, s, nil, cfg)
	d := decodeOne(t, buf, cfg)
	if !d.HasBlob || !bytes.Equal(d.Blob, s.Blob) {
		t.Fatalf("blob mismatch")
	}
}

func TestDirToByteZeroVectorIsZero(t *testing.T) {
	if DirToByte([3]float32{0, 0, 0}) != 0 {
		t.Fatalf("zero vector must encode to index 0")
	}
}

func TestNetworkIdPacking(t *testing.T) {
	id := NewNetworkId(4095, FlagIs2D|FlagHasBlob)
	if id.Index() != 4095 {
		t.Fatalf("index = %d", id.Index())
	}
	if !id.Has(FlagIs2D) || !id.Has(FlagHasBlob) || id.Has(FlagIsAttached) {
		t.Fatalf("flags wrong: %016b", id)
	}
}
