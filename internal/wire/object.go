package wire

// Vec3 is a plain 3D float vector. 2D objects use X/Y and zero Z, except
// orientation where 2D objects store only a rotation angle in Y.
type Vec3 struct {
	X, Y, Z float32
}

var ZeroVec3 = Vec3{}

// IdentityScale is the default, "unset" scale value.
var IdentityScale = Vec3{X: 1, Y: 1, Z: 1}

// NoIndex marks an absent precache reference (model/animation/particle).
const NoIndex int16 = -1

// SoundNone marks "no sound playing" for ObjectState.SoundIndex.
const SoundNone int16 = -1

// ObjectState is one replicated object's state for a single frame.
type ObjectState struct {
	Position    Vec3
	Orientation Vec3
	Scale       Vec3
	Velocity    Vec3

	ModelIndex     int16
	AnimationIndex int16
	ParticleIndex  int16

	// SoundIndex follows §3's sign encoding: -1 none, >=0 a 3D sound index
	// (SoundRadius meaningful), < -1 a 2D sound index -(SoundIndex+2).
	SoundIndex  int16
	SoundRadius uint8

	ViewRadius float32

	// AttachedTo is the parent's NetworkId when this object copies another
	// object's transform instead of carrying its own. Zero value is not a
	// valid sentinel (index 0 is a legal object); Attached must be checked.
	Attached   bool
	AttachedTo NetworkId

	Blob []byte

	IsD2 bool
}

// FieldMask is the 8-bit per-frame field presence byte (object header
// byte 2). Bit order follows the strict serialization order in §4.A.
type FieldMask uint8

const (
	FieldVelocity FieldMask = 1 << iota
	FieldPosition
	FieldOrientation
	FieldScale
	FieldSound
	FieldModel
	FieldAnimation
	FieldParticle
)

func (m FieldMask) Has(f FieldMask) bool { return m&f != 0 }

// VectorMode selects the on-wire representation for a vector-valued field.
type VectorMode uint8

const (
	ModeFull VectorMode = iota
	ModeHalf
	ModeCompressed
)

// CodecConfig pins the vector compression mode per field for a session.
// Position and scale may never use ModeCompressed (§4.A).
type CodecConfig struct {
	PositionMode    VectorMode
	OrientationMode VectorMode
	VelocityMode    VectorMode
	ScaleMode       VectorMode
}

// DefaultCodecConfig is the "ship the cheapest thing that still looks
// right" default: half floats for everything transform-ish, full
// precision position (players are sensitive to positional jitter).
var DefaultCodecConfig = CodecConfig{
	PositionMode:    ModeFull,
	OrientationMode: ModeHalf,
	VelocityMode:    ModeHalf,
	ScaleMode:       ModeHalf,
}

func (c CodecConfig) validate() {
	if c.PositionMode == ModeCompressed || c.ScaleMode == ModeCompressed {
		panic("wire: position and scale may not use ModeCompressed")
	}
}

// Equal reports componentwise float equality (no epsilon, per §4.A: a
// "changed" comparison is strict since values originate from scene
// mutations and spurious resends are acceptable).
func (v Vec3) Equal(o Vec3) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}
