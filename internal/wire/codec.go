package wire

import "bytes"

// Delta is the decoded form of one object's wire record: the NetworkId,
// which fields were present, and their values. The reconciler applies
// only the fields the mask/flags mark present, leaving everything else
// on the client's existing object untouched.
type Delta struct {
	ID   NetworkId
	Mask FieldMask

	Is2D bool

	// Attached is true only when the header carried a fresh attach-id
	// (the attachment short-circuit in §4.A). It does not mean "this
	// object is attached" in steady state — an unchanged attachment
	// sends a header with IS_ATTACHED cleared and no attach-id, and the
	// client keeps its own prior attachment state.
	Attached bool
	AttachTo NetworkId

	HasBlob bool

	Velocity    Vec3
	Position    Vec3
	Orientation Vec3
	Scale       Vec3

	SoundIndex  int16
	SoundRadius uint8

	ModelIndex     int16
	AnimationIndex int16
	ParticleIndex  int16

	Blob []byte
}

func fallbackMode(mode VectorMode, is2D bool) VectorMode {
	if mode == ModeCompressed && is2D {
		return ModeHalf
	}
	return mode
}

func bytesEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// EncodeObject appends object index's delta against baseline to buf and
// returns the extended slice. baseline == nil means "no prior ack",
// triggering the first-transmission suppression rules (§4.A) instead of
// a baseline comparison. When baseline != nil and nothing changed, buf is
// returned unmodified (§8 property 2: idempotent delta is zero bytes),
// except for an attached object, which always gets at least its 3-byte
// header (§8 property 4: IS_ATTACHED cleared when the attach-id is
// unchanged).
func EncodeObject(buf []byte, index int, state ObjectState, baseline *ObjectState, cfg CodecConfig) []byte {
	cfg.validate()

	isAttachedNow := state.Attached
	attachChanged := isAttachedNow && (baseline == nil || !baseline.Attached || baseline.AttachedTo != state.AttachedTo)

	var mask FieldMask
	var velocitySent bool

	if !isAttachedNow {
		velChanged := changedVec(baseline == nil, state.Velocity, ZeroVec3, baseline, func(b *ObjectState) Vec3 { return b.Velocity })
		velocitySent = velChanged
		if velocitySent {
			mask |= FieldVelocity
		}

		hasNonZeroVel := !state.Velocity.Equal(ZeroVec3)
		var positionSent bool
		switch {
		case velocitySent:
			positionSent = true
		case hasNonZeroVel && baseline != nil:
			positionSent = false
		default:
			positionSent = changedVec(baseline == nil, state.Position, ZeroVec3, baseline, func(b *ObjectState) Vec3 { return b.Position })
		}
		if positionSent {
			mask |= FieldPosition
		}

		if changedVec(baseline == nil, state.Orientation, ZeroVec3, baseline, func(b *ObjectState) Vec3 { return b.Orientation }) {
			mask |= FieldOrientation
		}

		if changedVec(baseline == nil, state.Scale, IdentityScale, baseline, func(b *ObjectState) Vec3 { return b.Scale }) {
			mask |= FieldScale
		}
	}

	soundChanged := soundFieldChanged(state, baseline)
	if soundChanged {
		mask |= FieldSound
	}
	if changedIndex(state.ModelIndex, baseline, func(b *ObjectState) int16 { return b.ModelIndex }) {
		mask |= FieldModel
	}
	if changedIndex(state.AnimationIndex, baseline, func(b *ObjectState) int16 { return b.AnimationIndex }) {
		mask |= FieldAnimation
	}
	if changedIndex(state.ParticleIndex, baseline, func(b *ObjectState) int16 { return b.ParticleIndex }) {
		mask |= FieldParticle
	}

	blobChanged := blobFieldChanged(state, baseline)

	attachIDTransmit := isAttachedNow && attachChanged

	if baseline != nil && mask == 0 && !isAttachedNow && !blobChanged {
		return buf
	}

	var flags NetworkId
	if state.IsD2 {
		flags |= FlagIs2D
	}
	compressedActive := !state.IsD2 && cfg.OrientationMode == ModeCompressed
	if compressedActive {
		flags |= FlagCompressedOrientAndVel
	}
	if attachIDTransmit {
		flags |= FlagIsAttached
	}
	if blobChanged {
		flags |= FlagHasBlob
	}

	id := NewNetworkId(index, flags)
	buf = appendUint16(buf, uint16(id))
	buf = append(buf, byte(mask))

	if attachIDTransmit {
		buf = appendUint16(buf, uint16(state.AttachedTo))
	}

	if !isAttachedNow {
		velMode := cfg.VelocityMode
		oriMode := cfg.OrientationMode
		if compressedActive {
			velMode, oriMode = ModeCompressed, ModeCompressed
		}
		posMode := fallbackMode(cfg.PositionMode, state.IsD2)
		scaleMode := fallbackMode(cfg.ScaleMode, state.IsD2)
		velMode = fallbackMode(velMode, state.IsD2)
		oriMode = fallbackMode(oriMode, state.IsD2)

		if mask.Has(FieldVelocity) {
			buf = encodeVec3(buf, state.Velocity, velMode, state.IsD2)
		}
		if mask.Has(FieldPosition) {
			buf = encodeVec3(buf, state.Position, posMode, state.IsD2)
		}
		if mask.Has(FieldOrientation) {
			if state.IsD2 {
				buf = encodeScalar(buf, state.Orientation.Y, oriMode)
			} else {
				buf = encodeVec3(buf, state.Orientation, oriMode, false)
			}
		}
		if mask.Has(FieldScale) {
			buf = encodeVec3(buf, state.Scale, scaleMode, state.IsD2)
		}
	}

	if mask.Has(FieldSound) {
		buf = appendInt16(buf, state.SoundIndex)
		if state.SoundIndex >= 0 {
			buf = append(buf, state.SoundRadius)
		}
	}
	if mask.Has(FieldModel) {
		buf = appendInt16(buf, state.ModelIndex)
	}
	if mask.Has(FieldAnimation) {
		buf = appendInt16(buf, state.AnimationIndex)
	}
	if mask.Has(FieldParticle) {
		buf = appendInt16(buf, state.ParticleIndex)
	}
	if blobChanged {
		buf = append(buf, byte(len(state.Blob)))
		buf = append(buf, state.Blob...)
	}

	return buf
}

// DecodeObject reads one object record from r.
func DecodeObject(r *reader, cfg CodecConfig) (Delta, error) {
	idRaw, err := r.uint16()
	if err != nil {
		return Delta{}, err
	}
	id := NetworkId(idRaw)
	maskByte, err := r.byte()
	if err != nil {
		return Delta{}, err
	}
	mask := FieldMask(maskByte)

	is2D := id.Has(FlagIs2D)
	compressedActive := id.Has(FlagCompressedOrientAndVel)

	d := Delta{ID: id, Mask: mask, Is2D: is2D, HasBlob: id.Has(FlagHasBlob)}

	if id.Has(FlagIsAttached) {
		raw, err := r.uint16()
		if err != nil {
			return Delta{}, err
		}
		d.Attached = true
		d.AttachTo = NetworkId(raw)
	}

	velMode := cfg.VelocityMode
	oriMode := cfg.OrientationMode
	if compressedActive {
		velMode, oriMode = ModeCompressed, ModeCompressed
	}
	posMode := fallbackMode(cfg.PositionMode, is2D)
	scaleMode := fallbackMode(cfg.ScaleMode, is2D)
	velMode = fallbackMode(velMode, is2D)
	oriMode = fallbackMode(oriMode, is2D)

	if mask.Has(FieldVelocity) {
		v, err := decodeVec3(r, velMode, is2D)
		if err != nil {
			return Delta{}, err
		}
		d.Velocity = v
	}
	if mask.Has(FieldPosition) {
		v, err := decodeVec3(r, posMode, is2D)
		if err != nil {
			return Delta{}, err
		}
		d.Position = v
	}
	if mask.Has(FieldOrientation) {
		if is2D {
			y, err := decodeScalar(r, oriMode)
			if err != nil {
				return Delta{}, err
			}
			d.Orientation = Vec3{Y: y}
		} else {
			v, err := decodeVec3(r, oriMode, false)
			if err != nil {
				return Delta{}, err
			}
			d.Orientation = v
		}
	}
	if mask.Has(FieldScale) {
		v, err := decodeVec3(r, scaleMode, is2D)
		if err != nil {
			return Delta{}, err
		}
		d.Scale = v
	}
	if mask.Has(FieldSound) {
		idx, err := r.int16()
		if err != nil {
			return Delta{}, err
		}
		d.SoundIndex = idx
		if idx >= 0 {
			radius, err := r.byte()
			if err != nil {
				return Delta{}, err
			}
			d.SoundRadius = radius
		}
	}
	if mask.Has(FieldModel) {
		v, err := r.int16()
		if err != nil {
			return Delta{}, err
		}
		d.ModelIndex = v
	}
	if mask.Has(FieldAnimation) {
		v, err := r.int16()
		if err != nil {
			return Delta{}, err
		}
		d.AnimationIndex = v
	}
	if mask.Has(FieldParticle) {
		v, err := r.int16()
		if err != nil {
			return Delta{}, err
		}
		d.ParticleIndex = v
	}
	if d.HasBlob {
		n, err := r.byte()
		if err != nil {
			return Delta{}, err
		}
		b, err := r.bytes(int(n))
		if err != nil {
			return Delta{}, err
		}
		d.Blob = append([]byte(nil), b...)
	}

	return d, nil
}

// NewReader exposes the internal buffer reader to the session/replicator
// packages that frame multiple object records plus deletion lists into
// one datagram.
func NewReader(b []byte) *reader { return newReader(b) }

func changedVec(noBaseline bool, cur, neutral Vec3, baseline *ObjectState, get func(*ObjectState) Vec3) bool {
	if noBaseline {
		return !cur.Equal(neutral)
	}
	return !cur.Equal(get(baseline))
}

func changedIndex(cur int16, baseline *ObjectState, get func(*ObjectState) int16) bool {
	if baseline == nil {
		return cur != NoIndex
	}
	return cur != get(baseline)
}

func soundFieldChanged(state ObjectState, baseline *ObjectState) bool {
	if baseline == nil {
		return state.SoundIndex != SoundNone
	}
	if state.SoundIndex != baseline.SoundIndex {
		return true
	}
	return state.SoundIndex >= 0 && state.SoundRadius != baseline.SoundRadius
}

func blobFieldChanged(state ObjectState, baseline *ObjectState) bool {
	if baseline == nil {
		return len(state.Blob) > 0
	}
	return !bytesEqual(state.Blob, baseline.Blob)
}

func encodeScalar(buf []byte, v float32, mode VectorMode) []byte {
	switch mode {
	case ModeFull:
		return appendFloat32(buf, v)
	case ModeHalf:
		return appendUint16(buf, float16ToBits(v))
	default:
		panic("wire: scalar fields only support Full/Half")
	}
}

func decodeScalar(r *reader, mode VectorMode) (float32, error) {
	switch mode {
	case ModeFull:
		return r.float32()
	case ModeHalf:
		bits, err := r.uint16()
		if err != nil {
			return 0, err
		}
		return bitsToFloat16(bits), nil
	default:
		return 0, nil
	}
}
