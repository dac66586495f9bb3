package wire

import "fmt"

func encodeVec3(buf []byte, v Vec3, mode VectorMode, is2D bool) []byte {
	switch mode {
	case ModeFull:
		buf = appendFloat32(buf, v.X)
		buf = appendFloat32(buf, v.Y)
		if !is2D {
			buf = appendFloat32(buf, v.Z)
		}
	case ModeHalf:
		buf = appendUint16(buf, float16ToBits(v.X))
		buf = appendUint16(buf, float16ToBits(v.Y))
		if !is2D {
			buf = appendUint16(buf, float16ToBits(v.Z))
		}
	case ModeCompressed:
		if is2D {
			panic("wire: compressed mode is 3D-only")
		}
		mag := vecLen(v)
		var dir [3]float32
		if mag != 0 {
			dir = [3]float32{v.X / mag, v.Y / mag, v.Z / mag}
		}
		buf = appendUint16(buf, float16ToBits(mag))
		buf = append(buf, DirToByte(dir))
	default:
		panic("wire: unknown vector mode")
	}
	return buf
}

func decodeVec3(r *reader, mode VectorMode, is2D bool) (Vec3, error) {
	switch mode {
	case ModeFull:
		x, err := r.float32()
		if err != nil {
			return Vec3{}, err
		}
		y, err := r.float32()
		if err != nil {
			return Vec3{}, err
		}
		if is2D {
			return Vec3{X: x, Y: y}, nil
		}
		z, err := r.float32()
		if err != nil {
			return Vec3{}, err
		}
		return Vec3{X: x, Y: y, Z: z}, nil
	case ModeHalf:
		x, err := r.uint16()
		if err != nil {
			return Vec3{}, err
		}
		y, err := r.uint16()
		if err != nil {
			return Vec3{}, err
		}
		if is2D {
			return Vec3{X: bitsToFloat16(x), Y: bitsToFloat16(y)}, nil
		}
		z, err := r.uint16()
		if err != nil {
			return Vec3{}, err
		}
		return Vec3{X: bitsToFloat16(x), Y: bitsToFloat16(y), Z: bitsToFloat16(z)}, nil
	case ModeCompressed:
		if is2D {
			return Vec3{}, fmt.Errorf("wire: compressed mode is 3D-only")
		}
		magBits, err := r.uint16()
		if err != nil {
			return Vec3{}, err
		}
		dirByte, err := r.byte()
		if err != nil {
			return Vec3{}, err
		}
		mag := bitsToFloat16(magBits)
		dir := ByteToDir(dirByte)
		return Vec3{X: dir[0] * mag, Y: dir[1] * mag, Z: dir[2] * mag}, nil
	}
	return Vec3{}, fmt.Errorf("wire: unknown vector mode %d", mode)
}

func vecLen(v Vec3) float32 {
	return sqrt32(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
