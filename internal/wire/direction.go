package wire

import "math"

// NumDirections is the size of the direction codebook used to quantize a
// 3D unit vector to a single byte ("Compressed" vector mode).
const NumDirections = 162

// directionTable is the codebook: directionTable[b] is the unit vector
// that byte b decodes to. Built deterministically with a golden-angle
// spiral rather than transcribing a literal 486-float table from memory
// — see DESIGN.md. This lattice is near-uniform but not optimal: the
// worst-case angle between a direction and its nearest codebook entry is
// about 12 degrees.
var directionTable [NumDirections][3]float32

func init() {
	// Fibonacci/golden-angle lattice: a standard, deterministic method for
	// distributing N points ~uniformly over a sphere.
	const goldenAngle = math.Pi * (3 - 2.2360679774997896 /* sqrt(5) */)
	n := NumDirections
	for i := 0; i < n; i++ {
		// y runs from +1 to -1, so index 0 is the +Y pole. The zero vector
		// has no direction; DirToByte maps it to index 0 explicitly.
		y := 1 - (float64(i)/float64(n-1))*2
		radius := math.Sqrt(math.Max(0, 1-y*y))
		theta := goldenAngle * float64(i)
		x := math.Cos(theta) * radius
		z := math.Sin(theta) * radius
		directionTable[i] = [3]float32{float32(x), float32(y), float32(z)}
	}
}

// ByteToDir looks up the unit vector for a codebook index.
func ByteToDir(b byte) [3]float32 {
	return directionTable[b]
}

// DirToByte returns the codebook index whose vector maximizes the dot
// product with v (nearest direction), ties resolved to the lowest index.
// Encoding the zero vector always yields index 0.
func DirToByte(v [3]float32) byte {
	if v[0] == 0 && v[1] == 0 && v[2] == 0 {
		return 0
	}
	best := 0
	bestDot := float32(math.Inf(-1))
	for i, d := range directionTable {
		dot := v[0]*d[0] + v[1]*d[1] + v[2]*d[2]
		if dot > bestDot {
			bestDot = dot
			best = i
		}
	}
	return byte(best)
}
