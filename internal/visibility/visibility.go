// Package visibility implements per-client frustum and sound-radius
// culling (spec §4.D): the server-side decision of whether a given
// object is worth spending datagram bytes on for a given client this
// tick.
package visibility

import (
	"math"

	"odin-replicator/internal/wire"
)

const (
	halfHorizontalFOV = 45 * math.Pi / 180 // 90 degrees total
	halfVerticalFOV   = 35 * math.Pi / 180 // 70 degrees total

	// pointRadiusThreshold: objects at or under this view radius use the
	// cheaper point-in-frustum test instead of sphere-in-frustum (§4.D).
	pointRadiusThreshold = 1.0
)

// Viewer is the minimal per-client state visibility needs: where they are
// and which way they are looking. Orientation arrives as an Euler vector
// per §3/§4.G input packets; Forward is derived from it by the caller
// (the session/replicator layer owns that conversion since it also needs
// the raw orientation for other purposes).
type Viewer struct {
	Position wire.Vec3
	Forward  wire.Vec3 // must be unit length
}

func sub(a, b wire.Vec3) wire.Vec3 {
	return wire.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func dot(a, b wire.Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func cross(a, b wire.Vec3) wire.Vec3 {
	return wire.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func length(v wire.Vec3) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

func normalize(v wire.Vec3) wire.Vec3 {
	l := length(v)
	if l == 0 {
		return v
	}
	return wire.Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// EulerYawToForward derives a forward unit vector from a yaw-only Euler
// orientation (Y component, radians) — the common case for both 2D
// objects and players whose client reports orientation this way.
func EulerYawToForward(orientation wire.Vec3) wire.Vec3 {
	yaw := float64(orientation.Y)
	return wire.Vec3{X: float32(math.Sin(yaw)), Y: 0, Z: float32(math.Cos(yaw))}
}

// SoundAudible reports whether state plays a sound that makes it audible
// to a listener at listenerPos regardless of the frustum test — §4.D's
// "plays a sound and the client is within the sound radius" rule.
// 2D sounds (SoundIndex < -1) are not positional and are always audible
// by this rule; the frustum test below is skipped for them by the caller.
func SoundAudible(state wire.ObjectState, listenerPos wire.Vec3) bool {
	switch {
	case state.SoundIndex == wire.SoundNone:
		return false
	case state.SoundIndex < -1:
		return true
	default:
		dist := length(sub(state.Position, listenerPos))
		return dist <= float32(state.SoundRadius)
	}
}

// InFrustum reports whether a bounding sphere at pos with the given
// radius intersects the viewer's 90x70 degree frustum, using the cheap
// point test for radius <= 1 and full sphere-vs-frustum otherwise.
func InFrustum(v Viewer, pos wire.Vec3, radius float32) bool {
	to := sub(pos, v.Position)
	dist := length(to)
	if dist == 0 {
		return true
	}
	dir := wire.Vec3{X: to.X / dist, Y: to.Y / dist, Z: to.Z / dist}

	forward := normalize(v.Forward)
	if dot(forward, dir) <= 0 {
		return false // behind-the-viewer early-out
	}

	up := wire.Vec3{X: 0, Y: 1, Z: 0}
	right := normalize(cross(up, forward))
	trueUp := cross(forward, right)

	horizontal := math.Atan2(float64(dot(dir, right)), float64(dot(dir, forward)))
	vertical := math.Atan2(float64(dot(dir, trueUp)), float64(dot(dir, forward)))

	if radius <= pointRadiusThreshold {
		return math.Abs(horizontal) <= halfHorizontalFOV && math.Abs(vertical) <= halfVerticalFOV
	}

	angularRadius := math.Asin(math.Min(1, float64(radius)/float64(dist)))
	return math.Abs(horizontal)-angularRadius <= halfHorizontalFOV &&
		math.Abs(vertical)-angularRadius <= halfVerticalFOV
}

// Visible decides transmit/skip for one object against one client this
// tick. ownIndex is the client's in-game object slot (never sent to
// itself); bootstrap disables culling entirely (§4.D: "On the initial
// snapshot, visibility culling is DISABLED").
func Visible(v Viewer, objIndex int, ownIndex int, state wire.ObjectState, bootstrap bool) bool {
	if objIndex == ownIndex {
		return false
	}
	if bootstrap {
		return true
	}
	if SoundAudible(state, v.Position) {
		return true
	}
	return InFrustum(v, state.Position, state.ViewRadius)
}
