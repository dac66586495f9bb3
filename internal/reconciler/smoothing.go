package reconciler

import (
	"math"

	"odin-replicator/internal/wire"
)

// smoothState tracks one object's in-flight transform interpolation
// (§4.F "Client-side position smoothing"). Each field is independent:
// a position correction and an orientation correction can be mid-flight
// at the same time with different progress.
type smoothState struct {
	posActive  bool
	posFrom    wire.Vec3
	posTo      wire.Vec3
	posElapsed float64

	oriActive  bool
	oriFrom    wire.Vec3
	oriTo      wire.Vec3
	oriElapsed float64

	scaleActive  bool
	scaleFrom    wire.Vec3
	scaleTo      wire.Vec3
	scaleElapsed float64
}

func (r *Reconciler) stateFor(sceneIndex int) *smoothState {
	s, ok := r.smooth[sceneIndex]
	if !ok {
		s = &smoothState{}
		r.smooth[sceneIndex] = s
	}
	return s
}

func (r *Reconciler) startPositionSmooth(sceneIndex int, from, to wire.Vec3, snap bool) {
	s := r.stateFor(sceneIndex)
	if snap || distance(from, to) <= r.Epsilon {
		s.posActive = false
		return
	}
	s.posFrom, s.posTo, s.posElapsed, s.posActive = from, to, 0, true
}

func (r *Reconciler) startOrientationSmooth(sceneIndex int, from, to wire.Vec3, snap bool) {
	s := r.stateFor(sceneIndex)
	if snap || distance(from, to) <= r.Epsilon {
		s.oriActive = false
		return
	}
	s.oriFrom, s.oriTo, s.oriElapsed, s.oriActive = from, to, 0, true
}

func (r *Reconciler) startScaleSmooth(sceneIndex int, from, to wire.Vec3, snap bool) {
	s := r.stateFor(sceneIndex)
	if snap || distance(from, to) <= r.Epsilon {
		s.scaleActive = false
		return
	}
	s.scaleFrom, s.scaleTo, s.scaleElapsed, s.scaleActive = from, to, 0, true
}

// Tick advances every active smoothing interval by dt seconds and writes
// the interpolated transform back to the scene. Call this every client
// frame, independent of datagram arrival.
func (r *Reconciler) Tick(dt float64) {
	windowSeconds := r.Window.Seconds()
	if windowSeconds <= 0 {
		windowSeconds = 0.1
	}
	for sceneIndex, s := range r.smooth {
		if !s.posActive && !s.oriActive && !s.scaleActive {
			continue
		}
		state, ok := r.Scene.Sample(sceneIndex)
		if !ok {
			delete(r.smooth, sceneIndex)
			continue
		}
		if state.Attached {
			// Attached objects bypass interpolation; transform comes
			// from the parent.
			s.posActive, s.oriActive, s.scaleActive = false, false, false
			continue
		}

		if s.posActive {
			// Advance both endpoints by velocity so the interpolation
			// doesn't fight dead-reckoning while it's in flight.
			step := scaleVec(state.Velocity, float32(dt))
			s.posFrom = addVec(s.posFrom, step)
			s.posTo = addVec(s.posTo, step)
			s.posElapsed += dt
			t := clamp01(s.posElapsed / windowSeconds)
			state.Position = lerpVec(s.posFrom, s.posTo, t)
			if t >= 1 {
				s.posActive = false
			}
		}
		if s.oriActive {
			s.oriElapsed += dt
			t := clamp01(s.oriElapsed / windowSeconds)
			state.Orientation = lerpAngleVec(s.oriFrom, s.oriTo, t)
			if t >= 1 {
				s.oriActive = false
			}
		}
		if s.scaleActive {
			s.scaleElapsed += dt
			t := clamp01(s.scaleElapsed / windowSeconds)
			state.Scale = lerpVec(s.scaleFrom, s.scaleTo, t)
			if t >= 1 {
				s.scaleActive = false
			}
		}

		r.Scene.Apply(sceneIndex, state)
	}
}

func distance(a, b wire.Vec3) float32 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

func addVec(a, b wire.Vec3) wire.Vec3 {
	return wire.Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func scaleVec(v wire.Vec3, s float32) wire.Vec3 {
	return wire.Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func lerpVec(a, b wire.Vec3, t float64) wire.Vec3 {
	tf := float32(t)
	return wire.Vec3{
		X: a.X + (b.X-a.X)*tf,
		Y: a.Y + (b.Y-a.Y)*tf,
		Z: a.Z + (b.Z-a.Z)*tf,
	}
}

func lerpAngleVec(a, b wire.Vec3, t float64) wire.Vec3 {
	return wire.Vec3{
		X: lerpAngle(a.X, b.X, t),
		Y: lerpAngle(a.Y, b.Y, t),
		Z: lerpAngle(a.Z, b.Z, t),
	}
}

// lerpAngle interpolates two angles (radians) along the shorter arc,
// wrapping the result to [-pi, pi] (§4.F "angle-aware lerp").
func lerpAngle(a, b float32, t float64) float32 {
	diff := wrapPi(b - a)
	return wrapPi(a + diff*float32(t))
}

func wrapPi(a float32) float32 {
	const pi = math.Pi
	for a > pi {
		a -= 2 * pi
	}
	for a < -pi {
		a += 2 * pi
	}
	return a
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
