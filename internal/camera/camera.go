// Package camera implements the engine's camera transform pipeline
// (spec.md §4.D): position/rotation/optics/frustum, producing the
// projection parameters every sprite consults each frame. Grounded on
// original_source/source/camera/Camera.c — a transformation-flags byte that
// tracks which derived quantities (projection, scale, rotation) a
// positional/Z/rotational delta invalidates, so sprites only recompute their
// projected screen position when something actually changed.
package camera

import "vb-engine-core/internal/fixedpoint"

// InvalidationFlags tracks which derived camera quantities are stale.
type InvalidationFlags uint8

const (
	InvalidateNone       InvalidationFlags = 0
	InvalidateProjection InvalidationFlags = 1 << iota
	InvalidateScale
	InvalidateRotation
)

// Optical holds the pixel-space optics a camera projects through: eye-to-
// screen distance, per-axis maximum view distance, inter-ocular base,
// view-point centre, and a scaling modifier.
type Optical struct {
	DistanceEyeScreen   fixedpoint.Fix13
	MaximumViewDistance fixedpoint.Vector3D
	BaseDistance        fixedpoint.Fix13
	HorizontalViewPointCenter fixedpoint.Fix13
	VerticalViewPointCenter   fixedpoint.Fix13
	ScalingFactor       fixedpoint.Fix13
}

// Frustum is the screen-space rectangle and depth range sprites are culled
// against, clamped into the hardware's addressable limits.
type Frustum struct {
	X0, Y0, X1, Y1 int16
	Near, Far      fixedpoint.Fix13
}

// Clamp restricts the frustum to the hardware's addressable screen limits.
func (f Frustum) Clamp(maxX, maxY int16) Frustum {
	if f.X1 > maxX {
		f.X1 = maxX
	}
	if f.Y1 > maxY {
		f.Y1 = maxY
	}
	if f.X0 < 0 {
		f.X0 = 0
	}
	if f.Y0 < 0 {
		f.Y0 = 0
	}
	return f
}

// Camera owns the position/rotation/optics/frustum a frame's sprites are
// projected through.
type Camera struct {
	position         fixedpoint.Vector3D
	rotation         fixedpoint.Rotation
	invertedRotation fixedpoint.Rotation

	optical    Optical
	frustum    Frustum
	stageSizeCap fixedpoint.Vector3D

	flags InvalidationFlags
}

// New creates a camera at the origin with the given optics and frustum.
func New(optical Optical, frustum Frustum) *Camera {
	return &Camera{optical: optical, frustum: frustum}
}

// Position returns the camera's world position.
func (c *Camera) Position() fixedpoint.Vector3D { return c.position }

// SetPosition moves the camera. Any positional delta invalidates the
// projection; a Z-axis delta additionally invalidates scale.
func (c *Camera) SetPosition(pos fixedpoint.Vector3D) {
	if pos == c.position {
		return
	}
	if pos.Z != c.position.Z {
		c.flags |= InvalidateProjection | InvalidateScale
	} else {
		c.flags |= InvalidateProjection
	}
	c.position = pos
}

// Translate moves the camera by a delta, same invalidation rules as
// SetPosition.
func (c *Camera) Translate(delta fixedpoint.Vector3D) {
	c.SetPosition(c.position.Add(delta))
}

// Rotation returns the camera's current rotation.
func (c *Camera) Rotation() fixedpoint.Rotation { return c.rotation }

// SetRotation rotates the camera, invalidating rotation and caching the
// inverse.
func (c *Camera) SetRotation(rot fixedpoint.Rotation) {
	rot = rot.Clamped()
	if rot == c.rotation {
		return
	}
	c.rotation = rot
	c.invertedRotation = rot.Invert()
	c.flags |= InvalidateRotation
}

// InvertedRotation returns the cached inverse of the current rotation.
func (c *Camera) InvertedRotation() fixedpoint.Rotation { return c.invertedRotation }

// Optical returns the camera's optical configuration.
func (c *Camera) Optical() Optical { return c.optical }

// SetOptical replaces the optical configuration wholesale, invalidating
// every derived quantity.
func (c *Camera) SetOptical(optical Optical) {
	c.optical = optical
	c.flags |= InvalidateProjection | InvalidateScale | InvalidateRotation
}

// Frustum returns the camera's current frustum: as given to New, or as
// clamped by the last SetFrustum.
func (c *Camera) Frustum() Frustum { return c.frustum }

// SetFrustum replaces the frustum, clamped to the given hardware screen
// limits.
func (c *Camera) SetFrustum(frustum Frustum, maxX, maxY int16) {
	c.frustum = frustum.Clamp(maxX, maxY)
}

// StageSizeCap returns the stage-size cap the camera's focus point is
// clamped into.
func (c *Camera) StageSizeCap() fixedpoint.Vector3D { return c.stageSizeCap }

// SetStageSizeCap sets the world-size boundary the camera's focus point
// must stay within.
func (c *Camera) SetStageSizeCap(size fixedpoint.Vector3D) { c.stageSizeCap = size }

// Flags returns the current invalidation flags a sprite should consult
// before recomputing its projected screen position.
func (c *Camera) Flags() InvalidationFlags { return c.flags }

// ClearFlags is called once per frame after every sprite has re-synced,
// leaving the camera clean until its next transform.
func (c *Camera) ClearFlags() { c.flags = InvalidateNone }

// FocusOn computes this frame's focus point by tracking a target position,
// clamped into the configured stage-size cap — the camera-movement
// collaborator spec.md §4.D calls out.
func (c *Camera) FocusOn(target fixedpoint.Vector3D) fixedpoint.Vector3D {
	clamp := func(v, cap fixedpoint.Fix13) fixedpoint.Fix13 {
		if cap == 0 {
			return v
		}
		half := cap.Div(fixedpoint.FromInt13(2))
		if v < -half {
			return -half
		}
		if v > half {
			return half
		}
		return v
	}
	focus := fixedpoint.Vector3D{
		X: clamp(target.X, c.stageSizeCap.X),
		Y: clamp(target.Y, c.stageSizeCap.Y),
		Z: clamp(target.Z, c.stageSizeCap.Z),
	}
	c.SetPosition(focus)
	return focus
}
