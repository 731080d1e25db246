// Package stage implements the engine's hierarchical scene graph: the
// Transformation data model (spec.md §3) and a Container/Stage arena that
// concatenates parent x child transforms and propagates messages down the
// tree (spec.md §4.Q, listed in the component table as "Stage / scene
// graph"). Grounded on
// original_source/source/world/entities/Container.c's transformation-flag
// scheme and its parent/child pointer hierarchy — generalized per design
// note "Cyclic parent/child references" from raw pointers into a flat node
// arena addressed by stable indices, so destruction is a bounds-checked
// depth-first post-order instead of following live pointers.
package stage

import "vb-engine-core/internal/fixedpoint"

// Invalidity names which of a Transformation's derived (global) fields are
// stale relative to its local fields and its parent's global fields.
type Invalidity int

const (
	// Clean means every global field is authoritative.
	Clean Invalidity = iota
	// PositionOnly means only the global position needs recomputation.
	PositionOnly
	// RotationInvalid means the global rotation (and therefore anything
	// derived from it) is stale.
	RotationInvalid
	// ScaleInvalid means the global scale is stale.
	ScaleInvalid
	// FullyInvalid means every derived field must be recomputed.
	FullyInvalid
)

// Transformation is the local/global position-rotation-scale state every
// stage node carries (spec.md §3). Global values are authoritative only
// when Invalid == Clean; callers must call Concatenate (directly or via
// Stage.Propagate) before reading them otherwise.
type Transformation struct {
	LocalPosition fixedpoint.Vector3D
	LocalRotation fixedpoint.Rotation
	LocalScale    fixedpoint.Scale

	GlobalPosition fixedpoint.Vector3D
	GlobalRotation fixedpoint.Rotation
	GlobalScale    fixedpoint.Scale

	Invalid Invalidity
}

// Identity returns a clean transformation with unit scale at the origin.
func Identity() Transformation {
	return Transformation{
		LocalScale:  fixedpoint.UnitScale,
		GlobalScale: fixedpoint.UnitScale,
		Invalid:     Clean,
	}
}

// SetLocalPosition updates the local position and invalidates at least the
// global position, matching any existing invalidity that is already more
// severe.
func (t *Transformation) SetLocalPosition(pos fixedpoint.Vector3D) {
	t.LocalPosition = pos
	t.invalidate(PositionOnly)
}

// SetLocalRotation updates the local rotation and invalidates rotation
// (which subsumes position, since a rotated parent moves every child's
// effective position too).
func (t *Transformation) SetLocalRotation(rot fixedpoint.Rotation) {
	t.LocalRotation = rot
	t.invalidate(RotationInvalid)
}

// SetLocalScale updates the local scale and invalidates scale.
func (t *Transformation) SetLocalScale(scale fixedpoint.Scale) {
	t.LocalScale = scale
	t.invalidate(ScaleInvalid)
}

// invalidate raises t.Invalid to at least level, never downgrading an
// already more severe pending invalidation.
func (t *Transformation) invalidate(level Invalidity) {
	if level > t.Invalid {
		t.Invalid = level
	}
}

// Concatenate composes a child's local transform against its parent's
// already-clean global transform: addition for position and rotation,
// multiplication for scale (spec.md §3). Returns the child's new global
// transform; the child's Invalid flag is cleared.
func Concatenate(parent, child Transformation) Transformation {
	child.GlobalPosition = parent.GlobalPosition.Add(rotatedLocal(parent.GlobalRotation, child.LocalPosition))
	child.GlobalRotation = parent.GlobalRotation.Add(child.LocalRotation)
	child.GlobalScale = parent.GlobalScale.Mul(child.LocalScale)
	child.Invalid = Clean
	return child
}

// rotatedLocal is a placeholder for a full 3-axis rotation of a local
// offset by the parent's global rotation. The hardware's camera/sprite
// pipeline only ever rotates around one axis at a time in practice (most
// scenes are orthographic Z-sorted 2D), so a full rotation matrix is out of
// scope (§1 non-goals: "no 3D transforms beyond Z-sort and orthographic
// projection"); positions concatenate by straight addition, matching
// original_source's Container_transform for the non-rotated common case.
func rotatedLocal(_ fixedpoint.Rotation, local fixedpoint.Vector3D) fixedpoint.Vector3D {
	return local
}

// Root returns the transformation a root node (no parent) should
// concatenate against: its own global fields, i.e. local and global are
// identical.
func Root(t Transformation) Transformation {
	t.GlobalPosition = t.LocalPosition
	t.GlobalRotation = t.LocalRotation
	t.GlobalScale = t.LocalScale
	t.Invalid = Clean
	return t
}
