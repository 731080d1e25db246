package engine

import "vb-engine-core/internal/fixedpoint"

// VisualState is the capability struct spec.md §3's Sprite shares with
// a renderable Mesh: every "thing the camera projects and the frame loop
// might hide" carries one (SPEC_FULL.md "Supplemented Features", grounded
// on original_source/source/Component/Graphics/VisualComponent.c). Both
// internal/vip.SpriteBase and internal/wireframe.Mesh model this same
// position/displacement/visibility shape independently rather than
// embedding a shared Go type, since a Sprite's visibility is driven by
// WORLD-layer assignment and a Mesh's by a plain Hidden flag — VisualState
// is the common surface used where code treats both uniformly (e.g. a
// Stage entity that owns either one).
type VisualState struct {
	Position     fixedpoint.Vector3D
	Displacement fixedpoint.Vector3D
	hidden       bool
}

// Hidden reports whether this visual should be skipped this frame.
func (v *VisualState) Hidden() bool { return v.hidden }

// Show makes the visual eligible for rendering again.
func (v *VisualState) Show() { v.hidden = false }

// Hide excludes the visual from rendering until shown again.
func (v *VisualState) Hide() { v.hidden = true }

// WorldPosition returns the visual's effective position (position plus
// displacement), the value both the render scheduler's projection and the
// wireframe renderer's orthographic projection consume.
func (v *VisualState) WorldPosition() fixedpoint.Vector3D {
	return v.Position.Add(v.Displacement)
}
