package vip

import "vb-engine-core/internal/fixedpoint"

// SpriteMode selects which WORLD-layer rendering mode a sprite's head word
// encodes.
type SpriteMode uint16

const (
	ModeBgmap SpriteMode = iota
	ModeAffine
	ModeHBias
	ModeObject
)

// Head mode bits, distinct from EndHead (0x0000, reserved for the
// terminator entry).
const (
	headModeBgmap  uint16 = 0x1000
	headModeAffine uint16 = 0x2000
	headModeHBias  uint16 = 0x3000
	headModeObject uint16 = 0x4000

	headDisplayLeft  uint16 = 1 << 15
	headDisplayRight uint16 = 1 << 14
)

// Transparency is a BgmapTexture's odd/even-frame blink state.
type Transparency int

const (
	TransparencyNone Transparency = iota
	TransparencyOddFrame
	TransparencyEvenFrame
)

// Renderable is anything the render scheduler can assign a WORLD layer to.
// Grounded on original_source's BgmapSprite::doRender: frustum-clip,
// collapse to NoRenderIndex when clipped away entirely, else write a
// WorldAttribute entry.
type Renderable interface {
	ZKey() fixedpoint.Fix13
	Hidden() bool
	Special() bool
	Index() int
	SetIndex(index int)
	DoRender(vram *VRAM, frustum Frustum, index int, evenFrame bool) int
}

// SpriteBase holds the state every concrete sprite variant shares:
// position, displacement, parallax, the texture it draws from, visibility,
// and its currently assigned WORLD layer.
type SpriteBase struct {
	Position     fixedpoint.Vector3D
	Displacement fixedpoint.Vector3D
	Parallax     int16

	Texture *Texture

	HalfWidth, HalfHeight int16

	hidden       bool
	transparency Transparency
	index        int
	animation    *AnimationController
}

// ZKey is the Z-sort key the registry orders sprites by.
func (s *SpriteBase) ZKey() fixedpoint.Fix13 {
	return s.Position.Z + s.Displacement.Z
}

// Hidden reports whether this sprite should be skipped by the scheduler.
func (s *SpriteBase) Hidden() bool { return s.hidden }

// Show makes the sprite eligible for rendering again.
func (s *SpriteBase) Show() { s.hidden = false }

// Hide excludes the sprite from rendering until shown again.
func (s *SpriteBase) Hide() { s.hidden = true }

// Index returns the WORLD layer index this sprite was last assigned, or
// NoRenderIndex.
func (s *SpriteBase) Index() int { return s.index }

// SetIndex records the WORLD layer index the scheduler assigned.
func (s *SpriteBase) SetIndex(index int) { s.index = index }

// SetTransparency sets the odd/even-frame blink state consulted during
// rendering.
func (s *SpriteBase) SetTransparency(t Transparency) { s.transparency = t }

// visible reports whether transparency excludes this sprite on the given
// frame parity.
func (s *SpriteBase) visible(evenFrame bool) bool {
	switch s.transparency {
	case TransparencyOddFrame:
		return evenFrame
	case TransparencyEvenFrame:
		return !evenFrame
	default:
		return true
	}
}

// renderRect performs the frustum clip and WorldAttribute write,
// mirroring BgmapSprite::doRender: clip left/top against the frustum
// origin, clip right/bottom against its far edge, and report
// NoRenderIndex once width or height collapses to nothing.
func (s *SpriteBase) renderRect(vram *VRAM, frustum Frustum, index int, head uint16, mx, my, mp int16) int {
	gx := int16(s.Position.X.ToInt()) + int16(s.Displacement.X.ToInt()) - s.HalfWidth
	gy := int16(s.Position.Y.ToInt()) + int16(s.Displacement.Y.ToInt()) - s.HalfHeight
	gp := s.Parallax

	absGp := gp
	if absGp < 0 {
		absGp = -absGp
	}

	w := s.HalfWidth << 1
	h := s.HalfHeight << 1

	if frustum.X0-absGp > gx {
		delta := frustum.X0 - absGp - gx
		mx += delta
		w -= delta
		gx = frustum.X0 - absGp
	}

	if frustum.Y0 > gy {
		delta := frustum.Y0 - gy
		my += delta
		h -= delta
		gy = frustum.Y0
	}

	if w+gx >= frustum.X1+absGp {
		w = frustum.X1 - gx + absGp
	}
	if w <= 0 {
		return NoRenderIndex
	}

	if h+gy >= frustum.Y1 {
		h = frustum.Y1 - gy
	}
	if h <= 0 {
		return NoRenderIndex
	}

	if vram != nil {
		vram.World[index] = WorldAttribute{
			GX: gx, GY: gy, GP: gp,
			MX: mx, MY: my, MP: mp,
			W: uint16(w), H: uint16(h),
			Head: head,
		}
	}
	return index
}

// BgmapSprite renders a plain, non-transformed BGMAP-mode sprite.
type BgmapSprite struct {
	SpriteBase
}

func (b *BgmapSprite) Special() bool { return false }

func (b *BgmapSprite) DoRender(vram *VRAM, frustum Frustum, index int, evenFrame bool) int {
	if !b.visible(evenFrame) {
		return NoRenderIndex
	}
	rect := b.Texture.Rect()
	head := headModeBgmap | uint16(rect.Segment)
	return b.renderRect(vram, frustum, index, head, int16(rect.X), int16(rect.Y), 0)
}

// BgmapSpriteAffine renders a BGMAP-mode sprite with a per-scanline affine
// transform driven by a parameter-table slot.
type BgmapSpriteAffine struct {
	SpriteBase
	ParamSlot    ParamTableSlot
	NextScanline int
}

func (b *BgmapSpriteAffine) Special() bool { return true }

func (b *BgmapSpriteAffine) DoRender(vram *VRAM, frustum Frustum, index int, evenFrame bool) int {
	if !b.visible(evenFrame) {
		return NoRenderIndex
	}
	rect := b.Texture.Rect()
	head := headModeAffine | uint16(rect.Segment)
	return b.renderRect(vram, frustum, index, head, int16(rect.X), int16(rect.Y), int16(b.ParamSlot.Offset))
}

// BgmapSpriteHBias renders a BGMAP-mode sprite using per-scanline
// horizontal bias rather than a full affine transform.
type BgmapSpriteHBias struct {
	SpriteBase
	ParamSlot ParamTableSlot
}

func (b *BgmapSpriteHBias) Special() bool { return true }

func (b *BgmapSpriteHBias) DoRender(vram *VRAM, frustum Frustum, index int, evenFrame bool) int {
	if !b.visible(evenFrame) {
		return NoRenderIndex
	}
	rect := b.Texture.Rect()
	head := headModeHBias | uint16(rect.Segment)
	return b.renderRect(vram, frustum, index, head, int16(rect.X), int16(rect.Y), int16(b.ParamSlot.Offset))
}

// ObjectSprite renders through the OBJECT attribute table rather than a
// BGMAP rectangle, owning a contiguous range of OBJECT slots.
type ObjectSprite struct {
	SpriteBase
	ObjectIndex int
	ObjectCount int
}

func (o *ObjectSprite) Special() bool { return false }

func (o *ObjectSprite) DoRender(vram *VRAM, frustum Frustum, index int, evenFrame bool) int {
	if !o.visible(evenFrame) {
		return NoRenderIndex
	}
	if vram != nil {
		for i := 0; i < o.ObjectCount; i++ {
			slot := o.ObjectIndex + i
			if slot >= ObjectAttributeEntries {
				break
			}
			vram.Objects[slot] = ObjectAttribute{
				JX:   uint16(int16(o.Position.X.ToInt()) + int16(o.Displacement.X.ToInt())),
				JY:   uint16(int16(o.Position.Y.ToInt()) + int16(o.Displacement.Y.ToInt())),
				Head: headModeObject,
			}
		}
		vram.World[index] = WorldAttribute{Head: headModeObject}
	}
	return index
}
