package vip

import (
	"fmt"

	"vb-engine-core/internal/messaging"
)

// TextureStatus is an ordinal recording how stale a Texture's on-screen
// data is. Transitions may only move "toward pending" — a higher-priority
// write request is never downgraded by a lower one.
type TextureStatus int

const (
	StatusInvalid TextureStatus = iota
	StatusWritten
	StatusMapDisplacementChanged
	StatusFrameChanged
	StatusPendingWriting
	StatusPendingRewriting
)

// EventTextureRewritten fires each time a texture's write pass copies its
// last remaining row and the texture becomes StatusWritten.
const EventTextureRewritten messaging.Code = 100

// MapSpec describes the map-entry source a Texture draws its BGMAP
// rectangle from.
type MapSpec struct {
	Cols, Rows int
	FlipX      bool
	FlipY      bool
	Source     interface{} // identity used for shared-texture lookup
	CharSet    *CharSetSpec
}

// Texture pairs a BGMAP rectangle with a CharSet, the abstraction sprites
// actually reference (spec.md §4.H).
type Texture struct {
	messaging.Source

	spec  *MapSpec
	usage int

	rect    BgmapRect
	charSet *CharSet

	status        TextureStatus
	frame         int
	rowsRemaining int
}

// TextureRegistry owns the live Texture set, deduplicating shared textures
// bound to the same map source.
type TextureRegistry struct {
	bgmap    *BgmapAllocator
	charSets *CharSetManager
	textures []*Texture
}

// NewTextureRegistry creates a registry over the given BGMAP and CHAR
// allocators.
func NewTextureRegistry(bgmap *BgmapAllocator, charSets *CharSetManager) *TextureRegistry {
	return &TextureRegistry{bgmap: bgmap, charSets: charSets}
}

// Get returns a Texture for spec: an existing shared texture bound to the
// same source is reused and its usage bumped, otherwise a new BGMAP
// rectangle and CharSet are allocated and the texture starts life as
// StatusPendingWriting.
func (r *TextureRegistry) Get(spec *MapSpec, shared bool) (*Texture, error) {
	if spec == nil {
		return nil, fmt.Errorf("vip: nil MapSpec")
	}

	if shared {
		for _, tex := range r.textures {
			if tex.spec.Source == spec.Source && tex.spec.CharSet.Shared {
				tex.usage++
				return tex, nil
			}
		}
	}

	rect, err := r.bgmap.Allocate(spec.Cols, spec.Rows)
	if err != nil {
		return nil, fmt.Errorf("vip: allocating texture rectangle: %w", err)
	}

	spec.CharSet.Shared = shared
	cs, err := r.charSets.GetCharSet(spec.CharSet)
	if err != nil {
		r.bgmap.Release(rect)
		return nil, fmt.Errorf("vip: allocating texture charset: %w", err)
	}

	tex := &Texture{
		spec:          spec,
		usage:         1,
		rect:          rect,
		charSet:       cs,
		status:        StatusPendingWriting,
		rowsRemaining: spec.Rows,
	}
	r.textures = append(r.textures, tex)
	return tex, nil
}

// Release drops one reference; on zero usage the BGMAP rectangle is
// returned and the CharSet released.
func (r *TextureRegistry) Release(tex *Texture) {
	if tex == nil {
		return
	}
	tex.usage--
	if tex.usage > 0 {
		return
	}

	for i, t := range r.textures {
		if t == tex {
			r.textures = append(r.textures[:i], r.textures[i+1:]...)
			break
		}
	}
	r.bgmap.Release(tex.rect)
	r.charSets.ReleaseCharSet(tex.charSet)
}

// WriteAll drives every live texture's write pass against vram, handing
// each one rowBudget rows of map-entry copy per call (spec.md §4.H). A
// texture already StatusWritten is a no-op inside Write itself, so calling
// this once per frame amortises initial loads and rewrites across frames
// without re-walking finished textures' row data.
func (r *TextureRegistry) WriteAll(vram *VRAM, rowBudget int) {
	for _, tex := range r.textures {
		tex.Write(vram, rowBudget)
	}
}

// setStatus only advances status toward the more "pending" end of the
// ordinal, never backward.
func (t *Texture) setStatus(s TextureStatus) {
	if s > t.status {
		t.status = s
	}
}

// Status returns the texture's current write-status ordinal.
func (t *Texture) Status() TextureStatus { return t.status }

// Rect returns the texture's BGMAP rectangle.
func (t *Texture) Rect() BgmapRect { return t.rect }

// CharSet returns the texture's backing CharSet.
func (t *Texture) CharSet() *CharSet { return t.charSet }

// SetFrame changes the displayed frame; if the backing CharSet carries
// per-frame tile data the status advances to StatusFrameChanged so the
// next write pass picks up the new tiles.
func (t *Texture) SetFrame(frame int) {
	t.frame = frame
	if len(t.charSet.spec.FrameOffsets) > 0 {
		t.setStatus(StatusFrameChanged)
	}
}

// Rewrite forces a full refresh on the next write pass.
func (t *Texture) Rewrite() {
	t.setStatus(StatusPendingRewriting)
	t.rowsRemaining = t.spec.Rows
}

// Write copies up to budget rows of map entries into the given VRAM,
// loading the CharSet first if it has not been written yet. When
// rowsRemaining reaches zero the texture is marked StatusWritten and fires
// EventTextureRewritten.
func (t *Texture) Write(vram *VRAM, budget int) {
	if t.status == StatusInvalid || t.status == StatusWritten {
		return
	}

	if !t.charSet.written {
		t.charSet.write(vram)
	}
	if t.charSet.frame() != t.frame {
		t.charSet.SetFrame(t.frame)
	}

	if t.status == StatusPendingRewriting {
		t.rowsRemaining = t.spec.Rows
	}

	written := 0
	for written < budget && t.rowsRemaining > 0 {
		row := t.spec.Rows - t.rowsRemaining
		t.writeRow(vram, row)
		t.rowsRemaining--
		written++
	}

	if t.rowsRemaining == 0 {
		t.status = StatusWritten
		t.FireEvent(EventTextureRewritten)
	}
}

// writeRow copies one row of map entries into the texture's BGMAP
// rectangle, honoring per-row horizontal/vertical flip.
func (t *Texture) writeRow(vram *VRAM, row int) {
	if vram == nil {
		return
	}
	srcRow := row
	if t.spec.FlipY {
		srcRow = t.spec.Rows - 1 - row
	}

	base := (t.rect.Y + row) * BgmapSegmentSize
	for col := 0; col < t.spec.Cols; col++ {
		srcCol := col
		if t.spec.FlipX {
			srcCol = t.spec.Cols - 1 - col
		}
		entry := uint16(t.charSet.offset) + uint16(srcRow*t.spec.Cols+srcCol)
		vram.Bgmaps[t.rect.Segment][base+t.rect.X+col] = entry
	}
}

// frame returns the CharSet's currently configured animation frame,
// exposed for Texture.Write's dirty check.
func (c *CharSet) frame() int {
	if len(c.spec.FrameOffsets) == 0 {
		return 0
	}
	for i, off := range c.spec.FrameOffsets {
		if off == c.tilesDisplacement {
			return i
		}
	}
	return -1
}
