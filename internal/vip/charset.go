package vip

import (
	"fmt"

	"vb-engine-core/internal/messaging"
)

// Events fired on a CharSet's embedded messaging.Source.
const (
	EventCharSetChangedOffset messaging.Code = iota
	EventCharSetDeleted
)

// CharSetSpec describes the tile data a CharSet wraps: whether multiple
// sprites may share one underlying allocation (shared), whether its tiles
// source is a single tileset reused for several animation frames
// (optimized), and the tile count used to size its CHAR-space footprint.
type CharSetSpec struct {
	NumberOfChars int
	Shared        bool
	Optimized     bool
	Tiles         [][CharTileBytes]byte
	FrameOffsets  []int
}

// CharSet is a live CHAR-space allocation: a contiguous run of tiles at a
// given offset, shared by however many sprites asked for the same spec.
// Grounded on original_source's CharSet: usage-count aliasing, a
// written/offset-changed dirty flag, and a frame displacement used by
// animated, tileset-sharing sprites.
type CharSet struct {
	messaging.Source

	spec   *CharSetSpec
	offset int
	usage  int

	tilesDisplacement int
	written           bool
}

func newCharSet(spec *CharSetSpec, offset int) *CharSet {
	cs := &CharSet{spec: spec, offset: offset, usage: 1}
	return cs
}

// Spec returns the backing spec this CharSet was allocated for.
func (c *CharSet) Spec() *CharSetSpec { return c.spec }

// Offset returns the CharSet's current CHAR-space tile offset.
func (c *CharSet) Offset() int { return c.offset }

// NumberOfChars returns the tile count this CharSet occupies.
func (c *CharSet) NumberOfChars() int { return c.spec.NumberOfChars }

// UsageCount returns how many callers currently hold this CharSet.
func (c *CharSet) UsageCount() int { return c.usage }

func (c *CharSet) increaseUsage() { c.usage++ }

// decreaseUsage mirrors CharSet::decreaseUsageCount: drops to floor 0,
// reports whether this was the last reference.
func (c *CharSet) decreaseUsage() bool {
	if c.usage > 0 {
		c.usage--
	}
	return c.usage == 0
}

// setOffset relocates the CharSet within CHAR space. Firing
// EventCharSetChangedOffset only when the offset actually moves (or the
// CharSet was never written) lets subscribed textures skip a redundant
// redraw.
func (c *CharSet) setOffset(offset int) {
	c.written = c.written && c.offset == offset
	c.offset = offset
	if !c.written {
		c.FireEvent(EventCharSetChangedOffset)
	}
}

// SetFrame advances to a new animation frame, triggering a rewrite only
// when the frame actually changes the tile displacement.
func (c *CharSet) SetFrame(frame int) {
	var displacement int
	if len(c.spec.FrameOffsets) > 0 {
		displacement = c.spec.FrameOffsets[frame]
	} else {
		displacement = c.spec.NumberOfChars * frame
	}
	if !c.written || c.tilesDisplacement != displacement {
		c.tilesDisplacement = displacement
		c.write(nil)
	}
}

// write copies this CharSet's tiles into the given VRAM's CHAR space.
func (c *CharSet) write(vram *VRAM) {
	c.written = true
	if vram == nil {
		return
	}
	for i := 0; i < c.spec.NumberOfChars; i++ {
		src := i + c.tilesDisplacement
		if src >= len(c.spec.Tiles) {
			break
		}
		vram.Chars[c.offset+i] = c.spec.Tiles[src]
	}
}

// CharSetManager owns every live CharSet and the CHAR-space bump allocator
// that places them, deduplicating shared specs and sliding survivors down
// to reclaim space a release left behind. Grounded on
// original_source/.../CharSetManager.c.
type CharSetManager struct {
	charSets    []*CharSet
	freedOffset int // 0 means "nothing freed": offset 0 is the reserved blank tile
}

// NewCharSetManager creates an empty CHAR-space allocator.
func NewCharSetManager() *CharSetManager {
	return &CharSetManager{freedOffset: 0}
}

// GetCharSet returns a CharSet for the given spec, allocating a new one or
// aliasing an existing shared allocation and bumping its usage count.
func (m *CharSetManager) GetCharSet(spec *CharSetSpec) (*CharSet, error) {
	if spec == nil {
		return nil, fmt.Errorf("vip: nil CharSetSpec")
	}
	if !spec.Shared {
		return m.allocate(spec)
	}
	if cs := m.find(spec); cs != nil {
		cs.increaseUsage()
		return cs, nil
	}
	return m.allocate(spec)
}

func (m *CharSetManager) find(spec *CharSetSpec) *CharSet {
	if len(spec.Tiles) == 0 {
		return nil
	}
	for _, cs := range m.charSets {
		if len(cs.spec.Tiles) == 0 {
			continue
		}
		if cs.spec.NumberOfChars == spec.NumberOfChars && cs.spec.Shared == spec.Shared && &cs.spec.Tiles[0] == &spec.Tiles[0] {
			return cs
		}
	}
	return nil
}

func (m *CharSetManager) allocate(spec *CharSetSpec) (*CharSet, error) {
	if spec.NumberOfChars <= 0 {
		return nil, fmt.Errorf("vip: CharSetSpec has non-positive tile count %d", spec.NumberOfChars)
	}
	if spec.NumberOfChars >= TotalCharTiles {
		return nil, fmt.Errorf("vip: CharSetSpec requests %d tiles, exceeds CHAR space", spec.NumberOfChars)
	}

	// Offset 0 is reserved (the hardware's blank tile); the first CharSet
	// starts at offset 1, mirroring the allocator this is grounded on.
	offset := 1
	if len(m.charSets) > 0 {
		last := m.charSets[len(m.charSets)-1]
		offset = last.offset + last.spec.NumberOfChars
	}

	if offset+spec.NumberOfChars > TotalCharTiles {
		return nil, fmt.Errorf("vip: CHAR memory depleted allocating %d tiles at offset %d", spec.NumberOfChars, offset)
	}

	cs := newCharSet(spec, offset)
	m.charSets = append(m.charSets, cs)
	return cs, nil
}

// ReleaseCharSet drops one reference; the CharSet is removed and its
// offset recorded as reclaimable once its usage count reaches zero.
func (m *CharSetManager) ReleaseCharSet(cs *CharSet) bool {
	if cs == nil {
		return false
	}
	if !cs.decreaseUsage() {
		return false
	}

	for i, c := range m.charSets {
		if c == cs {
			m.charSets = append(m.charSets[:i], m.charSets[i+1:]...)
			break
		}
	}

	if m.freedOffset == 0 || cs.offset < m.freedOffset {
		m.freedOffset = cs.offset
	}
	cs.FireEvent(EventCharSetDeleted)
	return true
}

// Defragment slides every live CharSet at or past the lowest freed offset
// down to close the gap, one CharSet per pass unless deferred is false (in
// which case it repeats until no freed offset remains). Each relocated
// CharSet fires EventCharSetChangedOffset so subscribed textures know to
// redraw from its new position.
func (m *CharSetManager) Defragment(deferred bool) {
	if m.freedOffset <= 0 {
		return
	}

	for m.freedOffset > 0 {
		moved := false
		for _, cs := range m.charSets {
			if m.freedOffset < cs.offset {
				newOffset := m.freedOffset
				m.freedOffset += cs.spec.NumberOfChars
				cs.setOffset(newOffset)
				moved = true
				break
			} else if m.freedOffset == cs.offset {
				m.freedOffset += cs.spec.NumberOfChars
			}
		}
		if !moved {
			m.freedOffset = 0
			break
		}
		if deferred {
			break
		}
	}
}

// TotalUsedChars returns the CHAR-space high-water mark: the offset past
// the end of the last live CharSet.
func (m *CharSetManager) TotalUsedChars() int {
	if len(m.charSets) == 0 {
		return 0
	}
	last := m.charSets[len(m.charSets)-1]
	return last.offset + last.spec.NumberOfChars
}

// TotalFreeChars returns the remaining unallocated CHAR tile count.
func (m *CharSetManager) TotalFreeChars() int {
	return TotalCharTiles - m.TotalUsedChars()
}

// TotalCharSets returns the number of live CharSets.
func (m *CharSetManager) TotalCharSets() int { return len(m.charSets) }

// WriteCharSets defragments (non-deferred) and writes every live CharSet
// into the given VRAM.
func (m *CharSetManager) WriteCharSets(vram *VRAM) {
	m.Defragment(false)
	for _, cs := range m.charSets {
		cs.write(vram)
	}
}

// Reset drops every live CharSet, matching CharSetManager::reset.
func (m *CharSetManager) Reset() {
	m.charSets = nil
	m.freedOffset = 0
}
