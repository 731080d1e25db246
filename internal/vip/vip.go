// Package vip implements the VRAM resource managers driving the hardware's
// fixed video coprocessor: CHAR tiles, BGMAP segments, the parameter table,
// the texture registry, and the sprite registry/render scheduler that
// assigns WORLD layers each frame (spec.md §4.E-§4.J). Grounded on the
// teacher's internal/ppu.PPU — a flat byte-array VRAM/OAM model — which this
// package specializes into the spec's CHAR/BGMAP/param-table/OBJECT regions
// and their allocators, instead of a general-purpose tile/sprite PPU.
package vip

// Hardware constants (spec.md §6).
const (
	CharTileBytes   = 16
	TotalCharTiles  = 2048
	CharSegments    = 4

	BgmapSegmentSize = 64 // 64x64 cells
	BgmapSegments     = 14
	BgmapCellBytes    = 2

	// Three BGMAP segments are reserved: one for text printing, two for the
	// parameter table.
	ReservedTextSegment   = BgmapSegments - 1
	ReservedParamSegmentA = BgmapSegments - 2
	ReservedParamSegmentB = BgmapSegments - 3

	ObjectAttributeEntries = 1024
	ObjectAttributeBytes   = 8

	WorldLayers   = 32
	NoRenderIndex = -1
)

// VRAM is the engine's writable CHAR + BGMAP + parameter-table + OBJECT
// memory — the one region the main loop writes and the ISRs never touch
// (§5). It is handed to the CHAR/BGMAP/param-table allocators and the
// sprite render scheduler, which all read/write disjoint slices of it.
type VRAM struct {
	Chars  [TotalCharTiles][CharTileBytes]byte
	Bgmaps [BgmapSegments][BgmapSegmentSize * BgmapSegmentSize]uint16
	// ParamTable is carved out of the two reserved BGMAP segments by the
	// param-table allocator; modeled as its own scratch region since its
	// row format (scanline transform entries) differs from ordinary BGMAP
	// cells.
	ParamTable [BgmapSegmentSize * BgmapSegmentSize * 2]uint16
	Objects    [ObjectAttributeEntries]ObjectAttribute
	World      [WorldLayers]WorldAttribute
}

// ObjectAttribute is one hardware OBJECT slot: screen position, head flags,
// and source tile.
type ObjectAttribute struct {
	JX, JY uint16
	Head   uint16
	Tile   uint16
}

// WorldAttribute is one hardware WORLD layer's display-list entry.
type WorldAttribute struct {
	GX, GY, GP    int16
	MX, MY, MP    int16
	W, H          uint16
	Head          uint16
	Param         uint16
}

// EndHead marks a WORLD layer as the terminator the VIP stops scanning at.
const EndHead uint16 = 0x0000

// NewVRAM allocates a zeroed VRAM region.
func NewVRAM() *VRAM { return &VRAM{} }
