package vip

import "fmt"

// UsableBgmapSegments excludes the three reserved segments (text printing,
// two parameter-table segments) from allocation.
const UsableBgmapSegments = BgmapSegments - 3

// maxRowsPerSegment bounds how many open shelf rows a segment tracks: one
// per cell row, the most a segment can hold since every row is at least
// one cell tall.
const maxRowsPerSegment = BgmapSegmentSize

// BgmapRect is an allocated rectangle within one BGMAP segment.
type BgmapRect struct {
	Segment    int
	X, Y       int
	Cols, Rows int
	rowIndex   int
}

// bgmapRow is one open shelf row: the next x/y offset placement will use,
// and the widths placed into it in allocation order so a release can
// retreat the cursor when it releases the most recently placed rectangle.
type bgmapRow struct {
	xOffset, yOffset int
	placements       []int
}

type bgmapSegment struct {
	usedCells int
	rows      []bgmapRow
}

func newBgmapSegment() *bgmapSegment {
	return &bgmapSegment{rows: []bgmapRow{{xOffset: 0, yOffset: 0}}}
}

// BgmapAllocator is the shelf/next-fit packer over the usable BGMAP
// segments (spec.md §4.F): each segment tracks open shelf rows recording
// the next x/y offset available in that row, and placement walks the rows
// looking for one tall and wide enough.
//
// Releasing a rectangle retreats its row's cursor in LIFO order when the
// released rectangle is the most recently placed one in that row,
// reclaiming the packing space immediately instead of leaving it stranded
// until the whole segment resets.
type BgmapAllocator struct {
	segments [UsableBgmapSegments]*bgmapSegment
}

// NewBgmapAllocator creates an allocator over the usable BGMAP segments.
func NewBgmapAllocator() *BgmapAllocator {
	a := &BgmapAllocator{}
	for i := range a.segments {
		a.segments[i] = newBgmapSegment()
	}
	return a
}

// Allocate places a cols x rows rectangle using the shelf algorithm: for
// each segment with enough free cells, walk its open rows looking for one
// with sufficient vertical span and horizontal room; on success the row's
// x-offset advances by cols and, if the rectangle's height exceeds the
// row's current span, the next row's y-offset is pushed down to
// accommodate it.
func (a *BgmapAllocator) Allocate(cols, rows int) (BgmapRect, error) {
	if cols <= 0 || rows <= 0 || cols > BgmapSegmentSize || rows > BgmapSegmentSize {
		return BgmapRect{}, fmt.Errorf("vip: invalid bgmap rectangle %dx%d", cols, rows)
	}

	needed := cols * rows
	for segIdx, seg := range a.segments {
		if BgmapSegmentSize*BgmapSegmentSize-seg.usedCells < needed {
			continue
		}

		for j := range seg.rows {
			span := BgmapSegmentSize - seg.rows[j].yOffset
			if j+1 < len(seg.rows) {
				span = seg.rows[j+1].yOffset - seg.rows[j].yOffset
			}

			if rows <= span && cols <= BgmapSegmentSize-seg.rows[j].xOffset {
				rect := BgmapRect{
					Segment:  segIdx,
					X:        seg.rows[j].xOffset,
					Y:        seg.rows[j].yOffset,
					Cols:     cols,
					Rows:     rows,
					rowIndex: j,
				}
				seg.rows[j].xOffset += cols
				seg.rows[j].placements = append(seg.rows[j].placements, cols)
				seg.usedCells += needed

				if j+1 < len(seg.rows) {
					if seg.rows[j+1].yOffset-seg.rows[j].yOffset < rows {
						seg.rows[j+1].yOffset = seg.rows[j].yOffset + rows
					}
				} else if rows < span && len(seg.rows) < maxRowsPerSegment {
					seg.rows = append(seg.rows, bgmapRow{xOffset: 0, yOffset: seg.rows[j].yOffset + rows})
				}

				return rect, nil
			}
		}
	}

	return BgmapRect{}, fmt.Errorf("vip: bgmap memory depleted allocating %dx%d rectangle", cols, rows)
}

// Release returns a rectangle's cells to its segment's usage count and, if
// it was the last rectangle placed into its row, retreats that row's
// cursor so the space is immediately reusable.
func (a *BgmapAllocator) Release(rect BgmapRect) {
	seg := a.segments[rect.Segment]
	seg.usedCells -= rect.Cols * rect.Rows
	if seg.usedCells < 0 {
		seg.usedCells = 0
	}

	if rect.rowIndex >= len(seg.rows) {
		return
	}
	row := &seg.rows[rect.rowIndex]
	n := len(row.placements)
	if n == 0 || row.placements[n-1] != rect.Cols {
		return
	}
	if row.xOffset != rect.X+rect.Cols {
		return
	}
	row.placements = row.placements[:n-1]
	row.xOffset = rect.X
}

// UsedCells reports the used-cell count for a given usable segment index.
func (a *BgmapAllocator) UsedCells(segment int) int {
	return a.segments[segment].usedCells
}

// Reset clears a segment back to a single open row, used when a stage or
// level transition discards every texture at once.
func (a *BgmapAllocator) Reset(segment int) {
	a.segments[segment] = newBgmapSegment()
}
