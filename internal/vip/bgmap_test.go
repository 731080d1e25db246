package vip

import "testing"

func TestBgmapAllocatePacksShelfRows(t *testing.T) {
	a := NewBgmapAllocator()

	r1, err := a.Allocate(32, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if r1.X != 0 || r1.Y != 0 {
		t.Fatalf("r1 placed at (%d,%d), want (0,0)", r1.X, r1.Y)
	}

	r2, err := a.Allocate(16, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if r2.X != 32 || r2.Y != 0 {
		t.Fatalf("r2 placed at (%d,%d), want (32,0) — should share r1's row", r2.X, r2.Y)
	}

	r3, err := a.Allocate(8, 24)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if r3.Y != 16 {
		t.Fatalf("r3 placed at y=%d, want 16 — should open a new row below r1's span", r3.Y)
	}
}

func TestBgmapNonOverlap(t *testing.T) {
	a := NewBgmapAllocator()
	type placed struct{ r BgmapRect }
	var all []placed

	specs := [][2]int{{10, 10}, {20, 5}, {5, 30}, {40, 8}, {12, 12}}
	for _, s := range specs {
		r, err := a.Allocate(s[0], s[1])
		if err != nil {
			t.Fatalf("Allocate(%d,%d): %v", s[0], s[1], err)
		}
		all = append(all, placed{r})
	}

	overlaps := func(a, b BgmapRect) bool {
		if a.Segment != b.Segment {
			return false
		}
		return a.X < b.X+b.Cols && b.X < a.X+a.Cols && a.Y < b.Y+b.Rows && b.Y < a.Y+a.Rows
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if overlaps(all[i].r, all[j].r) {
				t.Fatalf("rectangles %d and %d overlap: %+v, %+v", i, j, all[i].r, all[j].r)
			}
		}
	}
}

func TestBgmapReleaseLIFORetreatsRow(t *testing.T) {
	a := NewBgmapAllocator()

	r1, _ := a.Allocate(10, 10)
	r2, _ := a.Allocate(10, 10)

	before := a.UsedCells(0)
	a.Release(r2)
	if a.UsedCells(0) != before-100 {
		t.Fatalf("UsedCells after release = %d, want %d", a.UsedCells(0), before-100)
	}

	r3, err := a.Allocate(10, 10)
	if err != nil {
		t.Fatalf("Allocate after release: %v", err)
	}
	if r3.X != r2.X || r3.Y != r2.Y {
		t.Fatalf("expected r3 to reuse r2's exact slot (%d,%d), got (%d,%d)", r2.X, r2.Y, r3.X, r3.Y)
	}
	_ = r1
}

func TestBgmapReleaseNonLIFODoesNotRetreat(t *testing.T) {
	a := NewBgmapAllocator()

	r1, _ := a.Allocate(10, 10)
	r2, _ := a.Allocate(10, 10)

	a.Release(r1) // not the last placement in the row
	used := a.UsedCells(0)

	r3, _ := a.Allocate(10, 10)
	if r3.X == r1.X {
		t.Fatal("non-LIFO release should not have retreated the row cursor")
	}
	if a.UsedCells(0) != used+100 {
		t.Fatalf("UsedCells after third allocate = %d, want %d", a.UsedCells(0), used+100)
	}
	_ = r2
}

func TestBgmapAllocateExhaustion(t *testing.T) {
	a := NewBgmapAllocator()
	for seg := 0; seg < UsableBgmapSegments; seg++ {
		for i := 0; i < 64; i++ {
			if _, err := a.Allocate(64, 1); err != nil {
				t.Fatalf("segment %d allocation %d unexpectedly failed: %v", seg, i, err)
			}
		}
	}
	if _, err := a.Allocate(1, 1); err == nil {
		t.Fatal("expected exhaustion error once every usable segment is full")
	}
}

func TestBgmapAllocateRejectsOversizedRectangle(t *testing.T) {
	a := NewBgmapAllocator()
	if _, err := a.Allocate(65, 1); err == nil {
		t.Fatal("expected error for rectangle wider than a segment")
	}
}
