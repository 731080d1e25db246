package mempool

import (
	"errors"
	"testing"
)

func TestAllocatePicksSmallestFittingPool(t *testing.T) {
	ps, err := New([]int{16, 32, 64}, []int{4, 4, 4}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ref, payload, err := ps.Allocate(10)
	if err != nil {
		t.Fatalf("Allocate(10): %v", err)
	}
	if len(payload) != 16-4 {
		t.Errorf("expected payload from 16-byte pool (12 bytes), got %d", len(payload))
	}
	ps.Free(ref)
}

func TestAllocateExhaustion(t *testing.T) {
	ps, err := New([]int{16}, []int{2}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, _, err := ps.Allocate(8); err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	if _, _, err := ps.Allocate(8); err != nil {
		t.Fatalf("second allocate: %v", err)
	}
	if _, _, err := ps.Allocate(8); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestAllocateRequestTooLargeForAnyPool(t *testing.T) {
	ps, err := New([]int{16, 32}, []int{4, 4}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := ps.Allocate(1000); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestFreeThenReallocateReusesSlot(t *testing.T) {
	ps, err := New([]int{16}, []int{1}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ref, _, err := ps.Allocate(8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	ps.Free(ref)
	if ps.UsedBytes() != 0 {
		t.Fatalf("expected 0 used bytes after free, got %d", ps.UsedBytes())
	}
	if _, _, err := ps.Allocate(8); err != nil {
		t.Fatalf("Allocate after free should succeed: %v", err)
	}
}

func TestFreeChecked(t *testing.T) {
	ps, err := New([]int{16}, []int{2}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ref, _, err := ps.Allocate(8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := ps.FreeChecked(ref); err != nil {
		t.Fatalf("FreeChecked: %v", err)
	}
	if err := ps.FreeChecked(ref); err == nil {
		t.Fatal("expected error on double free")
	}
	if err := ps.FreeChecked(Ref{}); !errors.Is(err, ErrForeignPointer) {
		t.Fatalf("expected ErrForeignPointer for zero Ref, got %v", err)
	}
}

// TestPoolChurn follows the scenario from spec.md §8 scenario 1: allocate
// 400 blocks of size 20, free every third, allocate 140 more of size 20;
// there must be no failure and reuse of freed slots must keep total used
// blocks within budget.
func TestPoolChurn(t *testing.T) {
	ps, err := New([]int{20}, []int{500}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	refs := make([]Ref, 0, 400)
	for i := 0; i < 400; i++ {
		ref, _, err := ps.Allocate(20)
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		refs = append(refs, ref)
	}

	freed := 0
	for i := 2; i < len(refs); i += 3 {
		ps.Free(refs[i])
		freed++
	}

	for i := 0; i < 140; i++ {
		if _, _, err := ps.Allocate(20); err != nil {
			t.Fatalf("second-wave allocate %d: %v", i, err)
		}
	}

	used := ps.Usage()[0].UsedBlocks
	want := 400 - freed + 140
	if used != want {
		t.Fatalf("used blocks = %d, want %d", used, want)
	}
	if used > 407 {
		t.Fatalf("used blocks %d exceeds the scenario's expected ceiling of 407", used)
	}
}

func TestUsedBytesNeverExceedsTotal(t *testing.T) {
	ps, err := NewDefault(nil)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if _, _, err := ps.Allocate(12); err != nil {
			break
		}
	}
	if ps.UsedBytes() > ps.TotalBytes() {
		t.Fatalf("used bytes %d exceeds total %d", ps.UsedBytes(), ps.TotalBytes())
	}
}

func TestNewRejectsNonAscendingSizes(t *testing.T) {
	if _, err := New([]int{32, 16}, []int{1, 1}, nil); err == nil {
		t.Fatal("expected error for non-ascending block sizes")
	}
}
