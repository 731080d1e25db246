// Package mempool implements the engine's fixed-block memory pool: every
// engine object lives in a statically reserved arena, never on a dynamic
// heap. Grounded on original_source/source/base/MemoryPool.c — pools sized
// by an object-size histogram, a per-pool "last freed" hint, and a left/right
// alternating scan for the nearest free block.
package mempool

import (
	"errors"
	"fmt"

	"vb-engine-core/internal/engtrace"
)

// ErrExhausted is returned when no pool has a free block large enough for
// the request. In non-shipping builds the caller is expected to also invoke
// the engine's fatal-exception handler (§7); mempool itself never panics so
// tests can assert on the returned error.
var ErrExhausted = errors.New("mempool: exhausted")

// ErrForeignPointer is returned by Free when the reference does not belong
// to this pool set. Detected only in debug mode, matching the spec's
// "foreign-free silent in shipping" policy.
var ErrForeignPointer = errors.New("mempool: foreign reference")

const (
	headerFree uint32 = 0xFFFFFFFF
	headerUsed uint32 = 0x00000000
)

// DefaultBlockSizes mirrors the object-size histogram spec.md §3 calls out:
// 16, 20, 28, 40, 68, 80, 108, 116, 140, 152, 164 bytes.
var DefaultBlockSizes = []int{16, 20, 28, 40, 68, 80, 108, 116, 140, 152, 164}

// DefaultBlockCounts is a representative per-size object count; callers that
// care about exact budgets should build their own Pools via New.
var DefaultBlockCounts = []int{128, 128, 96, 96, 64, 64, 48, 48, 32, 32, 16}

// pool is one fixed-block-size arena.
type pool struct {
	blockSize  int
	blockCount int
	arena      []byte
	lastFree   int // index of the last freed (or allocated-from) block
}

func newPool(blockSize, blockCount int) *pool {
	p := &pool{
		blockSize:  blockSize,
		blockCount: blockCount,
		arena:      make([]byte, blockSize*blockCount),
	}
	for i := 0; i < blockCount; i++ {
		p.setHeader(i, headerFree)
	}
	return p
}

func (p *pool) header(i int) uint32 {
	off := i * p.blockSize
	b := p.arena[off : off+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (p *pool) setHeader(i int, v uint32) {
	off := i * p.blockSize
	b := p.arena[off : off+4]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// payload returns the block's bytes past the header word — the region a
// caller may alias.
func (p *pool) payload(i int) []byte {
	off := i*p.blockSize + 4
	return p.arena[off : i*p.blockSize+p.blockSize]
}

// findFree scans outward from lastFree, alternating right and left, and
// returns the index of a free block or -1.
func (p *pool) findFree() int {
	if p.header(p.lastFree) == headerFree {
		return p.lastFree
	}
	for d := 1; d < p.blockCount; d++ {
		right := p.lastFree + d
		if right < p.blockCount && p.header(right) == headerFree {
			return right
		}
		left := p.lastFree - d
		if left >= 0 && p.header(left) == headerFree {
			return left
		}
	}
	return -1
}

func (p *pool) usedCount() int {
	n := 0
	for i := 0; i < p.blockCount; i++ {
		if p.header(i) == headerUsed {
			n++
		}
	}
	return n
}

// Ref is an opaque handle to an allocated block. The zero Ref is invalid.
type Ref struct {
	poolIndex  int
	blockIndex int
	valid      bool
}

// Pools is the fixed set of static arenas the engine allocates every object
// from. Pools must be ordered by ascending BlockSize; New enforces this.
type Pools struct {
	pools  []*pool
	logger *engtrace.Logger
}

// New builds a pool set from parallel blockSizes/blockCounts slices, ordered
// smallest block size first.
func New(blockSizes, blockCounts []int, logger *engtrace.Logger) (*Pools, error) {
	if len(blockSizes) != len(blockCounts) {
		return nil, fmt.Errorf("mempool: blockSizes and blockCounts length mismatch (%d vs %d)", len(blockSizes), len(blockCounts))
	}
	ps := &Pools{logger: logger}
	prev := 0
	for i, sz := range blockSizes {
		if sz <= prev {
			return nil, fmt.Errorf("mempool: block sizes must be strictly ascending, got %d after %d", sz, prev)
		}
		if sz < 4 {
			return nil, fmt.Errorf("mempool: block size %d too small to hold a header", sz)
		}
		prev = sz
		ps.pools = append(ps.pools, newPool(sz, blockCounts[i]))
	}
	return ps, nil
}

// NewDefault builds the pool set using DefaultBlockSizes/DefaultBlockCounts.
func NewDefault(logger *engtrace.Logger) (*Pools, error) {
	return New(DefaultBlockSizes, DefaultBlockCounts, logger)
}

// Allocate reserves a block whose size (4-byte header included) is at least
// n bytes, picking the smallest pool that fits; the returned payload is the
// blockSize-4 bytes after the header. O(P*K) where P is the pool count and
// K is the scan distance from the hint; K is ~1 in steady state.
func (ps *Pools) Allocate(n int) (Ref, []byte, error) {
	for i, p := range ps.pools {
		if p.blockSize < n {
			continue
		}
		idx := p.findFree()
		if idx < 0 {
			continue
		}
		p.setHeader(idx, headerUsed)
		p.lastFree = idx
		if ps.logger != nil {
			ps.logger.Logf(engtrace.SubsystemPool, engtrace.LevelDebug, "allocated %d bytes from pool blockSize=%d", n, p.blockSize)
		}
		return Ref{poolIndex: i, blockIndex: idx, valid: true}, p.payload(idx), nil
	}
	if ps.logger != nil {
		ps.logger.Logf(engtrace.SubsystemPool, engtrace.LevelError, "exhausted: no pool fits %d bytes", n)
	}
	return Ref{}, nil, fmt.Errorf("%w: no pool fits %d bytes (table: %v)", ErrExhausted, n, ps.Usage())
}

// Free returns a block to its pool. Freeing an invalid or already-free
// reference is a no-op (double-free and use-after-free are only detected in
// debug builds, per §3/§7); callers that want that detection should use
// FreeChecked.
func (ps *Pools) Free(ref Ref) {
	if !ref.valid || ref.poolIndex < 0 || ref.poolIndex >= len(ps.pools) {
		return
	}
	p := ps.pools[ref.poolIndex]
	if ref.blockIndex < 0 || ref.blockIndex >= p.blockCount {
		return
	}
	p.setHeader(ref.blockIndex, headerFree)
	p.lastFree = ref.blockIndex
}

// FreeChecked is the debug-build variant of Free: it reports a foreign or
// already-free reference instead of silently ignoring it.
func (ps *Pools) FreeChecked(ref Ref) error {
	if !ref.valid || ref.poolIndex < 0 || ref.poolIndex >= len(ps.pools) {
		return ErrForeignPointer
	}
	p := ps.pools[ref.poolIndex]
	if ref.blockIndex < 0 || ref.blockIndex >= p.blockCount {
		return ErrForeignPointer
	}
	if p.header(ref.blockIndex) == headerFree {
		return fmt.Errorf("mempool: double free of pool=%d block=%d", ref.poolIndex, ref.blockIndex)
	}
	p.setHeader(ref.blockIndex, headerFree)
	p.lastFree = ref.blockIndex
	return nil
}

// Payload returns the writable region of a live block (excluding the header
// word). Returns nil if ref is invalid.
func (ps *Pools) Payload(ref Ref) []byte {
	if !ref.valid || ref.poolIndex < 0 || ref.poolIndex >= len(ps.pools) {
		return nil
	}
	p := ps.pools[ref.poolIndex]
	return p.payload(ref.blockIndex)
}

// PoolUsage describes one pool's current occupancy.
type PoolUsage struct {
	BlockSize  int
	BlockCount int
	UsedBlocks int
}

// Usage reports every pool's current occupancy, largest block size last —
// used for the diagnostic the spec requires on allocation failure.
func (ps *Pools) Usage() []PoolUsage {
	out := make([]PoolUsage, len(ps.pools))
	for i, p := range ps.pools {
		out[i] = PoolUsage{BlockSize: p.blockSize, BlockCount: p.blockCount, UsedBlocks: p.usedCount()}
	}
	return out
}

// TotalBytes returns the combined byte size of every pool's arena.
func (ps *Pools) TotalBytes() int {
	total := 0
	for _, p := range ps.pools {
		total += p.blockSize * p.blockCount
	}
	return total
}

// UsedBytes returns the combined byte size currently in use across pools,
// used by the round-trip invariant test (§8): never exceeds TotalBytes.
func (ps *Pools) UsedBytes() int {
	total := 0
	for _, p := range ps.pools {
		total += p.usedCount() * p.blockSize
	}
	return total
}
