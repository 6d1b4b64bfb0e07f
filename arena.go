package adaband

import "fmt"

// Arena sizing. Chunks grow geometrically from the configured initial
// capacity; the chunk table is fixed so a runaway chain fails with
// ErrOutOfMemory instead of growing without bound.
const (
	arenaMaxChunks  = 11
	defaultMemInit  = 4096 // blocks in the first chunk
	fillChunkDivide = 64   // fills are allocated 1/64 as often as blocks
)

// arena is the bump allocator backing a DP context. Records are handed out
// from chunked pools so a pointer stays valid until the next flush or clean;
// chunks are retained across flushes and reused.
type arena struct {
	blkChunks [arenaMaxChunks][]block
	fChunks   [arenaMaxChunks][]Fill

	nblk, blkCap   int
	nfill, fillCap int
	initCap        int
}

func (a *arena) init(initCap int) {
	if initCap <= 0 {
		initCap = defaultMemInit
	}
	a.initCap = initCap
	a.nblk, a.nfill = 0, 0
}

// growBlocks appends the next chunk of the block pool, doubling the capacity
// each time.
func (a *arena) growBlocks() error {
	for i := 0; i < arenaMaxChunks; i++ {
		if a.blkChunks[i] == nil {
			a.blkChunks[i] = make([]block, a.initCap<<i)
			a.blkCap += len(a.blkChunks[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %d block chunks exhausted", ErrOutOfMemory, arenaMaxChunks)
}

// allocBlock hands out the next block record. The record is reused across
// flushes and may carry stale content; the fill loop overwrites every field
// it relies on.
func (a *arena) allocBlock() (*block, error) {
	if a.nblk >= a.blkCap {
		if err := a.growBlocks(); err != nil {
			return nil, err
		}
	}
	b := a.blockAt(a.nblk)
	a.nblk++
	return b, nil
}

// unwindBlock returns the most recently allocated block to the pool. Only
// the top of the stack can be unwound; the fill loop uses it when a block
// turns out to hold zero steps.
func (a *arena) unwindBlock() {
	if a.nblk == 0 {
		panic("adaband: unwind on empty arena")
	}
	a.nblk--
}

// blockAt resolves a pool index to its record. Chunk sizes double, so the
// scan touches at most arenaMaxChunks entries.
func (a *arena) blockAt(i int) *block {
	for c := 0; c < arenaMaxChunks; c++ {
		if i < len(a.blkChunks[c]) {
			return &a.blkChunks[c][i]
		}
		i -= len(a.blkChunks[c])
	}
	panic(fmt.Sprintf("adaband: block index %d out of arena", i))
}

func (a *arena) allocFill() (*Fill, error) {
	if a.nfill >= a.fillCap {
		base := a.initCap / fillChunkDivide
		if base < 16 {
			base = 16
		}
		ok := false
		for i := 0; i < arenaMaxChunks; i++ {
			if a.fChunks[i] == nil {
				a.fChunks[i] = make([]Fill, base<<i)
				a.fillCap += len(a.fChunks[i])
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %d fill chunks exhausted", ErrOutOfMemory, arenaMaxChunks)
		}
	}
	i := a.nfill
	a.nfill++
	for c := 0; c < arenaMaxChunks; c++ {
		if i < len(a.fChunks[c]) {
			return &a.fChunks[c][i], nil
		}
		i -= len(a.fChunks[c])
	}
	panic("adaband: fill index out of arena")
}

// flush resets the allocation tops, invalidating every handed-out record
// while keeping the chunks mapped for reuse.
func (a *arena) flush() {
	a.nblk, a.nfill = 0, 0
}

// clean drops the chunks themselves.
func (a *arena) clean() {
	for i := range a.blkChunks {
		a.blkChunks[i] = nil
		a.fChunks[i] = nil
	}
	a.blkCap, a.fillCap = 0, 0
	a.nblk, a.nfill = 0, 0
}
