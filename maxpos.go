package adaband

import "fmt"

// maxLoc pins the chain maximum to a cell: the owning fragment and block,
// the step within the block, the band lane, and the absolute consumed-base
// coordinates.
type maxLoc struct {
	f      *Fill
	fi     int // fragment index in the chain
	bi     int // block index within the fragment
	step   int
	q      int
	ai, bj int64
}

// chainOf collects the tail chain from the root to t, oldest first.
func chainOf(t *Fill) []*Fill {
	n := 0
	for f := t; f != nil; f = f.prev {
		n++
	}
	chain := make([]*Fill, n)
	for f := t; f != nil; f = f.prev {
		n--
		chain[n] = f
	}
	return chain
}

// locateMax finds the earliest cell holding the chain maximum: the blocks
// are scanned oldest first for the first whose max-vector reaches the
// target, and that block is replayed to pin the first step and lowest lane.
// origin reports a chain whose best cell is still the root.
func (dp *DP) locateMax(tail *Fill) (loc maxLoc, origin bool, err error) {
	dp.Counters.Search++
	target := tail.Max
	if target <= 0 {
		return maxLoc{}, true, nil
	}
	chain := chainOf(tail)
	for fi, f := range chain {
		for bi := 0; bi < f.blkCount; bi++ {
			blk := dp.arena.blockAt(f.blkFirst + bi)
			if blk.blockMax() != target {
				continue
			}
			loc, ok := dp.replayLocate(f, bi, target)
			if !ok {
				return maxLoc{}, false, fmt.Errorf("%w: max vector disagrees with replay", ErrOutOfBand)
			}
			loc.fi = fi
			return loc, false, nil
		}
	}
	return maxLoc{}, false, fmt.Errorf("%w: chain max not present in any block", ErrOutOfBand)
}

// replayLocate re-runs a fragment up to and through the target block,
// steering with the stored direction words and consuming the stored
// character buffers, and returns the first (step, lane) where the running
// value meets the target.
func (dp *DP) replayLocate(f *Fill, targetBlk int, target int64) (maxLoc, bool) {
	affine := dp.al.cfg.Model == ModelAffine
	sv := &dp.al.sv

	st := f.head
	for bi := 0; bi <= targetBlk; bi++ {
		blk := dp.arena.blockAt(f.blkFirst + bi)
		na, nb := 0, 0
		for k := 0; k < int(blk.cnt); k++ {
			down := blk.dir>>uint(k)&1 == 1
			var fresh byte
			if down {
				fresh = blk.bcons[nb]
				nb++
			} else {
				fresh = blk.acons[na]
				na++
			}
			stepBand(&st, sv, affine, down, fresh)
			if bi != targetBlk {
				continue
			}
			for q := 0; q < BandWidth; q++ {
				if st.offset+int64(st.val[q]) != target {
					continue
				}
				return maxLoc{
					f:    f,
					bi:   bi,
					step: k,
					q:    q,
					ai:   st.cntA + int64(BandWidth/2) - int64(q),
					bj:   st.cntB + int64(q) - int64(BandWidth/2-1),
				}, true
			}
		}
		st.renorm()
	}
	return maxLoc{}, false
}
