package adaband

// Direction oracle. The dynamic variant keeps an accumulator over the band
// edge cells: when the A-side edge runs higher than the B-side edge the
// alignment is drifting A-ward and the band advances right, and vice versa.
// The decision is taken before the step; down is chosen while the
// accumulator is negative. The guided variant replays a caller tape and
// reports exhaustion so the fill loop can raise the termination status (the
// tape length doubles as the p-limit).

// dynamicDown is the dynamic oracle decision for the next step.
func dynamicDown(acc int32) bool {
	return acc < 0
}

// accDelta is the per-step accumulator update, applied after the step from
// the refreshed edge cells.
func accDelta(val *[BandWidth]int16) int32 {
	return int32(val[0]) - int32(val[BandWidth-1])
}

// guideTape is a caller-supplied direction tape: bit k (LSB-first within
// each byte) steers step k, 1 meaning down.
type guideTape struct {
	bits []byte
	n    int
	pos  int
}

func newGuideTape(bits []byte, n int) guideTape {
	if n > 8*len(bits) {
		n = 8 * len(bits)
	}
	return guideTape{bits: bits, n: n}
}

// next consumes one tape bit; ok is false once the tape is exhausted.
func (g *guideTape) next() (down, ok bool) {
	if g.pos >= g.n {
		return false, false
	}
	down = g.bits[g.pos>>3]>>(g.pos&7)&1 == 1
	g.pos++
	return down, true
}

// Traceback lane shifts, composed from the direction bits. A down step
// keeps the top predecessor in the same lane and the left predecessor one
// lane up; a right step mirrors that.
func topShift(down bool) int {
	if down {
		return 0
	}
	return -1
}

func leftShift(down bool) int {
	if down {
		return 1
	}
	return 0
}
