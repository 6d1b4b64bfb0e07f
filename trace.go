package adaband

import "fmt"

// PathSection describes one section-aligned slice of a traced path.
// Positions are relative to the named sections; PPos/PLen tile the path bit
// array exactly.
type PathSection struct {
	AID  uint32
	APos uint32
	ALen uint32
	BID  uint32
	BPos uint32
	BLen uint32
	PPos uint32
	PLen uint32
}

// Result is a concluded trace. Head and Tail are the caller-writable
// margins requested in the configuration.
type Result struct {
	Score int64
	Path  *Path
	Sec   []PathSection
	Qual  uint32 // reserved
	Clip  *ClipParams

	Head, Tail []byte
}

// Path unit codes used between the walk and the emitters.
const (
	unitM byte = 'M' // diagonal: one down bit then one right bit
	unitI byte = 'I' // down: consumes a B base
	unitD byte = 'D' // right: consumes an A base
)

// traceCursor walks block steps backwards across fragment boundaries.
type traceCursor struct {
	dp    *DP
	chain []*Fill
	fi    int // fragment index; -1 once before the chain start
	bi    int // block within fragment
	st    int // step within block
}

func (c *traceCursor) valid() bool {
	return c.fi >= 0
}

func (c *traceCursor) block() *block {
	f := c.chain[c.fi]
	return c.dp.arena.blockAt(f.blkFirst + c.bi)
}

func (c *traceCursor) dir() bool {
	return c.block().dir>>uint(c.st)&1 == 1
}

// dirPrev is the direction of the step before the cursor, falling back to
// the fragment head direction at the chain start.
func (c *traceCursor) dirPrev() bool {
	p := *c
	p.back1()
	if p.valid() {
		return p.dir()
	}
	return c.chain[0].headDirDown
}

// back1 retreats one step, hopping to the previous block or fragment as
// needed. Fragments without blocks are skipped.
func (c *traceCursor) back1() {
	if !c.valid() {
		return
	}
	c.st--
	if c.st >= 0 {
		return
	}
	c.bi--
	for c.bi < 0 {
		c.fi--
		for c.fi >= 0 && c.chain[c.fi].blkCount == 0 {
			c.fi--
		}
		if c.fi < 0 {
			return
		}
		c.bi = c.chain[c.fi].blkCount - 1
	}
	c.st = int(c.block().cnt) - 1
}

// walkBack reconstructs the alignment units from the located maximum back
// to the chain root. Units come out in walk order, i.e. the last operation
// first. An empty unit list means the best cell is the origin.
func (dp *DP) walkBack(tail *Fill) ([]byte, error) {
	loc, origin, err := dp.locateMax(tail)
	if err != nil {
		return nil, err
	}
	if origin {
		return nil, nil
	}

	cur := traceCursor{dp: dp, chain: chainOf(tail), fi: loc.fi, bi: loc.bi, st: loc.step}
	q := loc.q
	ai, bj := loc.ai, loc.bj
	units := make([]byte, 0, ai+bj)

	for ai > 0 || bj > 0 {
		if !cur.valid() {
			// the seed band: only boundary gap chains remain
			for ; bj > 0; bj-- {
				units = append(units, unitI)
			}
			for ; ai > 0; ai-- {
				units = append(units, unitD)
			}
			break
		}
		blk := cur.block()
		d := cur.dir()
		switch {
		case blk.maskD[cur.st]>>uint(q)&1 == 1:
			units = append(units, unitI)
			bj--
			q += topShift(d)
			cur.back1()
		case blk.maskR[cur.st]>>uint(q)&1 == 1:
			units = append(units, unitD)
			ai--
			q += leftShift(d)
			cur.back1()
		default:
			units = append(units, unitM)
			ai--
			bj--
			q += topShift(d) + leftShift(cur.dirPrev())
			cur.back1()
			cur.back1()
		}
		if q < 0 || q >= BandWidth {
			return nil, fmt.Errorf("%w: lane %d after %d units", ErrOutOfBand, q, len(units))
		}
	}
	return units, nil
}

// seg is one adopted section in global consumed-base coordinates.
type seg struct {
	id     uint32
	pos    uint32
	secLen uint32
	gstart int64
}

// sideSegs stitches the per-fill adoption records into the ordered segment
// list of one side.
func sideSegs(chain []*Fill, aSide bool) []seg {
	var segs []seg
	for _, f := range chain {
		ad := f.aAdopt
		if !aSide {
			ad = f.bAdopt
		}
		if ad.ok {
			segs = append(segs, seg{id: ad.id, pos: ad.pos, secLen: ad.secLen, gstart: ad.gstart})
		}
	}
	return segs
}

// secRec carries a record under construction plus the segment bookkeeping
// needed for closing decisions and reverse-coordinate flipping.
type secRec struct {
	ps               PathSection
	aSeg, bSeg       int // segment indices; -1 while the side is untouched
	aSecLen, bSecLen uint32
}

// buildSections slices forward-ordered units into section records. A record
// closes whenever the next consumed base of either sequence falls into a
// new segment; records therefore tile the path and stay monotonic in PPos.
func buildSections(units []byte, asegs, bsegs []seg) []secRec {
	var recs []secRec
	var ai, bj int64
	aIdx, bIdx := 0, 0
	ppos := uint32(0)

	cur := secRec{aSeg: -1, bSeg: -1}

	segAt := func(segs []seg, idx *int, g int64) int {
		for *idx+1 < len(segs) && segs[*idx+1].gstart <= g {
			*idx++
		}
		return *idx
	}
	closeRec := func() {
		cur.ps.PLen = ppos - cur.ps.PPos
		if cur.ps.PLen > 0 {
			recs = append(recs, cur)
		}
		cur = secRec{aSeg: -1, bSeg: -1}
		cur.ps.PPos = ppos
	}

	for _, u := range units {
		consumeA := u != unitI
		consumeB := u != unitD

		as, bs := -1, -1
		if consumeA {
			as = segAt(asegs, &aIdx, ai)
		}
		if consumeB {
			bs = segAt(bsegs, &bIdx, bj)
		}
		if (consumeA && cur.aSeg >= 0 && as != cur.aSeg) ||
			(consumeB && cur.bSeg >= 0 && bs != cur.bSeg) {
			closeRec()
		}
		if consumeA {
			if cur.aSeg < 0 {
				s := &asegs[as]
				cur.aSeg = as
				cur.ps.AID = s.id
				cur.ps.APos = uint32(ai-s.gstart) + s.pos
				cur.aSecLen = s.secLen
			}
			cur.ps.ALen++
			ai++
		}
		if consumeB {
			if cur.bSeg < 0 {
				s := &bsegs[bs]
				cur.bSeg = bs
				cur.ps.BID = s.id
				cur.ps.BPos = uint32(bj-s.gstart) + s.pos
				cur.bSecLen = s.secLen
			}
			cur.ps.BLen++
			bj++
		}
		if u == unitM {
			ppos += 2
		} else {
			ppos++
		}
	}
	closeRec()
	return recs
}

// mirrorSections flips records into the reverse frame: order reversed,
// positions measured from the section ends, ids complemented per the paired
// forward/reverse section convention.
func mirrorSections(fw []secRec) []secRec {
	out := make([]secRec, len(fw))
	ppos := uint32(0)
	for i := range fw {
		r := fw[len(fw)-1-i]
		r.ps.AID ^= 1
		r.ps.BID ^= 1
		r.ps.APos = r.aSecLen - r.ps.APos - r.ps.ALen
		r.ps.BPos = r.bSecLen - r.ps.BPos - r.ps.BLen
		r.ps.PPos = ppos
		ppos += r.ps.PLen
		out[i] = r
	}
	return out
}

// reverseUnits returns the units in the opposite order.
func reverseUnits(units []byte) []byte {
	out := make([]byte, len(units))
	for i, u := range units {
		out[len(units)-1-i] = u
	}
	return out
}

// Trace concludes one or both chain halves into an alignment result. The
// forward half is walked from its maximum back to its root; the reverse
// half, taken from an independently filled chain over reverse-complement
// sections, is emitted first with flipped coordinates so the two splice
// into one path. Either side may be nil. The spliced score is the plain sum
// of the two chain maxima.
func (dp *DP) Trace(fw, rv *Fill, clip *ClipParams) *Result {
	dp.Counters.Trace++
	if fw == nil && rv == nil {
		dp.lastErr = fmt.Errorf("%w: both tails nil", ErrInvalidArgument)
		return nil
	}

	var units []byte
	var recs []secRec
	var score int64

	if rv != nil {
		w, err := dp.walkBack(rv)
		if err != nil {
			dp.lastErr = err
			return nil
		}
		chain := chainOf(rv)
		fwOrder := reverseUnits(w)
		r := buildSections(fwOrder, sideSegs(chain, true), sideSegs(chain, false))
		recs = append(recs, mirrorSections(r)...)
		units = append(units, w...) // walk order is the reverse-frame order
		score += rv.Max
	}
	if fw != nil {
		w, err := dp.walkBack(fw)
		if err != nil {
			dp.lastErr = err
			return nil
		}
		chain := chainOf(fw)
		fwOrder := reverseUnits(w)
		r := buildSections(fwOrder, sideSegs(chain, true), sideSegs(chain, false))
		recs = append(recs, r...)
		units = append(units, fwOrder...)
		score += fw.Max
	}

	// retile PPos over the concatenation
	ppos := uint32(0)
	secs := make([]PathSection, 0, len(recs))
	for i := range recs {
		recs[i].ps.PPos = ppos
		ppos += recs[i].ps.PLen
		secs = append(secs, recs[i].ps)
	}

	res := &Result{
		Score: score,
		Path:  buildPath(units),
		Sec:   secs,
		Clip:  clip,
	}
	if m := dp.al.cfg.HeadMargin; m > 0 {
		res.Head = make([]byte, m)
	}
	if m := dp.al.cfg.TailMargin; m > 0 {
		res.Tail = make([]byte, m)
	}
	return res
}
