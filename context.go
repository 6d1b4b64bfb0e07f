package adaband

import "fmt"

// DP is the per-goroutine alignment context: the arena behind every fill
// and trace, the operation counters and the last-error slot. A DP must not
// be shared between goroutines; spawn one per worker from the same Aligner.
type DP struct {
	al      *Aligner
	arena   arena
	lastErr error

	Counters Counters
}

// NewDP spawns a fresh DP context. The first arena chunk is allocated
// lazily on the first fill.
func (al *Aligner) NewDP() *DP {
	dp := &DP{al: al}
	dp.arena.init(al.cfg.MemInit)
	return dp
}

// Err reports the error behind the most recent nil fill or trace result.
func (dp *DP) Err() error {
	return dp.lastErr
}

// Flush invalidates every fill and block handed out by this context while
// keeping the arena chunks for reuse.
func (dp *DP) Flush() {
	dp.arena.flush()
	dp.lastErr = nil
}

// Clean releases the arena entirely. The context may be reused afterwards;
// chunks are reallocated on demand.
func (dp *DP) Clean() {
	dp.arena.clean()
	dp.lastErr = nil
}

// FillRoot seeds a fresh chain at (apos, bpos) inside the given sections
// and fills until the first terminal condition. It returns nil on error;
// see Err.
func (dp *DP) FillRoot(asec Section, apos uint32, bsec Section, bpos uint32) *Fill {
	if dp.al.cfg.Band == BandGuided {
		return dp.fail(fmt.Errorf("%w: guided band requires FillRootGuided", ErrInvalidArgument))
	}
	return dp.fill(fillArgs{asec: &asec, bsec: &bsec, apos: apos, bpos: bpos, root: true})
}

// Fill extends a chain into new sections. A section argument is adopted
// only when the previous status flagged that side with UpdateA/UpdateB; otherwise
// the partially read section carries on and the argument is ignored.
func (dp *DP) Fill(prev *Fill, asec, bsec Section) *Fill {
	if prev == nil {
		return dp.fail(fmt.Errorf("%w: nil tail", ErrInvalidArgument))
	}
	if dp.al.cfg.Band == BandGuided {
		return dp.fail(fmt.Errorf("%w: guided band requires FillGuided", ErrInvalidArgument))
	}
	return dp.fill(fillArgs{prev: prev, asec: &asec, bsec: &bsec})
}

// FillRootGuided seeds a chain steered by the direction tape: bit k of the
// tape (LSB-first per byte) directs step k, set meaning down. The fill
// terminates with StatusTerm when the tape runs out, which doubles as the
// p-limit.
func (dp *DP) FillRootGuided(asec Section, apos uint32, bsec Section, bpos uint32, tape []byte, bits int) *Fill {
	if dp.al.cfg.Band != BandGuided {
		return dp.fail(fmt.Errorf("%w: dynamic band rejects a guide tape", ErrInvalidArgument))
	}
	g := newGuideTape(tape, bits)
	return dp.fill(fillArgs{asec: &asec, bsec: &bsec, apos: apos, bpos: bpos, root: true, guide: &g})
}

// FillGuided extends a guided chain with a fresh tape.
func (dp *DP) FillGuided(prev *Fill, asec, bsec Section, tape []byte, bits int) *Fill {
	if prev == nil {
		return dp.fail(fmt.Errorf("%w: nil tail", ErrInvalidArgument))
	}
	if dp.al.cfg.Band != BandGuided {
		return dp.fail(fmt.Errorf("%w: dynamic band rejects a guide tape", ErrInvalidArgument))
	}
	g := newGuideTape(tape, bits)
	return dp.fill(fillArgs{prev: prev, asec: &asec, bsec: &bsec, guide: &g})
}
