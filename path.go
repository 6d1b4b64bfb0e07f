package adaband

import (
	"math/bits"
	"strconv"
)

// Path is the bit-packed alignment path. Bits run LSB-first through the
// little-endian words: the first operation sits at bit Offset of Array[0]
// and the last at the top of the final word, so Offset+Len is always a
// multiple of 32. A set bit is a downward step (an insertion on B); a clear
// bit a rightward step (a deletion); a diagonal contributes a set bit then
// a clear one.
type Path struct {
	Len    uint32
	Offset uint32
	Array  []uint32
}

// buildPath packs forward-ordered units into the path representation.
func buildPath(units []byte) *Path {
	plen := 0
	for _, u := range units {
		if u == unitM {
			plen += 2
		} else {
			plen++
		}
	}
	off := (32 - plen%32) % 32
	arr := make([]uint32, (plen+off)/32)
	pos := off
	for _, u := range units {
		switch u {
		case unitM:
			arr[pos>>5] |= 1 << uint(pos&31)
			pos += 2
		case unitI:
			arr[pos>>5] |= 1 << uint(pos&31)
			pos++
		default:
			pos++
		}
	}
	return &Path{Len: uint32(plen), Offset: uint32(off), Array: arr}
}

// String decodes the path to its character form, 'D' for a downward step
// and 'R' for a rightward one.
func (p *Path) String() string {
	out := make([]byte, p.Len)
	for k := uint32(0); k < p.Len; k++ {
		pos := p.Offset + k
		if p.Array[pos>>5]>>uint(pos&31)&1 == 1 {
			out[k] = 'D'
		} else {
			out[k] = 'R'
		}
	}
	return string(out)
}

// ParsePath re-encodes a 'D'/'R' string into the packed form, recovering
// the canonical end-aligned offset. It is the inverse of String up to the
// leading pad bits.
func ParsePath(s string) (*Path, error) {
	plen := len(s)
	off := (32 - plen%32) % 32
	arr := make([]uint32, (plen+off)/32)
	for k := 0; k < plen; k++ {
		switch s[k] {
		case 'D':
			pos := off + k
			arr[pos>>5] |= 1 << uint(pos&31)
		case 'R':
		default:
			return nil, ErrInvalidArgument
		}
	}
	return &Path{Len: uint32(plen), Offset: uint32(off), Array: arr}, nil
}

// pathU64 loads the 64 bits starting at the given bit position; bits past
// the array read as zero.
func pathU64(arr []uint32, pos uint64) uint64 {
	w := int(pos >> 5)
	sh := uint(pos & 31)
	var lo, mid, hi uint64
	if w < len(arr) {
		lo = uint64(arr[w])
	}
	if w+1 < len(arr) {
		mid = uint64(arr[w+1])
	}
	v := lo | mid<<32
	if sh == 0 {
		return v
	}
	if w+2 < len(arr) {
		hi = uint64(arr[w+2])
	}
	return v>>sh | hi<<(64-sh)
}

const diagPattern = uint64(0x5555555555555555)

// Printer receives one CIGAR run. Ops are 'M', 'I' and 'D'.
type Printer func(n uint64, op byte)

// ScanCigarForward parses the path bits front to back, emitting runs of
// alternating bits as M (two bits per column) and runs of identical bits as
// I (ones) or D (zeros). A lone set bit between an insertion run and the
// following column belongs to the column; the scanner accounts for that by
// shortening interior insertion runs by one.
func ScanCigarForward(emit Printer, arr []uint32, offset, plen uint32) {
	lim := uint64(offset) + uint64(plen)
	ridx := uint64(plen)

	// runs longer than one 64-bit window arrive in chunks; merge them
	var pn uint64
	var pop byte
	emitRun := func(n uint64, op byte) {
		if n == 0 {
			return
		}
		if op == pop {
			pn += n
			return
		}
		if pn > 0 {
			emit(pn, pop)
		}
		pn, pop = n, op
	}
	defer func() {
		if pn > 0 {
			emit(pn, pop)
		}
	}()

	for ridx > 0 {
		rs := ridx
		for {
			m := uint64(bits.TrailingZeros64(pathU64(arr, lim-ridx) ^ diagPattern))
			adv := m &^ 1
			if adv > ridx {
				adv = ridx &^ 1
			}
			ridx -= adv
			if adv < 64 {
				break
			}
		}
		if m := (rs - ridx) >> 1; m > 0 {
			emitRun(m, 'M')
		}
		if ridx == 0 {
			break
		}

		a := pathU64(arr, lim-ridx)
		var g uint64
		var op byte
		if a&1 == 1 {
			run := uint64(bits.TrailingZeros64(^a))
			if run > ridx {
				run = ridx
			}
			g = run
			if run < ridx {
				g = run - 1 // the last set bit heads the next column
			}
			op = 'I'
		} else {
			g = uint64(bits.TrailingZeros64(a))
			if g > ridx {
				g = ridx
			}
			op = 'D'
		}
		if g > 0 {
			emitRun(g, op)
			ridx -= g
		} else {
			// malformed stream; drop the dangling bit rather than loop
			ridx--
		}
	}
}

// ScanCigarReverse emits the same runs as the forward scanner in the
// opposite order, for printing a path from its tail end.
func ScanCigarReverse(emit Printer, arr []uint32, offset, plen uint32) {
	type run struct {
		n  uint64
		op byte
	}
	var runs []run
	ScanCigarForward(func(n uint64, op byte) {
		runs = append(runs, run{n, op})
	}, arr, offset, plen)
	for i := len(runs) - 1; i >= 0; i-- {
		emit(runs[i].n, runs[i].op)
	}
}

// DumpCigarForward appends the forward CIGAR to dst.
func DumpCigarForward(dst []byte, arr []uint32, offset, plen uint32) []byte {
	ScanCigarForward(func(n uint64, op byte) {
		dst = strconv.AppendUint(dst, n, 10)
		dst = append(dst, op)
	}, arr, offset, plen)
	return dst
}

// DumpCigarReverse appends the reversed CIGAR to dst.
func DumpCigarReverse(dst []byte, arr []uint32, offset, plen uint32) []byte {
	ScanCigarReverse(func(n uint64, op byte) {
		dst = strconv.AppendUint(dst, n, 10)
		dst = append(dst, op)
	}, arr, offset, plen)
	return dst
}

// Cigar renders the result path as a forward CIGAR string.
func (r *Result) Cigar() string {
	if r.Path == nil || r.Path.Len == 0 {
		return ""
	}
	return string(DumpCigarForward(nil, r.Path.Array, r.Path.Offset, r.Path.Len))
}

// Emitter is the capability bundle behind the rendering variants: a
// diagonal run, a gap run (down = insertion on B), and a finalisation hook.
type Emitter interface {
	Diagonal(n uint64)
	Gap(n uint64, down bool)
	Finalize()
}

// EmitPathForward feeds a path through an emitter front to back.
func EmitPathForward(e Emitter, arr []uint32, offset, plen uint32) {
	ScanCigarForward(func(n uint64, op byte) {
		if op == 'M' {
			e.Diagonal(n)
		} else {
			e.Gap(n, op == 'I')
		}
	}, arr, offset, plen)
	e.Finalize()
}

// DirEmitter renders the run stream back into the character form.
type DirEmitter struct {
	Buf []byte
}

func (d *DirEmitter) Diagonal(n uint64) {
	for ; n > 0; n-- {
		d.Buf = append(d.Buf, 'D', 'R')
	}
}

func (d *DirEmitter) Gap(n uint64, down bool) {
	c := byte('R')
	if down {
		c = 'D'
	}
	for ; n > 0; n-- {
		d.Buf = append(d.Buf, c)
	}
}

func (d *DirEmitter) Finalize() {}

// GappedEmitter renders a two-line gapped alignment from the consumed
// sequence characters.
type GappedEmitter struct {
	A, B       []byte // consumed characters, in path order
	LineA      []byte
	LineB      []byte
	apos, bpos int
}

func (g *GappedEmitter) Diagonal(n uint64) {
	for ; n > 0; n-- {
		g.LineA = append(g.LineA, g.A[g.apos])
		g.LineB = append(g.LineB, g.B[g.bpos])
		g.apos++
		g.bpos++
	}
}

func (g *GappedEmitter) Gap(n uint64, down bool) {
	for ; n > 0; n-- {
		if down {
			g.LineA = append(g.LineA, '-')
			g.LineB = append(g.LineB, g.B[g.bpos])
			g.bpos++
		} else {
			g.LineA = append(g.LineA, g.A[g.apos])
			g.LineB = append(g.LineB, '-')
			g.apos++
		}
	}
}

func (g *GappedEmitter) Finalize() {}
