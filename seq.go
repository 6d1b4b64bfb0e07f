package adaband

// Canonical internal encoding: one-hot 4-bit codes. The zero value is the
// sentinel that pads the band before the origin and encodes 'N'; the pair
// score table maps it to the worst substitution entry.
const (
	baseA = 0x01
	baseC = 0x02
	baseG = 0x04
	baseT = 0x08
)

// asciiTable maps IUPAC characters (case-insensitive, indexed by the low
// five bits) to 4-bit codes.
var asciiTable = [32]byte{
	'A' & 0x1f: baseA,
	'C' & 0x1f: baseC,
	'G' & 0x1f: baseG,
	'T' & 0x1f: baseT,
	'U' & 0x1f: baseT,
	'R' & 0x1f: baseA | baseG,
	'Y' & 0x1f: baseC | baseT,
	'S' & 0x1f: baseG | baseC,
	'W' & 0x1f: baseA | baseT,
	'K' & 0x1f: baseG | baseT,
	'M' & 0x1f: baseA | baseC,
	'B' & 0x1f: baseC | baseG | baseT,
	'D' & 0x1f: baseA | baseG | baseT,
	'H' & 0x1f: baseA | baseC | baseT,
	'V' & 0x1f: baseA | baseC | baseG,
	'N' & 0x1f: 0,
}

// comp4 is the 4-bit complement: the bit order of the nibble reversed, so
// A<->T and C<->G while ambiguity codes map to their complements.
var comp4 = [16]byte{
	0x0, 0x8, 0x4, 0xc, 0x2, 0xa, 0x6, 0xe,
	0x1, 0x9, 0x5, 0xd, 0x3, 0xb, 0x7, 0xf,
}

// onehot2 expands a 2-bit code to the canonical form.
var onehot2 = [4]byte{baseA, baseC, baseG, baseT}

// fetchBase decodes the logical base k of a section into the canonical
// 4-bit code, honouring the section's fetch direction. Reverse fetch walks
// the encoded bytes backwards and complements: 2-bit codes are XORed with
// 0b11, 4-bit codes have their bit order flipped.
func fetchBase(sec *Section, format SeqFormat, k uint32) byte {
	idx := k
	if sec.Rev {
		idx = sec.Len - 1 - k
	}
	var code byte
	switch format {
	case SeqASCII:
		code = asciiTable[sec.Base[idx]&0x1f]
	case Seq2Bit:
		code = onehot2[sec.Base[idx]&0x03]
	case Seq4Bit:
		code = sec.Base[idx] & 0x0f
	case Seq2BitPacked:
		code = onehot2[(sec.Base[idx>>2]>>(2*(idx&3)))&0x03]
	case Seq4BitPacked:
		code = (sec.Base[idx>>1] >> (4 * (idx & 1))) & 0x0f
	case Seq1Bit64Packed:
		code = onehot2[(sec.Base[idx>>3]>>(idx&7))&0x01]
	default:
		panic("adaband: unknown sequence format")
	}
	if sec.Rev {
		code = comp4[code]
	}
	return code
}

// secState tracks the read position inside the currently adopted section of
// one side. A section is exhausted once pos reaches its length; the fill
// loop reports that through the UPDATE status bits.
type secState struct {
	sec Section
	pos uint32
}

func (ss *secState) exhausted() bool {
	return ss.pos >= ss.sec.Len
}

// window is the rolling buffer of canonical codes for one sequence side.
// buf[k] holds the base at global index base+k, where global index 0 is the
// chain root position; negative indices read the zero sentinel. The window
// is wide enough for one full block of one-sided advances plus the band.
type window struct {
	buf    [windowLen]byte
	base   int64
	loaded int64
}

func (w *window) init() {
	*w = window{base: -(bankFloor - 1)}
}

// at returns the code at global index g. The caller guarantees g < loaded;
// negative indices are the pre-origin sentinel region.
func (w *window) at(g int64) byte {
	if g < 0 {
		return 0
	}
	return w.buf[g-w.base]
}

// slide moves the window start forward to newBase, retaining the overlap.
// Content between loaded and the window end is undefined and never read.
func (w *window) slide(newBase int64) {
	if newBase <= w.base {
		return
	}
	shift := newBase - w.base
	if shift < windowLen {
		copy(w.buf[:], w.buf[shift:])
	}
	w.base = newBase
}

// refill tops the window up from the current section until either the
// window is full or the section is exhausted.
func (w *window) refill(ss *secState, format SeqFormat) {
	for w.loaded < w.base+windowLen && !ss.exhausted() {
		w.buf[w.loaded-w.base] = fetchBase(&ss.sec, format, ss.pos)
		ss.pos++
		w.loaded++
	}
}
