// Package adaband implements an adaptive banded pairwise sequence aligner.
//
// The aligner computes semi-global extension alignments between two
// nucleotide sequences with a difference-encoded dynamic programming band of
// fixed width. The band holds one anti-diagonal of 32 cells at a time; each
// advance moves the whole band one step right (consuming a base of sequence
// A) or down (consuming a base of sequence B), steered by an accumulator
// over the band edge cells or by a caller-supplied tape. Cells are carried as
// signed 8-bit differences against their neighbours, with small 16-bit lane
// values folded into a per-block 64-bit offset, so arbitrarily long
// alignments never overflow.
//
// Thirty-two consecutive anti-diagonals are fused into one block record that
// carries everything traceback needs: per-step direction bits, per-step gap
// masks, the consumed characters and the per-lane score maxima. Blocks are
// bump-allocated from a growing arena and chained through fixed-size tail
// records, so a long alignment is built incrementally: seed a chain with
// FillRoot, extend it section by section with Fill until the X-drop test
// fires, then recover the path with Trace.
//
// A DP context is not safe for concurrent use; spawn one context per
// goroutine from a shared Aligner, which is immutable after New.
package adaband

import "errors"

// Band geometry. The band is BandWidth cells wide and blocks fuse BlockSize
// consecutive anti-diagonals into one record.
const (
	BandWidth = 32
	BlockSize = 32

	// windowLen is the length of the rolling sequence windows. A block of
	// BlockSize one-sided advances reads at most BandWidth+BlockSize
	// consecutive bases of one sequence.
	windowLen = BandWidth + BlockSize

	// bankFloor is the lookahead each window must hold beyond the band
	// anchor before the band may advance on that side. The leading lane
	// reads BandWidth/2 bases ahead of the anchor.
	bankFloor = BandWidth/2 + 1

	// rootDebt is the number of banked bases consumed before the band can
	// take its first step; psum stays negative until the debt is paid.
	rootDebt = 2 * (bankFloor - 1)
)

// Status bits reported in Fill.Status. The low byte is caller-defined and
// carried through unchanged from the previous tail.
const (
	StatusMaskUser uint32 = 0x00ff
	StatusUpdateA  uint32 = 0x0100 // sequence A section fully read into the window
	StatusUpdateB  uint32 = 0x0200 // sequence B section fully read into the window
	StatusTerm     uint32 = 0x0400 // X-drop, tape end or internal termination
)

// Model selects the gap regime.
type Model uint8

const (
	// ModelLinear charges Gi+Ge per gap base.
	ModelLinear Model = iota
	// ModelAffine charges Gi+Ge for the first base of a run and Ge for
	// each further base.
	ModelAffine
)

// BandType selects the direction oracle.
type BandType uint8

const (
	// BandDynamic steers the band with the edge-cell accumulator.
	BandDynamic BandType = iota
	// BandGuided replays a caller-supplied direction tape.
	BandGuided
)

// SeqFormat identifies the encoding of a section's base bytes.
type SeqFormat uint8

const (
	SeqASCII        SeqFormat = iota // one IUPAC character per byte
	Seq2Bit                          // one byte per base, A=0 C=1 G=2 T=3
	Seq4Bit                          // one byte per base, A=1 C=2 G=4 T=8
	Seq2BitPacked                    // four bases per byte, LSB first
	Seq4BitPacked                    // two bases per byte, low nibble first
	Seq1Bit64Packed                  // one bit per base in 64-bit words, 0=A 1=C
)

// SeqDir restricts which fetch directions a sequence side accepts.
type SeqDir uint8

const (
	DirFWOnly SeqDir = iota // reject reverse-complement sections
	DirFWRV                 // allow both directions
)

// DefaultXDrop is used when Config.XDrop is zero.
const DefaultXDrop = 100

// Errors surfaced by the public entry points. The DP context additionally
// records the most recent one; see (*DP).Err.
var (
	ErrInvalidArgument = errors.New("adaband: invalid argument")
	ErrInvalidScore    = errors.New("adaband: score matrix not encodable in 8-bit diffs")
	ErrOutOfMemory     = errors.New("adaband: arena exhausted")
	ErrOutOfBand       = errors.New("adaband: traceback out of band")
	ErrOverflow        = errors.New("adaband: cell value overflow")
)

// ScoreMatrix is the substitution table plus affine gap costs. Sub is
// row-major over 2-bit base codes: Sub[4*a+b] is the score of aligning base
// a of sequence A against base b of sequence B. Gap costs are negative;
// Gi+Ge <= -1 must hold on both sides.
type ScoreMatrix struct {
	Sub                [16]int8
	GiA, GeA, GiB, GeB int8
}

// SimpleScore builds a match/mismatch matrix with the given affine costs.
// Match m must be positive; x, gi and ge are magnitudes and applied as
// penalties.
func SimpleScore(m, x, gi, ge int8) ScoreMatrix {
	var s ScoreMatrix
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			if a == b {
				s.Sub[4*a+b] = m
			} else {
				s.Sub[4*a+b] = -x
			}
		}
	}
	s.GiA, s.GiB = -gi, -gi
	s.GeA, s.GeB = -ge, -ge
	return s
}

// Config collects the immutable aligner parameters. The zero value selects
// the linear model, the dynamic band, ASCII input on both sides, forward
// fetch only, and the default score matrix (match 2, mismatch -3, gap open
// -5, gap extend -1).
type Config struct {
	Model Model
	Band  BandType

	// XDrop terminates a chain when the centre cell drops this far below
	// the chain maximum; zero selects DefaultXDrop.
	XDrop uint16

	// Score is the substitution and gap cost set; nil selects the default.
	Score *ScoreMatrix

	SeqAFormat, SeqBFormat SeqFormat
	SeqADir, SeqBDir       SeqDir

	// HeadMargin and TailMargin reserve extra bytes around result path
	// buffers for callers that splice their own framing in place.
	HeadMargin, TailMargin uint16

	// MemInit is the block capacity of the first arena chunk; zero selects
	// the default.
	MemInit int
}

// Section is one contiguous chunk of one input sequence. Base holds the
// encoded bytes; Rev requests reverse-complement fetch, which the configured
// SeqDir must permit.
type Section struct {
	ID   uint32
	Len  uint32
	Base []byte
	Rev  bool
}

// ClipParams carries the head/tail clip characters recorded on a trace
// result for downstream printers.
type ClipParams struct {
	SeqAHeadType, SeqATailType byte
	SeqBHeadType, SeqBTailType byte
}

// Counters is the per-context operation counter bundle.
type Counters struct {
	Fill   uint64 // fill calls
	Search uint64 // max localisations
	Trace  uint64 // trace calls
}
