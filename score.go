package adaband

import "fmt"

// scoreVec is the broadcast-ready form of a ScoreMatrix: the 256-entry pair
// score table over packed 4-bit codes plus the per-step gap addends for the
// configured model. Linear mode folds the open cost into the extend so the
// kernel sees a single per-base gap.
type scoreVec struct {
	pair [256]int8 // pair[a|b<<4], 4-bit codes

	geA, geB int8 // per-step gap extends
	giA, giB int8 // gap opens; zero in linear mode

	maxSub, minSub int8

	// obDiff is stored in a band-edge lane whose neighbour falls outside
	// the band. It is chosen so a gap candidate built from it always loses
	// to the worst real candidate.
	obDiff int8
	// deCap is the off-band clamp for the affine E/F diffs.
	deCap int8
}

// buildScoreVec validates the matrix and derives the broadcast vectors.
// Validation guarantees that every difference the fill kernel produces fits
// a signed byte; see the bound comments inline.
func buildScoreVec(m *ScoreMatrix, model Model) (scoreVec, error) {
	var sv scoreVec

	maxSub, minSub := m.Sub[0], m.Sub[0]
	for _, s := range m.Sub[1:] {
		if s > maxSub {
			maxSub = s
		}
		if s < minSub {
			minSub = s
		}
	}
	if maxSub < 1 {
		return sv, fmt.Errorf("%w: max substitution score %d < 1", ErrInvalidScore, maxSub)
	}
	if maxSub > 63 || minSub < -63 {
		return sv, fmt.Errorf("%w: substitution scores out of [-63, 63]", ErrInvalidScore)
	}
	if m.GiA > 0 || m.GiB > 0 || m.GeA >= 0 || m.GeB >= 0 ||
		m.GiA+m.GeA > -1 || m.GiB+m.GeB > -1 {
		return sv, fmt.Errorf("%w: gap costs must satisfy gi<=0, ge<0, gi+ge<=-1", ErrInvalidScore)
	}

	gapA, gapB := int(m.GiA)+int(m.GeA), int(m.GiB)+int(m.GeB)
	magTot := -gapA
	if -gapB > magTot {
		magTot = -gapB
	}
	// Diff bound: dh/dv stay within [gap, maxSub-obDiff] and the affine
	// E/F diffs within [0, dh-gap]; keeping spread+3*mag under the byte
	// range covers every case including the off-band clamp.
	if int(maxSub)-int(minSub)+3*magTot > 126 {
		return sv, fmt.Errorf("%w: score spread too wide for 8-bit diffs", ErrInvalidScore)
	}

	sv.maxSub, sv.minSub = maxSub, minSub
	switch model {
	case ModelLinear:
		sv.geA, sv.geB = int8(gapA), int8(gapB)
		sv.giA, sv.giB = 0, 0
	case ModelAffine:
		sv.geA, sv.geB = m.GeA, m.GeB
		sv.giA, sv.giB = m.GiA, m.GiB
	default:
		return sv, fmt.Errorf("%w: unknown gap model %d", ErrInvalidArgument, model)
	}

	gLow := gapA
	if gapB < gLow {
		gLow = gapB
	}
	sv.obDiff = int8(int(minSub) + 2*gLow)
	sv.deCap = 127

	buildPairTable(&sv.pair, &m.Sub, minSub)
	return sv, nil
}

// buildPairTable expands the 4x4 substitution table over packed 4-bit codes.
// Ambiguity codes score as the best constituent pair; the zero sentinel
// (padding before the origin or an encoded 'N') scores as the worst entry so
// virtual cells decay and never win the maximum.
func buildPairTable(pair *[256]int8, sub *[16]int8, minSub int8) {
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			s := minSub
			if a != 0 && b != 0 {
				best := int8(-128)
				for ai := 0; ai < 4; ai++ {
					if a&(1<<ai) == 0 {
						continue
					}
					for bi := 0; bi < 4; bi++ {
						if b&(1<<bi) == 0 {
							continue
						}
						if v := sub[4*ai+bi]; v > best {
							best = v
						}
					}
				}
				s = best
			}
			pair[a|b<<4] = s
		}
	}
}

// seedState is the band state at a chain root: the middle-delta vector (the
// absolute cell values of the seed anti-diagonal) and the diff vectors
// linking it to the virtual anti-diagonal before it. The seed describes the
// gap-extension field around the origin: lane values fall away from the
// centre at the per-base gap rate, which keeps every diff representable and
// every pre-origin path dominated by a real one.
type seedState struct {
	md             [BandWidth]int16
	dh, dv, de, df [BandWidth]int8
}

// buildSeed derives the root band for the configured model. The band centre
// straddles the origin: lane BandWidth/2-1 holds the first A-gap cell and
// lane BandWidth/2 the first B-gap cell; the origin itself sits one
// anti-diagonal behind and is reconstructed through the diff vectors.
func buildSeed(m *ScoreMatrix, model Model) seedState {
	var s seedState
	c := BandWidth/2 - 1 // 15

	giA, geA := int(m.GiA), int(m.GeA)
	giB, geB := int(m.GiB), int(m.GeB)
	if model == ModelLinear {
		geA, geB = giA+geA, giB+geB
		giA, giB = 0, 0
	}

	for q := 0; q < BandWidth; q++ {
		if q <= c {
			d := 2*(c-q) + 1 // gap distance |j-i| of lane q
			s.md[q] = int16(giA + geA*d)
			s.dh[q] = int8(geA)
			s.dv[q] = int8(-geA)
			s.de[q] = 0
			s.df[q] = int8(-giB)
		} else {
			d := 2*(q-c) - 1
			s.md[q] = int16(giB + geB*d)
			s.dh[q] = int8(-geB)
			s.dv[q] = int8(geB)
			s.de[q] = int8(-giA)
			s.df[q] = 0
		}
	}
	// Diffs that cross the origin carry the full open+extend step.
	s.dh[c] = int8(giA + geA)
	s.dv[c+1] = int8(giB + geB)
	return s
}

// defaultScore is the matrix selected by a nil Config.Score: match 2,
// mismatch -3, gap open -5, gap extend -1.
func defaultScore() ScoreMatrix {
	return SimpleScore(2, 3, 5, 1)
}

// Aligner is the immutable outer context: validated configuration, derived
// score vectors and the root band template. It is safe to share across
// goroutines; spawn one DP context per goroutine with NewDP.
type Aligner struct {
	cfg  Config
	sv   scoreVec
	seed seedState
	tx   int64 // X-drop threshold
}

// New validates cfg and builds an Aligner. A nil score matrix selects the
// default; an unencodable matrix is rejected with ErrInvalidScore before any
// state is allocated.
func New(cfg Config) (*Aligner, error) {
	score := cfg.Score
	if score == nil {
		def := defaultScore()
		score = &def
	}
	if cfg.SeqAFormat > Seq1Bit64Packed || cfg.SeqBFormat > Seq1Bit64Packed {
		return nil, fmt.Errorf("%w: unknown sequence format", ErrInvalidArgument)
	}
	sv, err := buildScoreVec(score, cfg.Model)
	if err != nil {
		return nil, err
	}
	tx := int64(cfg.XDrop)
	if tx == 0 {
		tx = DefaultXDrop
	}
	a := &Aligner{
		cfg:  cfg,
		sv:   sv,
		seed: buildSeed(score, cfg.Model),
		tx:   tx,
	}
	a.cfg.Score = score
	return a, nil
}
