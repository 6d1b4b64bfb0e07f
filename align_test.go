package adaband

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randSeq(rng *rand.Rand, n int) string {
	const bases = "ACGT"
	out := make([]byte, n)
	for i := range out {
		out[i] = bases[rng.Intn(4)]
	}
	return string(out)
}

// mutateSeq introduces mismatches at rate x and indels at rate d, keeping
// the indel wave within +-bw of the diagonal.
func mutateSeq(rng *rand.Rand, s string, x, d float64, bw int) string {
	const bases = "ACGT"
	wave := 0
	out := make([]byte, 0, len(s))
	j := 0
	src := func() byte {
		if j < len(s) {
			c := s[j]
			j++
			return c
		}
		return bases[rng.Intn(4)]
	}
	for i := 0; i < len(s); i++ {
		if rng.Float64() < x {
			out = append(out, bases[rng.Intn(4)])
			src()
		} else if rng.Float64() < d {
			if rng.Intn(2) == 1 && wave > -bw+1 {
				src() // deletion
				out = append(out, src())
				wave--
			} else if wave < bw-2 {
				out = append(out, bases[rng.Intn(4)]) // insertion
				wave++
			} else {
				out = append(out, src())
			}
		} else {
			out = append(out, src())
		}
	}
	return string(out)
}

// runTailedChain drives a full cross-test chain: the whole tailed body as
// the root section pair, then mismatch-margin tails supplied while either
// side keeps asking.
func runTailedChain(t *testing.T, dp *DP, abody, bbody string) *Fill {
	t.Helper()
	asec := mkSec(0, abody)
	bsec := mkSec(4, bbody)
	atail := tailSec(2, 'C', 20)
	btail := tailSec(6, 'G', 20)

	f := dp.FillRoot(asec, 0, bsec, 0)
	require.NotNil(t, f, "%v", dp.Err())
	for i := 0; i < 8 && f.Status&StatusTerm == 0; i++ {
		f = dp.Fill(f, atail, btail)
		require.NotNil(t, f)
	}
	return f
}

func TestCrossRandomLinear(t *testing.T) {
	rng := rand.New(rand.NewSource(0x1a2b3c))
	al, err := New(Config{XDrop: 200})
	require.NoError(t, err)
	sc := al.cfg.Score

	for i := 0; i < 16; i++ {
		body := randSeq(rng, 1000)
		a := body + randSeq(rng, 64) + strings.Repeat("C", 20)
		b := mutateSeq(rng, body, 0.1, 0.1, 24) + randSeq(rng, 64) + strings.Repeat("G", 20)

		dp := al.NewDP()
		f := runTailedChain(t, dp, a, b)
		want := naiveScore(a, b, sc, ModelLinear)
		require.Equal(t, want, f.Max, "iteration %d", i)

		r := dp.Trace(f, nil, nil)
		require.NotNil(t, r, "%v", dp.Err())
		assert.Equal(t, want, r.Score)
		assert.Equal(t, r.Score, replayScore(r, a, b, sc, ModelLinear),
			"replaying the path must reproduce the score")
		checkTiling(t, r)
		dp.Clean()
	}
}

func TestCrossRandomAffine(t *testing.T) {
	rng := rand.New(rand.NewSource(0x7e57))
	al, err := New(Config{Model: ModelAffine, XDrop: 200})
	require.NoError(t, err)
	sc := al.cfg.Score

	for i := 0; i < 12; i++ {
		body := randSeq(rng, 1000)
		a := body + randSeq(rng, 64) + strings.Repeat("C", 20)
		b := mutateSeq(rng, body, 0.1, 0.1, 24) + randSeq(rng, 64) + strings.Repeat("G", 20)

		dp := al.NewDP()
		f := runTailedChain(t, dp, a, b)
		want := naiveScore(a, b, sc, ModelAffine)
		require.Equal(t, want, f.Max, "iteration %d", i)

		r := dp.Trace(f, nil, nil)
		require.NotNil(t, r)
		assert.Equal(t, want, r.Score)
		checkTiling(t, r)
		dp.Clean()
	}
}

func TestCrossIdenticalPair(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	al, err := New(Config{})
	require.NoError(t, err)

	body := randSeq(rng, 500)
	a := body + strings.Repeat("C", 20)
	b := body + strings.Repeat("G", 20)

	dp := al.NewDP()
	f := runTailedChain(t, dp, a, b)
	assert.Equal(t, int64(2*len(body)), f.Max, "full-length match")

	r := dp.Trace(f, nil, nil)
	require.NotNil(t, r)
	assert.Equal(t, uint32(2*len(body)), r.Path.Len)
	assert.Equal(t, "500M", r.Cigar())
}

func TestNaiveReference(t *testing.T) {
	sc := SimpleScore(2, 3, 5, 1)

	// hand-checked values
	assert.Equal(t, int64(8), naiveScore("AAAA", "AAAA", &sc, ModelLinear))
	assert.Equal(t, int64(8), naiveScore("AAAA", "AAAA", &sc, ModelAffine))
	assert.Equal(t, int64(8), naiveScore("TTTTACGTACGT", "TTACGTACGT", &sc, ModelLinear))
	assert.Equal(t, int64(13), naiveScore("TTTTACGTACGT", "TTACGTACGT", &sc, ModelAffine))
	assert.Equal(t, int64(8), naiveScore("TTACGTACGT", "TTTTACGTACGT", &sc, ModelLinear))
	assert.Equal(t, int64(13), naiveScore("TTACGTACGT", "TTTTACGTACGT", &sc, ModelAffine))
}
