package adaband

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enc2bit(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = byte(encodeBase2(s[i]))
	}
	return out
}

func enc4bit(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = asciiTable[s[i]&0x1f]
	}
	return out
}

func enc2bitPacked(s string) []byte {
	out := make([]byte, (len(s)+3)/4)
	for i := 0; i < len(s); i++ {
		out[i>>2] |= byte(encodeBase2(s[i])) << (2 * (i & 3))
	}
	return out
}

func enc4bitPacked(s string) []byte {
	out := make([]byte, (len(s)+1)/2)
	for i := 0; i < len(s); i++ {
		out[i>>1] |= asciiTable[s[i]&0x1f] << (4 * (i & 1))
	}
	return out
}

func enc1bitPacked(s string) []byte {
	out := make([]byte, (len(s)+7)/8)
	for i := 0; i < len(s); i++ {
		if s[i] == 'C' {
			out[i>>3] |= 1 << (i & 7)
		}
	}
	return out
}

func TestFetchBaseFormats(t *testing.T) {
	const s = "ACGTACGTTGCA"
	want := enc4bit(s)

	cases := []struct {
		name   string
		format SeqFormat
		base   []byte
	}{
		{"ascii", SeqASCII, []byte(s)},
		{"2bit", Seq2Bit, enc2bit(s)},
		{"4bit", Seq4Bit, enc4bit(s)},
		{"2bit packed", Seq2BitPacked, enc2bitPacked(s)},
		{"4bit packed", Seq4BitPacked, enc4bitPacked(s)},
	}
	for _, c := range cases {
		sec := Section{ID: 0, Len: uint32(len(s)), Base: c.base}
		for k := 0; k < len(s); k++ {
			assert.Equal(t, want[k], fetchBase(&sec, c.format, uint32(k)), "%s at %d", c.name, k)
		}
	}
}

func TestFetchBaseReverseComplement(t *testing.T) {
	const s = "ACGTTGCA"
	rc := revComp(s)
	want := enc4bit(s)

	// a reverse section over the reverse-complement bytes fetches the
	// original sequence
	sec := Section{ID: 1, Len: uint32(len(s)), Base: []byte(rc), Rev: true}
	for k := 0; k < len(s); k++ {
		assert.Equal(t, want[k], fetchBase(&sec, SeqASCII, uint32(k)), "at %d", k)
	}

	sec2 := Section{ID: 1, Len: uint32(len(s)), Base: enc2bit(rc), Rev: true}
	for k := 0; k < len(s); k++ {
		assert.Equal(t, want[k], fetchBase(&sec2, Seq2Bit, uint32(k)))
	}
}

func TestFetchBase1Bit(t *testing.T) {
	const s = "ACCACAAC"
	sec := Section{ID: 0, Len: uint32(len(s)), Base: enc1bitPacked(s)}
	for k := 0; k < len(s); k++ {
		want := byte(baseA)
		if s[k] == 'C' {
			want = baseC
		}
		assert.Equal(t, want, fetchBase(&sec, Seq1Bit64Packed, uint32(k)))
	}
}

func TestComp4Involution(t *testing.T) {
	for c := 0; c < 16; c++ {
		assert.Equal(t, byte(c), comp4[comp4[c]])
	}
	assert.Equal(t, byte(baseT), comp4[baseA])
	assert.Equal(t, byte(baseG), comp4[baseC])
}

func TestWindowSlideRefill(t *testing.T) {
	var w window
	w.init()
	assert.Equal(t, int64(-(bankFloor - 1)), w.base)
	assert.Equal(t, byte(0), w.at(-5), "pre-origin reads the sentinel")

	ss := secState{sec: mkSec(0, "ACGTACGT")}
	w.refill(&ss, SeqASCII)
	assert.Equal(t, int64(8), w.loaded)
	assert.True(t, ss.exhausted())
	assert.Equal(t, byte(baseA), w.at(0))
	assert.Equal(t, byte(baseT), w.at(3))

	// chain a second section seamlessly
	ss2 := secState{sec: mkSec(1, "TTTT")}
	w.refill(&ss2, SeqASCII)
	assert.Equal(t, int64(12), w.loaded)
	assert.Equal(t, byte(baseT), w.at(8))

	w.slide(4)
	assert.Equal(t, int64(4), w.base)
	assert.Equal(t, byte(baseA), w.at(4), "slide retains the overlap")
	assert.Equal(t, byte(baseT), w.at(11))
}

// All input encodings must produce identical alignments.
func TestFormatsAgreeEndToEnd(t *testing.T) {
	const a, b = "ACGTACGTACGT", "ACGTACGTACGT"

	run := func(format SeqFormat, enc func(string) []byte) *Result {
		al, err := New(Config{SeqAFormat: format, SeqBFormat: format})
		require.NoError(t, err)
		dp := al.NewDP()
		mk := func(id uint32, s string) Section {
			return Section{ID: id, Len: uint32(len(s)), Base: enc(s)}
		}
		f := dp.FillRoot(mk(0, a), 0, mk(4, b), 0)
		require.NotNil(t, f)
		f = dp.Fill(f, mk(0, a), mk(4, b))
		require.NotNil(t, f)
		f = dp.Fill(f, mk(2, "GGGGGGGGGGGGGGGGGGGG"), mk(6, "CCCCCCCCCCCCCCCCCCCC"))
		require.NotNil(t, f)
		r := dp.Trace(f, nil, nil)
		require.NotNil(t, r)
		return r
	}

	ref := run(SeqASCII, func(s string) []byte { return []byte(s) })
	for _, c := range []struct {
		format SeqFormat
		enc    func(string) []byte
	}{
		{Seq2Bit, enc2bit},
		{Seq4Bit, enc4bit},
		{Seq2BitPacked, enc2bitPacked},
		{Seq4BitPacked, enc4bitPacked},
	} {
		r := run(c.format, c.enc)
		assert.Equal(t, ref.Score, r.Score)
		assert.Equal(t, ref.Path.Array, r.Path.Array)
		assert.Equal(t, ref.Sec, r.Sec)
	}
}

// Aligning against a reverse-complement section must reproduce the forward
// result when the underlying sequence is the same.
func TestReverseSectionEndToEnd(t *testing.T) {
	const a, b = "ACGTACGTACGT", "ACGTACGTACGT"

	al, err := New(Config{SeqBDir: DirFWRV})
	require.NoError(t, err)
	dp := al.NewDP()

	brc := Section{ID: 5, Len: uint32(len(b)), Base: []byte(revComp(b)), Rev: true}
	f := dp.FillRoot(mkSec(0, a), 0, brc, 0)
	require.NotNil(t, f, "%v", dp.Err())
	f = dp.Fill(f, mkSec(0, a), brc)
	require.NotNil(t, f)
	f = dp.Fill(f, tailSec(2, 'G', 20), tailSec(6, 'C', 20))
	require.NotNil(t, f)

	r := dp.Trace(f, nil, nil)
	require.NotNil(t, r)
	assert.Equal(t, int64(48), r.Score)
	assert.Equal(t, "24M", r.Cigar())
}
