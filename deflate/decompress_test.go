package deflate

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/consensys/gunzip/internal/gztest"
)

var errSink = errors.New("sink closed")

func TestDecompressOverlap(t *testing.T) {
	assert := require.New(t)

	// literal 'A', then length 3 at distance 1
	raw := gztest.Blocks(append(gztest.Literals("A"), gztest.Token{Length: 3, Dist: 1}))
	out, err := Decompress(raw)
	assert.NoError(err)
	assert.Equal("AAAA", string(out))
}

func TestDecompressRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		blockTokens int
	}{
		{"empty", nil, 0},
		{"one byte", []byte{0}, 0},
		{"text", gztest.Text(10000, 1), 0},
		{"text many blocks", gztest.Text(120000, 2), 1000},
		{"runs", bytes.Repeat([]byte("0123456789"), 20000), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			raw := gztest.Deflate(tt.data, tt.blockTokens)
			var out bytes.Buffer
			d := NewDecoder(bytes.NewReader(raw), &out, nil)
			assert.NoError(d.Decode())
			assert.True(bytes.Equal(tt.data, out.Bytes()))
			assert.EqualValues(len(tt.data), d.Written())

			blocks := d.Blocks()
			assert.NotEmpty(blocks)
			var size int64
			for i, b := range blocks {
				assert.Equal(i == len(blocks)-1, b.Final)
				size += b.Size
			}
			assert.EqualValues(len(tt.data), size)

			// nothing left after the final block but padding
			assert.EqualValues(len(raw), (d.BitReader().Offset()+7)/8)
		})
	}
}

func TestNextBlock(t *testing.T) {
	assert := require.New(t)

	raw := gztest.Blocks(gztest.Literals("abc"), []gztest.Token{{Length: 6, Dist: 3}}, gztest.Literals("!"))
	var out bytes.Buffer
	d := NewDecoder(bytes.NewReader(raw), &out, nil)

	b0, err := d.NextBlock()
	assert.NoError(err)
	assert.False(b0.Final)
	assert.Equal(3, b0.Literals)
	assert.EqualValues(3, b0.Size)

	// a back reference into the previous block
	b1, err := d.NextBlock()
	assert.NoError(err)
	assert.Equal(1, b1.Matches)
	assert.EqualValues(6, b1.Size)

	b2, err := d.NextBlock()
	assert.NoError(err)
	assert.True(b2.Final)

	_, err = d.NextBlock()
	assert.Equal(io.EOF, err)

	assert.NoError(d.Decode())
	assert.Equal("abcabcabc!", out.String())
}

func TestMaxDistance(t *testing.T) {
	assert := require.New(t)

	data := gztest.Text(WindowSize, 3)
	toks := append(gztest.Literals(string(data)), gztest.Token{Length: 258, Dist: WindowSize})
	out, err := Decompress(gztest.Blocks(toks[:1000], toks[1000:]))
	assert.NoError(err)
	assert.Equal(string(data)+string(data[:258]), string(out))
}

func TestDecompressErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		want  error
		block int
	}{
		{"stored", blockHeader(btypeStored), ErrUnsupportedBlockType, 0},
		{"fixed", blockHeader(btypeFixed), ErrUnsupportedBlockType, 0},
		{"reserved", blockHeader(3), ErrUnsupportedBlockType, 0},
		{"empty input", nil, ErrUnexpectedEOF, 0},
		{"truncated", truncate(gztest.Deflate(gztest.Text(5000, 4), 0), 2), ErrUnexpectedEOF, 0},
		{"over-subscribed code length code", overSubscribedCL(), ErrPrefixCodeViolation, 0},
		{"repeat without previous length", repeatFirst(), ErrInvalidCodeLengthSymbol, 0},
		{"repeat overflow", repeatOverflow(), ErrInvalidCodeLengthSymbol, 0},
		{"no history", gztest.Blocks([]gztest.Token{{Length: 3, Dist: 1}}), ErrBackReferenceOutOfRange, 0},
		{"distance too far", gztest.Blocks(gztest.Literals("ab"), []gztest.Token{{Length: 3, Dist: 3}}), ErrBackReferenceOutOfRange, 1},
		{"length symbol 286", gztest.Blocks(gztest.Literals("ab"), append(gztest.Literals("c"), gztest.Token{Sym: 286})), ErrInvalidSymbolCode, 1},
		{"distance symbol 30", gztest.Blocks(append(gztest.Literals("ab"), gztest.Token{Length: 3, Dist: 1, DistSym: 30})), ErrInvalidSymbolCode, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			_, err := Decompress(tt.raw)
			assert.ErrorIs(err, tt.want)

			var derr *Error
			assert.True(errors.As(err, &derr))
			assert.Equal(tt.block, derr.Block)
			assert.Equal(tt.want, errors.Cause(derr.Err))
		})
	}
}

func TestStickyError(t *testing.T) {
	assert := require.New(t)

	d := NewDecoder(bytes.NewReader(blockHeader(btypeFixed)), io.Discard, nil)
	_, err := d.NextBlock()
	assert.ErrorIs(err, ErrUnsupportedBlockType)
	assert.Contains(err.Error(), "fixed Huffman")

	_, err2 := d.NextBlock()
	assert.Equal(err, err2)
	assert.Equal(err, d.Decode())
}

func TestRejectsReferenceEncoderOutput(t *testing.T) {
	assert := require.New(t)

	var bb bytes.Buffer
	fw, err := flate.NewWriter(&bb, flate.NoCompression)
	assert.NoError(err)
	_, err = fw.Write([]byte("stored blocks only"))
	assert.NoError(err)
	assert.NoError(fw.Close())

	_, err = Decompress(bb.Bytes())
	assert.ErrorIs(err, ErrUnsupportedBlockType)
	assert.Contains(err.Error(), "stored")
}

func TestSinkError(t *testing.T) {
	assert := require.New(t)

	raw := gztest.Deflate(gztest.Text(3*WindowSize, 5), 0)
	err := NewDecoder(bytes.NewReader(raw), &failingWriter{}, nil).Decode()
	assert.ErrorIs(err, errSink)
}

func blockHeader(btype uint) []byte {
	var w gztest.BitWriter
	gztest.WriteBlockHeader(&w, true, btype)
	w.WriteBits(0, 32)
	return w.Bytes()
}

func truncate(b []byte, by int) []byte {
	return b[:len(b)-by]
}

// dynamicHeader starts a final dynamic block with 257 literal/length codes,
// one distance code and the first four code length code lengths.
func dynamicHeader(clLens [4]uint64) *gztest.BitWriter {
	w := new(gztest.BitWriter)
	gztest.WriteBlockHeader(w, true, btypeDynamic)
	w.WriteBits(0, 5) // HLIT
	w.WriteBits(0, 5) // HDIST
	w.WriteBits(0, 4) // HCLEN
	for _, l := range clLens {
		w.WriteBits(l, 3)
	}
	return w
}

// overSubscribedCL gives 16, 17, 18 and 0 one-bit codes.
func overSubscribedCL() []byte {
	w := dynamicHeader([4]uint64{1, 1, 1, 1})
	w.WriteBits(0, 32)
	return w.Bytes()
}

// repeatFirst sends code 16 before any code length.
func repeatFirst() []byte {
	// 0 -> code 0, 16 -> code 1
	w := dynamicHeader([4]uint64{1, 0, 0, 1})
	w.WriteBits(1, 1)
	w.WriteBits(0, 32)
	return w.Bytes()
}

// repeatOverflow repeats zero past the 258 code lengths announced.
func repeatOverflow() []byte {
	// 0 -> code 0, 18 -> code 1
	w := dynamicHeader([4]uint64{0, 0, 1, 1})
	for i := 0; i < 2; i++ {
		w.WriteBits(1, 1)
		w.WriteBits(127, 7)
	}
	w.WriteBits(0, 32)
	return w.Bytes()
}
