// Package gztest writes GZIP members whose DEFLATE data consists only of
// dynamic Huffman blocks. It exists to produce decoder fixtures: ordinary
// encoders pick stored or fixed Huffman blocks whenever those are smaller.
package gztest

import (
	"bytes"
	"hash/crc32"
	"math/rand"
	"strings"

	"github.com/icza/bitio"
)

const (
	windowSize     = 1 << 15
	minMatch       = 3
	maxMatch       = 258
	endBlockMarker = 256
	numLitSymbols  = 288
	numDistSymbols = 32
)

var codegenOrder = []int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

var lengthBase = []int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = []uint{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

var distBase = []int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtraBits = []uint{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// Token is a literal byte, a back reference (Length > 0) or, when Sym is
// set, a raw literal/length symbol written without extra bits. DistSym
// likewise forces a raw distance symbol for a back reference.
type Token struct {
	Lit     byte
	Length  int
	Dist    int
	Sym     int
	DistSym int
}

// Literals returns one literal token per byte of s.
func Literals(s string) []Token {
	toks := make([]Token, len(s))
	for i := range toks {
		toks[i] = Token{Lit: s[i]}
	}
	return toks
}

// BitWriter packs bits least significant bit first, as DEFLATE does.
type BitWriter struct {
	buf   []byte
	bits  uint64
	nbits uint
}

// WriteBits writes the low n bits of v, n <= 32.
func (w *BitWriter) WriteBits(v uint64, n uint) {
	w.bits |= (v & (1<<n - 1)) << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		w.buf = append(w.buf, byte(w.bits))
		w.bits >>= 8
		w.nbits -= 8
	}
}

// writeCode writes a Huffman code, whose bits go out most significant first.
func (w *BitWriter) writeCode(c hcode) {
	var rev uint64
	for i := uint8(0); i < c.len; i++ {
		rev = rev<<1 | uint64((c.code>>i)&1)
	}
	w.WriteBits(rev, uint(c.len))
}

// Bytes returns the bits written so far, the last byte zero padded.
func (w *BitWriter) Bytes() []byte {
	res := append([]byte(nil), w.buf...)
	if w.nbits > 0 {
		res = append(res, byte(w.bits))
	}
	return res
}

// Tokenize splits data into literals and greedy back references.
func Tokenize(data []byte) []Token {
	var toks []Token
	head := make(map[uint32]int)
	insert := func(i int) {
		if i+minMatch <= len(data) {
			head[uint32(data[i])|uint32(data[i+1])<<8|uint32(data[i+2])<<16] = i
		}
	}

	for i := 0; i < len(data); {
		length, dist := 0, 0
		if i+minMatch <= len(data) {
			key := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16
			if p, ok := head[key]; ok && i-p <= windowSize {
				for length < maxMatch && i+length < len(data) && data[p+length] == data[i+length] {
					length++
				}
				dist = i - p
			}
		}

		if length >= minMatch {
			toks = append(toks, Token{Length: length, Dist: dist})
			for j := i; j < i+length; j++ {
				insert(j)
			}
			i += length
			continue
		}
		toks = append(toks, Token{Lit: data[i]})
		insert(i)
		i++
	}
	return toks
}

func lengthCode(length int) int {
	for c := len(lengthBase) - 1; ; c-- {
		if lengthBase[c] <= length {
			return c
		}
	}
}

func distCode(dist int) int {
	for c := len(distBase) - 1; ; c-- {
		if distBase[c] <= dist {
			return c
		}
	}
}

// WriteDynamicBlock appends one dynamic Huffman block holding toks and the
// end-of-block marker.
func WriteDynamicBlock(w *BitWriter, toks []Token, final bool) {
	litFreq := make([]int, numLitSymbols)
	distFreq := make([]int, numDistSymbols)
	for _, t := range toks {
		switch {
		case t.Sym > 0:
			litFreq[t.Sym]++
		case t.Length > 0:
			litFreq[endBlockMarker+1+lengthCode(t.Length)]++
		default:
			litFreq[t.Lit]++
		}
		switch {
		case t.Length > 0 && t.DistSym > 0:
			distFreq[t.DistSym]++
		case t.Length > 0:
			distFreq[distCode(t.Dist)]++
		}
	}
	litFreq[endBlockMarker]++

	numDist := 0
	for i, f := range distFreq {
		if f > 0 {
			numDist = i + 1
		}
	}
	if numDist == 0 {
		// at least one distance code, so the distance tree can be encoded
		distFreq[0] = 1
		numDist = 1
	}
	numLit := endBlockMarker + 1
	for i, f := range litFreq {
		if f > 0 {
			numLit = max(numLit, i+1)
		}
	}

	litLens := limitedLengths(litFreq, 15)
	distLens := limitedLengths(distFreq, 15)
	litCodes := canonicalCodes(litLens)
	distCodes := canonicalCodes(distLens)

	codegen := runLengths(append(append([]int(nil), litLens[:numLit]...), distLens[:numDist]...))
	cgFreq := make([]int, len(codegenOrder))
	for _, c := range codegen {
		cgFreq[c.sym]++
	}
	cgLens := limitedLengths(cgFreq, 7)
	cgCodes := canonicalCodes(cgLens)
	numCodegens := len(codegenOrder)
	for numCodegens > 4 && cgLens[codegenOrder[numCodegens-1]] == 0 {
		numCodegens--
	}

	WriteBlockHeader(w, final, 2)
	w.WriteBits(uint64(numLit-257), 5)
	w.WriteBits(uint64(numDist-1), 5)
	w.WriteBits(uint64(numCodegens-4), 4)
	for _, symb := range codegenOrder[:numCodegens] {
		w.WriteBits(uint64(cgLens[symb]), 3)
	}
	for _, c := range codegen {
		w.writeCode(cgCodes[c.sym])
		switch c.sym {
		case 16:
			w.WriteBits(uint64(c.extra), 2)
		case 17:
			w.WriteBits(uint64(c.extra), 3)
		case 18:
			w.WriteBits(uint64(c.extra), 7)
		}
	}

	for _, t := range toks {
		switch {
		case t.Sym > 0:
			w.writeCode(litCodes[t.Sym])
			continue
		case t.Length == 0:
			w.writeCode(litCodes[t.Lit])
			continue
		}
		lc := lengthCode(t.Length)
		w.writeCode(litCodes[endBlockMarker+1+lc])
		w.WriteBits(uint64(t.Length-lengthBase[lc]), lengthExtraBits[lc])
		if t.DistSym > 0 {
			w.writeCode(distCodes[t.DistSym])
			continue
		}
		dc := distCode(t.Dist)
		w.writeCode(distCodes[dc])
		w.WriteBits(uint64(t.Dist-distBase[dc]), distExtraBits[dc])
	}
	w.writeCode(litCodes[endBlockMarker])
}

// WriteBlockHeader writes BFINAL and BTYPE.
func WriteBlockHeader(w *BitWriter, final bool, btype uint) {
	var bfinal uint64
	if final {
		bfinal = 1
	}
	w.WriteBits(bfinal, 1)
	w.WriteBits(uint64(btype), 2)
}

type codegenSym struct {
	sym   int
	extra int
}

// runLengths encodes a code length sequence with the repeat codes 16, 17, 18.
func runLengths(lens []int) []codegenSym {
	var res []codegenSym
	for i := 0; i < len(lens); {
		v, run := lens[i], 1
		for i+run < len(lens) && lens[i+run] == v {
			run++
		}
		i += run

		if v == 0 {
			for run >= 11 {
				r := min(run, 138)
				res = append(res, codegenSym{18, r - 11})
				run -= r
			}
			if run >= 3 {
				res = append(res, codegenSym{17, run - 3})
				run = 0
			}
		} else {
			res = append(res, codegenSym{sym: v})
			run--
			for run >= 3 {
				r := min(run, 6)
				res = append(res, codegenSym{16, r - 3})
				run -= r
			}
		}
		for ; run > 0; run-- {
			res = append(res, codegenSym{sym: v})
		}
	}
	return res
}

// Blocks encodes each token slice as one dynamic block, the last one final.
func Blocks(blocks ...[]Token) []byte {
	var w BitWriter
	for i, toks := range blocks {
		WriteDynamicBlock(&w, toks, i == len(blocks)-1)
	}
	return w.Bytes()
}

// Deflate tokenizes data and splits the tokens into blocks of at most
// blockTokens tokens (one block when blockTokens <= 0).
func Deflate(data []byte, blockTokens int) []byte {
	toks := Tokenize(data)
	if blockTokens <= 0 || len(toks) <= blockTokens {
		return Blocks(toks)
	}
	var blocks [][]Token
	for len(toks) > blockTokens {
		blocks = append(blocks, toks[:blockTokens])
		toks = toks[blockTokens:]
	}
	return Blocks(append(blocks, toks)...)
}

// Header holds the optional GZIP header fields to write.
type Header struct {
	ModTime uint32
	Extra   []byte
	Name    string
	Comment string
	HCRC    bool
	OS      byte
}

const (
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// Member wraps DEFLATE data in a GZIP header and a CRC32/ISIZE trailer
// computed over data.
func Member(h Header, deflated, data []byte) []byte {
	var bb bytes.Buffer
	w := bitio.NewWriter(&bb)

	var flg byte
	if h.Extra != nil {
		flg |= flagExtra
	}
	if h.Name != "" {
		flg |= flagName
	}
	if h.Comment != "" {
		flg |= flagComment
	}
	if h.HCRC {
		flg |= flagHdrCrc
	}

	for _, b := range []byte{0x1f, 0x8b, 8, flg} {
		w.TryWriteByte(b)
	}
	writeLE(w, h.ModTime, 4)
	w.TryWriteByte(0) // XFL
	w.TryWriteByte(h.OS)
	if h.Extra != nil {
		writeLE(w, uint32(len(h.Extra)), 2)
		for _, b := range h.Extra {
			w.TryWriteByte(b)
		}
	}
	for _, s := range []string{h.Name, h.Comment} {
		if s == "" {
			continue
		}
		for _, r := range s {
			w.TryWriteByte(byte(r)) // Latin-1
		}
		w.TryWriteByte(0)
	}
	if w.TryError != nil {
		panic(w.TryError)
	}
	if h.HCRC {
		writeLE(w, crc32.ChecksumIEEE(bb.Bytes()), 2)
	}
	for _, b := range deflated {
		w.TryWriteByte(b)
	}
	writeLE(w, crc32.ChecksumIEEE(data), 4)
	writeLE(w, uint32(len(data)), 4)

	if w.TryError != nil {
		panic(w.TryError)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return bb.Bytes()
}

func writeLE(w *bitio.Writer, v uint32, n int) {
	for i := 0; i < n; i++ {
		w.TryWriteByte(byte(v >> (8 * i)))
	}
}

// Gzip compresses data into a GZIP member made of dynamic Huffman blocks.
func Gzip(h Header, data []byte, blockTokens int) []byte {
	return Member(h, Deflate(data, blockTokens), data)
}

var words = strings.Fields(`the of and to in is that it for was on are as with his they
at be this from have or by one had not but what all were when we there can an your which
their said if do will each about how up out them then she many some so these would other
into has more her two like him see time could no make than first been its who now people
light colour rays refraction glass prism experiment`)

// Text returns n bytes of pseudo-random English-like text.
func Text(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec
	var b bytes.Buffer
	for b.Len() < n {
		b.WriteString(words[rng.Intn(len(words))])
		if rng.Intn(12) == 0 {
			b.WriteString(".\n")
		} else {
			b.WriteByte(' ')
		}
	}
	return b.Bytes()[:n]
}
