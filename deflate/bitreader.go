package deflate

import (
	"io"

	"github.com/pkg/errors"
)

// BitReader serves bits least-significant-bit first from a byte source.
// Leftover bits of a partially consumed byte stay buffered for the next read.
type BitReader struct {
	r      io.ByteReader
	bits   uint64 // buffered bits, next bit in the LSB
	nbits  uint   // number of valid bits in bits
	nbytes int64  // bytes pulled from r
}

// NewBitReader returns a BitReader pulling bytes from r one at a time.
func NewBitReader(r io.ByteReader) *BitReader {
	return &BitReader{r: r}
}

// ReadBits returns the next n bits, n in [0, 32], the first bit read being
// the least significant bit of the result. With keep set the bits are left
// in the buffer and returned again by the next read.
func (br *BitReader) ReadBits(n uint, keep bool) (uint32, error) {
	if n > 32 {
		return 0, errors.Errorf("deflate: cannot read %d bits at once", n)
	}
	for br.nbits < n {
		c, err := br.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, ErrUnexpectedEOF
			}
			return 0, errors.Wrap(err, "deflate: reading input")
		}
		br.nbytes++
		br.bits |= uint64(c) << br.nbits
		br.nbits += 8
	}
	v := uint32(br.bits & (1<<n - 1))
	if !keep {
		br.bits >>= n
		br.nbits -= n
	}
	return v, nil
}

// ReadBit is ReadBits(1, false).
func (br *BitReader) ReadBit() (uint, error) {
	b, err := br.ReadBits(1, false)
	return uint(b), err
}

// Align discards the bits left over from the current byte, so that the next
// read starts on a byte boundary.
func (br *BitReader) Align() {
	n := br.nbits % 8
	br.bits >>= n
	br.nbits -= n
}

// Buffered is the number of bits read from the source but not yet consumed.
func (br *BitReader) Buffered() uint {
	return br.nbits
}

// Offset is the number of bits consumed so far.
func (br *BitReader) Offset() int64 {
	return br.nbytes*8 - int64(br.nbits)
}
