package gunzip

import (
	"io"
	"time"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"github.com/consensys/gunzip/deflate"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// Header is the GZIP member header (RFC 1952, section 2.3).
// Name and Comment are stored ISO 8859-1 on the wire and held here as UTF-8.
type Header struct {
	Flags   byte
	MTime   uint32 // seconds since the Unix epoch, 0 if unknown
	XFL     byte
	OS      byte
	Extra   []byte // only with FEXTRA
	Name    string // only with FNAME
	Comment string // only with FCOMMENT
	HCRC    uint16 // only with FHCRC, not verified
}

func (h *Header) IsText() bool     { return h.Flags&flagText != 0 }
func (h *Header) HasHCRC() bool    { return h.Flags&flagHdrCrc != 0 }
func (h *Header) HasExtra() bool   { return h.Flags&flagExtra != 0 }
func (h *Header) HasName() bool    { return h.Flags&flagName != 0 }
func (h *Header) HasComment() bool { return h.Flags&flagComment != 0 }

// ModTime is MTime as a time, the zero time when MTime is 0.
func (h *Header) ModTime() time.Time {
	if h.MTime == 0 {
		return time.Time{}
	}
	return time.Unix(int64(h.MTime), 0)
}

// ReadFrom parses the header from r and returns the number of bytes read.
// Reading stops at the first byte that rules out a GZIP deflate member.
// When r is an io.ByteReader it is read one byte at a time and left on the
// first byte of the DEFLATE data; otherwise it gets buffered.
func (h *Header) ReadFrom(r io.Reader) (int64, error) {
	hr := headerReader{r: bitio.NewReader(r)}

	for _, want := range [...]byte{gzipID1, gzipID2, gzipDeflate} {
		b := hr.readByte()
		if hr.r.TryError != nil {
			return hr.n, hr.err()
		}
		if b != want {
			return hr.n, ErrInvalidMagicOrMethod
		}
	}

	*h = Header{}
	h.Flags = hr.readByte()
	h.MTime = readLE[uint32](&hr, 4)
	h.XFL = hr.readByte()
	h.OS = hr.readByte()

	if h.HasExtra() {
		xlen := readLE[uint16](&hr, 2)
		h.Extra = make([]byte, 0, xlen)
		for i := 0; i < int(xlen) && hr.r.TryError == nil; i++ {
			h.Extra = append(h.Extra, hr.readByte())
		}
	}
	if h.HasName() {
		h.Name = hr.readString()
	}
	if h.HasComment() {
		h.Comment = hr.readString()
	}
	if h.HasHCRC() {
		h.HCRC = readLE[uint16](&hr, 2)
	}

	return hr.n, hr.err()
}

// headerReader counts bytes and relies on the sticky error of bitio.Reader.
type headerReader struct {
	r *bitio.Reader
	n int64
}

func (hr *headerReader) readByte() byte {
	b := hr.r.TryReadByte()
	if hr.r.TryError == nil {
		hr.n++
	}
	return b
}

// readString reads a NUL-terminated ISO 8859-1 string.
func (hr *headerReader) readString() string {
	var s []rune
	for {
		b := hr.readByte()
		if b == 0 || hr.r.TryError != nil {
			return string(s)
		}
		s = append(s, rune(b))
	}
}

func (hr *headerReader) err() error {
	switch err := hr.r.TryError; err {
	case nil:
		return nil
	case io.EOF, io.ErrUnexpectedEOF:
		return errors.Wrap(deflate.ErrUnexpectedEOF, "gzip: reading header")
	default:
		return errors.Wrap(err, "gzip: reading header")
	}
}

// readLE accumulates n bytes little-endian.
func readLE[T constraints.Unsigned](hr *headerReader, n int) T {
	var v T
	for i := 0; i < n; i++ {
		v |= T(hr.readByte()) << (8 * i)
	}
	return v
}
