// Package gunzip decodes GZIP members whose DEFLATE data is made only of
// dynamic Huffman blocks (RFC 1951, RFC 1952).
package gunzip

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/consensys/gunzip/deflate"
)

const isizeLen = 4

// Options tune a decoding session. The zero value is ready to use.
type Options struct {
	// VerifyTrailer checks the CRC-32 and size found after the final block
	// against the decoded bytes.
	VerifyTrailer bool
	Log           *logrus.Entry
}

// Stream describes a decoded GZIP member.
type Stream struct {
	Header     Header
	HeaderSize int64
	OrigSize   uint32 // ISIZE, read from the last four bytes of the input
	Blocks     []deflate.BlockInfo
	Size       int64  // number of decoded bytes
	CRC32      uint32 // of the decoded bytes
}

// Decompress decodes the GZIP member held in r into w. ISIZE is read from
// the end of r first, then r is rewound and decoded sequentially. Output is
// written to w as the history window fills, so on error w may already hold
// a prefix of the data. The returned Stream is non-nil whenever the header
// could be parsed.
func Decompress(r io.ReadSeeker, w io.Writer, opts Options) (*Stream, error) {
	log := opts.Log
	if log == nil {
		log = logrus.WithField("pkg", "gunzip")
	}

	var s Stream
	var err error
	if s.OrigSize, err = readISIZE(r); err != nil {
		return nil, err
	}

	// bitio hands bytes one at a time to the header parser and the bit
	// reader alike, so no byte of the DEFLATE data is lost between them.
	in := bitio.NewReader(r)
	if s.HeaderSize, err = s.Header.ReadFrom(in); err != nil {
		return nil, err
	}

	crc := crc32.NewIEEE()
	dec := deflate.NewDecoder(in, io.MultiWriter(w, crc), log.WithField("name", s.Header.Name))
	err = dec.Decode()
	s.Blocks = dec.Blocks()
	s.Size = dec.Written()
	s.CRC32 = crc.Sum32()
	if err != nil {
		return &s, err
	}

	if opts.VerifyTrailer {
		if err = s.verifyTrailer(dec.BitReader()); err != nil {
			return &s, err
		}
	}

	log.WithFields(logrus.Fields{
		"name":      s.Header.Name,
		"orig_size": s.OrigSize,
		"size":      s.Size,
		"blocks":    len(s.Blocks),
	}).Debug("decoded member")
	return &s, nil
}

// DecompressBytes decodes a GZIP member held in memory.
func DecompressBytes(data []byte, opts Options) ([]byte, *Stream, error) {
	var out bytes.Buffer
	out.Grow(len(data) * 3)
	s, err := Decompress(bytes.NewReader(data), &out, opts)
	if err != nil {
		return nil, s, err
	}
	return out.Bytes(), s, nil
}

// readISIZE reads the little-endian size field closing the member and
// rewinds r. Inputs too short to hold it report 0 and leave the verdict to
// the header parser.
func readISIZE(r io.ReadSeeker) (uint32, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.Wrap(err, "gzip: seeking input end")
	}

	var isize uint32
	if end >= isizeLen {
		if _, err = r.Seek(end-isizeLen, io.SeekStart); err != nil {
			return 0, errors.Wrap(err, "gzip: seeking ISIZE")
		}
		var b [isizeLen]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return 0, errors.Wrap(err, "gzip: reading ISIZE")
		}
		isize = binary.LittleEndian.Uint32(b[:])
	}

	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "gzip: rewinding input")
	}
	return isize, nil
}

// verifyTrailer reads CRC32 and ISIZE right after the final block.
func (s *Stream) verifyTrailer(br *deflate.BitReader) error {
	br.Align()
	crc, err := br.ReadBits(32, false)
	if err != nil {
		return errors.Wrap(err, "gzip: reading trailer")
	}
	isize, err := br.ReadBits(32, false)
	if err != nil {
		return errors.Wrap(err, "gzip: reading trailer")
	}

	if crc != s.CRC32 {
		return errors.Wrapf(ErrChecksum, "CRC-32 %08x, trailer says %08x", s.CRC32, crc)
	}
	if isize != uint32(s.Size) {
		return errors.Wrapf(ErrChecksum, "size %d, trailer says %d", uint32(s.Size), isize)
	}
	return nil
}
