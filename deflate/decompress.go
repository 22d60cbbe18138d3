package deflate

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"
)

// Decoder decodes a sequence of dynamic Huffman DEFLATE blocks, up to and
// including the block with BFINAL set. Back references may reach into
// earlier blocks of the same stream. A Decoder is not safe for concurrent use.
type Decoder struct {
	br     *BitReader
	win    *window
	log    *logrus.Entry
	blocks []BlockInfo
	done   bool
	err    error
}

// NewDecoder returns a Decoder reading compressed bytes from r and writing
// the decoded bytes to w. A nil log uses the standard logrus logger.
func NewDecoder(r io.ByteReader, w io.Writer, log *logrus.Entry) *Decoder {
	if log == nil {
		log = logrus.WithField("pkg", "deflate")
	}
	return &Decoder{
		br:  NewBitReader(r),
		win: newWindow(w),
		log: log,
	}
}

// NextBlock decodes one block. It returns io.EOF once the final block has
// been decoded. Any other error is an *Error and is terminal for the stream.
func (d *Decoder) NextBlock() (BlockInfo, error) {
	if d.err != nil {
		return BlockInfo{}, d.err
	}
	if d.done {
		return BlockInfo{}, io.EOF
	}

	index := len(d.blocks)
	info, err := d.decodeBlock()
	if err != nil {
		d.err = &Error{Block: index, Offset: d.br.Offset(), Err: err}
		return info, d.err
	}

	d.log.WithFields(logrus.Fields{
		"block":      index,
		"final":      info.Final,
		"hlit":       info.NumLLCodes - 257,
		"hdist":      info.NumDistCodes - 1,
		"hclen":      info.NumCLCodes - 4,
		"literals":   info.Literals,
		"matches":    info.Matches,
		"size":       info.Size,
		"bit_offset": d.br.Offset(),
	}).Debug("decoded block")

	d.blocks = append(d.blocks, info)
	d.done = info.Final
	return info, nil
}

// Decode decodes blocks until the final one and flushes all output.
func (d *Decoder) Decode() error {
	for {
		_, err := d.NextBlock()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	if err := d.win.flush(); err != nil {
		return &Error{Block: len(d.blocks) - 1, Offset: d.br.Offset(), Err: err}
	}
	return nil
}

// Blocks returns information on every block decoded so far.
func (d *Decoder) Blocks() []BlockInfo {
	return d.blocks
}

// Written is the number of bytes decoded so far, flushed or not.
func (d *Decoder) Written() int64 {
	return d.win.Total()
}

// BitReader exposes the input position, e.g. to read a trailer that follows
// the final block.
func (d *Decoder) BitReader() *BitReader {
	return d.br
}

// Decompress decodes a raw DEFLATE stream held in memory.
func Decompress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data) * 3)
	if err := NewDecoder(bytes.NewReader(data), &out, nil).Decode(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
