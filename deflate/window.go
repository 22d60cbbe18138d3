package deflate

import (
	"io"

	"github.com/pkg/errors"
)

// window is the sliding history of the last WindowSize bytes produced.
// It doubles as the output buffer: bytes are flushed to the sink whenever
// the ring wraps, and on demand.
//
// Invariant: 0 <= rdPos <= wrPos <= len(hist)
type window struct {
	hist  []byte
	wrPos int  // next byte goes to hist[wrPos]
	rdPos int  // hist[:rdPos] has been flushed already
	full  bool // has the ring wrapped at least once?
	total int64

	w   io.Writer
	err error // sticky sink error
}

func newWindow(w io.Writer) *window {
	return &window{hist: make([]byte, WindowSize), w: w}
}

// Len is the number of bytes available to back references.
func (dw *window) Len() int {
	if dw.full {
		return len(dw.hist)
	}
	return dw.wrPos
}

// Total is the number of bytes produced since the start of the stream.
func (dw *window) Total() int64 {
	return dw.total
}

func (dw *window) writeByte(b byte) {
	dw.hist[dw.wrPos] = b
	dw.wrPos++
	dw.total++
	if dw.wrPos == len(dw.hist) {
		dw.flush()
		dw.wrPos, dw.rdPos = 0, 0
		dw.full = true
	}
}

// writeCopy appends length bytes starting dist bytes behind the current end,
// one byte at a time so that a copy may read bytes it has just written.
func (dw *window) writeCopy(dist, length int) error {
	if dist <= 0 || dist > dw.Len() {
		return errors.Wrapf(ErrBackReferenceOutOfRange, "distance %d with %d bytes of history", dist, dw.Len())
	}
	rd := dw.wrPos - dist
	if rd < 0 {
		rd += len(dw.hist)
	}
	for i := 0; i < length; i++ {
		dw.writeByte(dw.hist[rd])
		if rd++; rd == len(dw.hist) {
			rd = 0
		}
	}
	return dw.err
}

// flush hands the bytes not yet flushed to the sink.
func (dw *window) flush() error {
	if dw.err == nil && dw.rdPos < dw.wrPos {
		_, err := dw.w.Write(dw.hist[dw.rdPos:dw.wrPos])
		dw.err = errors.Wrap(err, "deflate: writing output")
	}
	dw.rdPos = dw.wrPos
	return dw.err
}
