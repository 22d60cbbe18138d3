package deflate

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnexpectedEOF reports that the input ended while bits were still needed.
	ErrUnexpectedEOF = errors.New("deflate: unexpected end of input")
	// ErrUnsupportedBlockType reports a stored, fixed-Huffman or reserved block.
	ErrUnsupportedBlockType = errors.New("deflate: unsupported block type")
	// ErrInvalidCodeLengthSymbol reports a bad entry in the code length sequence.
	ErrInvalidCodeLengthSymbol = errors.New("deflate: invalid code length symbol")
	// ErrPrefixCodeViolation reports code lengths that do not form a prefix code.
	ErrPrefixCodeViolation = errors.New("deflate: prefix code violation")
	// ErrInvalidSymbolCode reports a bit sequence or symbol outside the alphabet.
	ErrInvalidSymbolCode = errors.New("deflate: invalid symbol code")
	// ErrBackReferenceOutOfRange reports a distance reaching before the output start.
	ErrBackReferenceOutOfRange = errors.New("deflate: back reference out of range")
)

// Error is returned for any failure while decoding a block. Block is the
// 0-based index of the block, Offset the number of bits consumed from the
// DEFLATE data when the failure was detected.
type Error struct {
	Block  int
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("block %d, bit offset %d: %v", e.Block, e.Offset, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the underlying error.
func (e *Error) Cause() error { return e.Err }
