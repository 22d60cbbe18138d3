package gunzip

import (
	"github.com/pkg/errors"

	"github.com/consensys/gunzip/deflate"
)

var (
	// ErrInvalidMagicOrMethod is returned when the input does not start with
	// the GZIP magic number followed by the deflate compression method.
	ErrInvalidMagicOrMethod = errors.New("gzip: invalid magic number or compression method")
	// ErrChecksum is returned when trailer verification is enabled and the
	// CRC-32 or size of the decoded data does not match the trailer.
	ErrChecksum = errors.New("gzip: trailer checksum mismatch")
)

// Errors produced while decoding the DEFLATE data, wrapped in a
// *deflate.Error carrying the block index and bit offset.
var (
	ErrUnexpectedEOF           = deflate.ErrUnexpectedEOF
	ErrUnsupportedBlockType    = deflate.ErrUnsupportedBlockType
	ErrInvalidCodeLengthSymbol = deflate.ErrInvalidCodeLengthSymbol
	ErrPrefixCodeViolation     = deflate.ErrPrefixCodeViolation
	ErrInvalidSymbolCode       = deflate.ErrInvalidSymbolCode
	ErrBackReferenceOutOfRange = deflate.ErrBackReferenceOutOfRange
)
