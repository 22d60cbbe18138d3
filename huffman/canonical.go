package huffman

// MaxCodeLen is the longest code length a DEFLATE alphabet may use.
const MaxCodeLen = 15

// SymbolCode is the canonical code assigned to one symbol.
// A Length of 0 means the symbol is absent from the code.
type SymbolCode struct {
	Length uint8
	Code   uint32
}

// Code represents a prefix code, indexed by symbol.
type Code []SymbolCode

// NbSymbols is the size of the alphabet the code was built for.
func (c Code) NbSymbols() int {
	return len(c)
}

// Bits returns the code as a string of '0' and '1', most
// significant bit first. Absent symbols return the empty string.
func (sc SymbolCode) Bits() string {
	b := make([]byte, sc.Length)
	for i := range b {
		b[i] = '0' + byte((sc.Code>>(sc.Length-1-uint8(i)))&1)
	}
	return string(b)
}

// NewCodeFromCodeLengths assigns canonical codes to an array of code lengths
// (index = symbol, value = bit length, 0 = unused) as described in RFC 1951
// section 3.2.2. Codes are handed out in ascending symbol order within each
// length, which is what lets a decoder rebuild them from the lengths alone.
// Lengths above MaxCodeLen panic.
func NewCodeFromCodeLengths(codeLengths []int) Code {
	var lenCount [MaxCodeLen + 1]int
	maxLen := 0
	for _, l := range codeLengths {
		if l < 0 || l > MaxCodeLen {
			panic("code length out of range")
		}
		lenCount[l]++
		maxLen = max(maxLen, l)
	}
	lenCount[0] = 0

	var nextCode [MaxCodeLen + 1]int
	code := 0
	for bits := 1; bits <= maxLen; bits++ {
		code = (code + lenCount[bits-1]) << 1
		nextCode[bits] = code
	}

	res := make(Code, len(codeLengths))
	for symb, l := range codeLengths {
		if l == 0 {
			continue
		}
		res[symb] = SymbolCode{Length: uint8(l), Code: uint32(nextCode[l])}
		nextCode[l]++
	}
	return res
}
