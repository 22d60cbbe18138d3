package deflate

import (
	"github.com/pkg/errors"

	"github.com/consensys/gunzip/huffman"
)

// BlockInfo summarizes one decoded block.
type BlockInfo struct {
	Final        bool
	NumLLCodes   int // HLIT + 257
	NumDistCodes int // HDIST + 1
	NumCLCodes   int // HCLEN + 4
	Literals     int
	Matches      int
	Size         int64 // bytes produced by the block
}

var btypeNames = [4]string{"stored", "fixed Huffman", "dynamic Huffman", "reserved"}

// decodeBlock reads one block header and, for a dynamic Huffman block, the
// code length alphabet, both working trees and the symbol stream.
func (d *Decoder) decodeBlock() (info BlockInfo, err error) {
	start := d.win.Total()
	defer func() { info.Size = d.win.Total() - start }()

	final, err := d.br.ReadBits(1, false)
	if err != nil {
		return
	}
	info.Final = final == 1

	btype, err := d.br.ReadBits(2, false)
	if err != nil {
		return
	}
	if btype != btypeDynamic {
		return info, errors.Wrapf(ErrUnsupportedBlockType, "BTYPE %d (%s)", btype, btypeNames[btype])
	}

	if err = d.readAlphabetSizes(&info); err != nil {
		return
	}

	clTree, err := d.readCodeLengthTree(info.NumCLCodes)
	if err != nil {
		return
	}

	llLens, distLens, err := d.readCodeLengths(clTree, info.NumLLCodes, info.NumDistCodes)
	if err != nil {
		return
	}

	llTree, err := buildTree("literal/length", llLens[:])
	if err != nil {
		return
	}
	distTree, err := buildTree("distance", distLens[:])
	if err != nil {
		return
	}

	err = d.decodeSymbols(llTree, distTree, &info)
	return
}

func (d *Decoder) readAlphabetSizes(info *BlockInfo) error {
	hlit, err := d.br.ReadBits(5, false)
	if err != nil {
		return err
	}
	hdist, err := d.br.ReadBits(5, false)
	if err != nil {
		return err
	}
	hclen, err := d.br.ReadBits(4, false)
	if err != nil {
		return err
	}
	info.NumLLCodes = int(hlit) + 257
	info.NumDistCodes = int(hdist) + 1
	info.NumCLCodes = int(hclen) + 4
	return nil
}

// readCodeLengthTree reads the 3-bit code length code lengths in transmission
// order; slots that are not transmitted stay 0.
func (d *Decoder) readCodeLengthTree(numCLCodes int) (*huffman.Tree, error) {
	var clLens [numCLSymbols]int
	for i := 0; i < numCLCodes; i++ {
		l, err := d.br.ReadBits(3, false)
		if err != nil {
			return nil, err
		}
		clLens[codeLengthOrder[i]] = int(l)
	}
	return buildTree("code length", clLens[:])
}

// readCodeLengths decodes numLL+numDist code lengths with the code length
// tree. The first numLL feed the literal/length array, the rest the distance
// array.
func (d *Decoder) readCodeLengths(clTree *huffman.Tree, numLL, numDist int) (llLens [numLLSymbols]int, distLens [numDistSymbols]int, err error) {
	var lengths [numLLSymbols + numDistSymbols]int
	n := numLL + numDist
	lastLength := -1

	for i := 0; i < n; {
		var sym int
		if sym, err = d.decodeSymbol(clTree); err != nil {
			return
		}

		var val, rep int
		var extra uint32
		switch {
		case sym < 16:
			lengths[i] = sym
			lastLength = sym
			i++
			continue
		case sym == 16:
			if lastLength < 0 {
				err = errors.Wrap(ErrInvalidCodeLengthSymbol, "repeat code 16 without a previous length")
				return
			}
			extra, err = d.br.ReadBits(2, false)
			val, rep = lastLength, 3+int(extra)
		case sym == 17:
			extra, err = d.br.ReadBits(3, false)
			val, rep = 0, 3+int(extra)
			lastLength = 0
		case sym == 18:
			extra, err = d.br.ReadBits(7, false)
			val, rep = 0, 11+int(extra)
			lastLength = 0
		default:
			err = errors.Wrapf(ErrInvalidCodeLengthSymbol, "symbol %d", sym)
			return
		}
		if err != nil {
			return
		}

		if i+rep > n {
			err = errors.Wrapf(ErrInvalidCodeLengthSymbol, "repeat of %d overflows %d code lengths at %d", rep, n, i)
			return
		}
		for ; rep > 0; rep-- {
			lengths[i] = val
			i++
		}
	}

	copy(llLens[:], lengths[:numLL])
	copy(distLens[:], lengths[numLL:n])
	return
}

// decodeSymbols streams literals and back references into the window until
// the end-of-block symbol.
func (d *Decoder) decodeSymbols(llTree, distTree *huffman.Tree, info *BlockInfo) error {
	for {
		sym, err := d.decodeSymbol(llTree)
		if err != nil {
			return err
		}

		switch {
		case sym < endOfBlock:
			d.win.writeByte(byte(sym))
			if d.win.err != nil {
				return d.win.err
			}
			info.Literals++
			continue
		case sym == endOfBlock:
			return nil
		}

		length, err := d.readExtra(lengthCodes[:], sym-firstLenCode, "length")
		if err != nil {
			return err
		}
		dsym, err := d.decodeSymbol(distTree)
		if err != nil {
			return err
		}
		dist, err := d.readExtra(distCodes[:], dsym, "distance")
		if err != nil {
			return err
		}

		if err = d.win.writeCopy(dist, length); err != nil {
			return err
		}
		info.Matches++
	}
}

// readExtra maps a length or distance code to its value, reading the extra
// bits that follow the code.
func (d *Decoder) readExtra(table []extraBits, code int, what string) (int, error) {
	if code < 0 || code >= len(table) {
		return 0, errors.Wrapf(ErrInvalidSymbolCode, "%s code %d", what, code)
	}
	e := table[code]
	v, err := d.br.ReadBits(uint(e.n), false)
	if err != nil {
		return 0, err
	}
	return int(e.base) + int(v), nil
}

// decodeSymbol walks t from the root one bit at a time until a leaf.
func (d *Decoder) decodeSymbol(t *huffman.Tree) (int, error) {
	t.ResetCursor()
	for {
		bit, err := d.br.ReadBit()
		if err != nil {
			return 0, err
		}
		switch s := t.Advance(bit); s {
		case huffman.Pending:
		case huffman.Invalid:
			return 0, errors.Wrap(ErrInvalidSymbolCode, "bit sequence not in code")
		default:
			return s, nil
		}
	}
}

func buildTree(alphabet string, lengths []int) (*huffman.Tree, error) {
	t, symb, res := huffman.NewTreeFromCode(huffman.NewCodeFromCodeLengths(lengths))
	if res != huffman.Inserted {
		return nil, errors.Wrapf(ErrPrefixCodeViolation, "%s symbol %d: %s", alphabet, symb, res)
	}
	return t, nil
}
