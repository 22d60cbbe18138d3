package deflate

const (
	// WindowSize is the largest distance a back reference may reach.
	WindowSize = 1 << 15

	numLLSymbols   = 288 // literal/length alphabet, 286 and 287 never used
	numDistSymbols = 32  // distance alphabet, 30 and 31 never used
	numCLSymbols   = 19  // code length alphabet
	endOfBlock     = 256
	firstLenCode   = 257
)

// btype values from the block header.
const (
	btypeStored  = 0
	btypeFixed   = 1
	btypeDynamic = 2
)

// The odd order in which the code length code lengths are transmitted.
var codeLengthOrder = [numCLSymbols]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

type extraBits struct {
	n    uint8
	base uint16
}

// lengthCodes is indexed by length symbol - 257.
var lengthCodes = [...]extraBits{
	{0, 3}, {0, 4}, {0, 5}, {0, 6}, {0, 7}, {0, 8}, {0, 9}, {0, 10},
	{1, 11}, {1, 13}, {1, 15}, {1, 17},
	{2, 19}, {2, 23}, {2, 27}, {2, 31},
	{3, 35}, {3, 43}, {3, 51}, {3, 59},
	{4, 67}, {4, 83}, {4, 99}, {4, 115},
	{5, 131}, {5, 163}, {5, 195}, {5, 227},
	{0, 258},
}

// distCodes is indexed by distance symbol.
var distCodes = [...]extraBits{
	{0, 1}, {0, 2}, {0, 3}, {0, 4},
	{1, 5}, {1, 7}, {2, 9}, {2, 13},
	{3, 17}, {3, 25}, {4, 33}, {4, 49},
	{5, 65}, {5, 97}, {6, 129}, {6, 193},
	{7, 257}, {7, 385}, {8, 513}, {8, 769},
	{9, 1025}, {9, 1537}, {10, 2049}, {10, 3073},
	{11, 4097}, {11, 6145}, {12, 8193}, {12, 12289},
	{13, 16385}, {13, 24577},
}
