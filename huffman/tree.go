package huffman

// InsertResult reports the outcome of Tree.Insert.
type InsertResult uint8

const (
	Inserted InsertResult = iota
	// AlreadyPresent means the code collides with an existing leaf.
	AlreadyPresent
	// PrefixViolation means the code extends an existing leaf, is itself a
	// prefix of codes already in the tree, or does not fit in its length.
	PrefixViolation
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyPresent:
		return "already present"
	case PrefixViolation:
		return "prefix violation"
	}
	return "unknown"
}

// Values returned by Tree.Advance besides a symbol index.
const (
	Pending = -1 // the cursor is at an internal node
	Invalid = -2 // there is no child in the requested direction
)

const none = -1

// node represents a node in the Huffman tree.
// Children are indices into Tree.nodes; none marks a missing child.
type node struct {
	symbol int32 // symbol for leaves, none for internal nodes
	child  [2]int32
}

func (n *node) isLeaf() bool {
	return n.symbol != none
}

// Tree is a binary trie of prefix codes, decoded one bit at a time.
// Nodes live in a single slice with the root at index 0.
type Tree struct {
	nodes []node
	cur   int32
}

// NewTree returns an empty tree with its cursor on the root.
func NewTree() *Tree {
	t := &Tree{}
	t.Reset()
	return t
}

// NewTreeFromCode builds a tree holding every present symbol of c.
// It stops at the first symbol that cannot be inserted and returns that
// symbol along with the failing result.
func NewTreeFromCode(c Code) (t *Tree, symb int, res InsertResult) {
	t = NewTree()
	for s, sc := range c {
		if sc.Length == 0 {
			continue
		}
		if res = t.Insert(sc.Code, sc.Length, s); res != Inserted {
			return t, s, res
		}
	}
	return t, 0, Inserted
}

// Reset empties the tree, keeping its storage.
func (t *Tree) Reset() {
	t.nodes = append(t.nodes[:0], node{symbol: none, child: [2]int32{none, none}})
	t.cur = 0
}

// Len is the number of nodes in the tree, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) newNode(symbol int32) int32 {
	t.nodes = append(t.nodes, node{symbol: symbol, child: [2]int32{none, none}})
	return int32(len(t.nodes) - 1)
}

// Insert adds the code of the given length (most significant bit first) as a
// leaf holding symbol.
func (t *Tree) Insert(code uint32, length uint8, symbol int) InsertResult {
	if length == 0 || length > 32 || (length < 32 && code>>length != 0) {
		return PrefixViolation
	}

	cur := int32(0)
	for i := uint8(0); i < length; i++ {
		if t.nodes[cur].isLeaf() {
			return PrefixViolation
		}
		bit := (code >> (length - 1 - i)) & 1
		next := t.nodes[cur].child[bit]
		last := i == length-1

		switch {
		case next == none && last:
			next = t.newNode(int32(symbol))
		case next == none:
			next = t.newNode(none)
		case last && t.nodes[next].isLeaf():
			return AlreadyPresent
		case last:
			return PrefixViolation
		}
		t.nodes[cur].child[bit] = next
		cur = next
	}
	return Inserted
}

// ResetCursor moves the decoding cursor back to the root.
func (t *Tree) ResetCursor() {
	t.cur = 0
}

// Advance moves the cursor one level down, left for bit 0 and right for
// bit 1. It returns the symbol when a leaf is reached, Pending at an internal
// node and Invalid when there is no child in that direction. After a symbol
// or Invalid the caller must ResetCursor before decoding again.
func (t *Tree) Advance(bit uint) int {
	n := &t.nodes[t.cur]
	if n.isLeaf() {
		return Invalid
	}
	next := n.child[bit&1]
	if next == none {
		return Invalid
	}
	t.cur = next
	if s := t.nodes[next].symbol; s != none {
		return int(s)
	}
	return Pending
}

// Lookup follows the whole code from the root without touching the cursor.
// It returns the symbol, Pending if the code ends on an internal node, or
// Invalid if it leaves the tree.
func (t *Tree) Lookup(code uint32, length uint8) int {
	cur := int32(0)
	for i := uint8(0); i < length; i++ {
		if t.nodes[cur].isLeaf() {
			return Invalid
		}
		cur = t.nodes[cur].child[(code>>(length-1-i))&1]
		if cur == none {
			return Invalid
		}
	}
	if s := t.nodes[cur].symbol; s != none {
		return int(s)
	}
	return Pending
}
