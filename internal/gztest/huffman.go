package gztest

import (
	"container/heap"
	"sort"
)

// node represents a node in the Huffman tree.
type node struct {
	symbol    int   // symbol, -1 for internal nodes
	frequency int   // frequency of the symbol
	left      *node // left child
	right     *node // right child
}

// priorityQueue implements a min-heap for nodes.
type priorityQueue []*node

func (pq *priorityQueue) Len() int { return len(*pq) }
func (pq *priorityQueue) Less(i, j int) bool {
	return (*pq)[i].frequency < (*pq)[j].frequency
}
func (pq *priorityQueue) Swap(i, j int) { (*pq)[i], (*pq)[j] = (*pq)[j], (*pq)[i] }

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*node))
}

func (pq *priorityQueue) Pop() interface{} {
	n := len(*pq)
	item := (*pq)[n-1]
	*pq = (*pq)[:n-1]
	return item
}

// huffmanLengths returns optimal code lengths for the given frequencies.
// Symbols of frequency 0 get length 0; a lone symbol gets length 1.
func huffmanLengths(frequencies []int) []int {
	lengths := make([]int, len(frequencies))

	pq := &priorityQueue{}
	heap.Init(pq)
	for symbol, freq := range frequencies {
		if freq < 0 {
			panic("negative frequency")
		}
		if freq > 0 {
			heap.Push(pq, &node{symbol: symbol, frequency: freq})
		}
	}

	switch pq.Len() {
	case 0:
		return lengths
	case 1:
		lengths[(*pq)[0].symbol] = 1
		return lengths
	}

	// Build the tree by merging the two smallest nodes until one node remains.
	for pq.Len() > 1 {
		left := heap.Pop(pq).(*node)
		right := heap.Pop(pq).(*node)
		heap.Push(pq, &node{
			symbol:    -1,
			frequency: left.frequency + right.frequency,
			left:      left,
			right:     right,
		})
	}

	var traverse func(n *node, depth int)
	traverse = func(n *node, depth int) {
		if n.left == nil && n.right == nil {
			lengths[n.symbol] = depth
			return
		}
		traverse(n.left, depth+1)
		traverse(n.right, depth+1)
	}
	traverse((*pq)[0], 0)
	return lengths
}

// limitedLengths is huffmanLengths with no length above limit. Frequencies are
// flattened until the tree is shallow enough.
func limitedLengths(frequencies []int, limit int) []int {
	f := append([]int(nil), frequencies...)
	for {
		lengths := huffmanLengths(f)
		longest := 0
		for _, l := range lengths {
			longest = max(longest, l)
		}
		if longest <= limit {
			return lengths
		}
		for i := range f {
			if f[i] > 0 {
				f[i] = (f[i] + 1) / 2
			}
		}
	}
}

type hcode struct {
	code uint32
	len  uint8
}

// canonicalCodes sorts the present symbols first by code length, then by the
// symbol itself, and hands out consecutive codes.
func canonicalCodes(lengths []int) []hcode {
	var sorted []int
	for symb, l := range lengths {
		if l > 0 {
			sorted = append(sorted, symb)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return lengths[sorted[i]] < lengths[sorted[j]]
	})

	codes := make([]hcode, len(lengths))
	code, lastLen := -1, 0
	for _, symb := range sorted {
		l := lengths[symb]
		code++
		code <<= l - lastLen
		lastLen = l
		codes[symb] = hcode{code: uint32(code), len: uint8(l)}
	}
	return codes
}
