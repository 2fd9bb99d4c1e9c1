package gitdag

import (
	"container/heap"

	"github.com/go-git/go-git/v5/plumbing"
)

// TopoSort returns a total order over the graph in which every commit
// appears strictly before all of its ancestors (children first).
//
// Kahn elimination on unemitted-child counts: branch tips start ready, and a
// parent becomes ready once every one of its children has been emitted.
// When several commits are ready at once the largest identifier (by hex
// encoding) is taken, so the sequence is fixed by graph content alone and
// never by map iteration order.
func TopoSort(g Graph) ([]plumbing.Hash, error) {
	pending := make(map[plumbing.Hash]int, len(g))
	ready := &hashMaxHeap{}
	for _, id := range g.IDs() {
		n := len(g[id].Children)
		pending[id] = n
		if n == 0 {
			ready.hashes = append(ready.hashes, id)
		}
	}
	heap.Init(ready)

	order := make([]plumbing.Hash, 0, len(g))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(plumbing.Hash)
		order = append(order, id)
		for _, parent := range uniqueParents(g[id].Parents) {
			pending[parent]--
			if pending[parent] == 0 {
				heap.Push(ready, parent)
			}
		}
	}

	if len(order) != len(g) {
		// Some node never drained its child count: its descendants loop.
		for _, id := range g.IDs() {
			if pending[id] > 0 {
				return nil, &CycleDetectedError{ID: id}
			}
		}
	}
	return order, nil
}

// uniqueParents drops repeated identifiers from a parent list (a pathological
// object may record the same parent twice) without disturbing order.
func uniqueParents(parents []plumbing.Hash) []plumbing.Hash {
	if len(parents) < 2 {
		return parents
	}
	seen := make(map[plumbing.Hash]struct{}, len(parents))
	out := parents[:0:0]
	for _, p := range parents {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// hashMaxHeap pops the lexicographically largest identifier first.
type hashMaxHeap struct {
	hashes []plumbing.Hash
}

func (h *hashMaxHeap) Len() int           { return len(h.hashes) }
func (h *hashMaxHeap) Less(i, j int) bool { return hashLess(h.hashes[j], h.hashes[i]) }
func (h *hashMaxHeap) Swap(i, j int)      { h.hashes[i], h.hashes[j] = h.hashes[j], h.hashes[i] }

func (h *hashMaxHeap) Push(x any) {
	h.hashes = append(h.hashes, x.(plumbing.Hash))
}

func (h *hashMaxHeap) Pop() any {
	last := len(h.hashes) - 1
	id := h.hashes[last]
	h.hashes = h.hashes[:last]
	return id
}
