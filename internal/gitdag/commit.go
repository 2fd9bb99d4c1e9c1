package gitdag

import (
	"bytes"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
)

// CommitObject is the store-level view of one commit: its identifier and the
// parent identifiers recorded in the object, in object order. The first
// parent is the merged-into line of history; order is preserved for
// diagnostics but carries no weight in sorting.
type CommitObject struct {
	ID      plumbing.Hash
	Parents []plumbing.Hash
}

// CommitNode is one commit in the reconstructed graph: the object's parent
// list plus the computed child edges and any branch names pointing at it.
// Children and Branches are kept in lexicographic order so the graph's
// content is identical regardless of traversal order.
type CommitNode struct {
	ID       plumbing.Hash
	Parents  []plumbing.Hash
	Children []plumbing.Hash
	Branches []string
}

// Graph maps every commit reachable from the branch heads to its node.
// Closure invariant: every parent referenced by a node is itself a key.
type Graph map[plumbing.Hash]*CommitNode

// hashLess orders identifiers by their canonical hex encoding, which for
// fixed-width hashes is the same as byte order.
func hashLess(a, b plumbing.Hash) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func sortHashes(hs []plumbing.Hash) {
	sort.Slice(hs, func(i, j int) bool { return hashLess(hs[i], hs[j]) })
}

// IDs returns all commit identifiers in the graph in lexicographic order.
func (g Graph) IDs() []plumbing.Hash {
	ids := make([]plumbing.Hash, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sortHashes(ids)
	return ids
}
