package gitdag

import (
	"runtime"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/sync/errgroup"
)

// CommitLoader loads one commit's metadata by identifier. *ObjectStore is
// the on-disk implementation; tests substitute in-memory loaders.
type CommitLoader interface {
	LoadCommit(id plumbing.Hash) (*CommitObject, error)
}

// BuildGraph traverses parent links from every branch head and returns the
// induced graph over exactly the reachable closure, with child edges and
// branch labels filled in.
//
// Traversal is an explicit work-list, level by level: each level's objects
// are loaded concurrently (loads are independent and the repository is an
// immutable snapshot), then merged into the graph single-threaded so the
// result is identical no matter how loads interleave. Deep histories never
// touch the call stack.
func BuildGraph(loader CommitLoader, heads map[plumbing.Hash][]string) (Graph, error) {
	graph := make(Graph, len(heads))
	scheduled := mapset.NewThreadUnsafeSet[plumbing.Hash]()

	frontier := make([]plumbing.Hash, 0, len(heads))
	for id := range heads {
		frontier = append(frontier, id)
		scheduled.Add(id)
	}
	sortHashes(frontier)

	for len(frontier) > 0 {
		objects := make([]*CommitObject, len(frontier))
		var group errgroup.Group
		group.SetLimit(runtime.GOMAXPROCS(0))
		for i, id := range frontier {
			i, id := i, id
			group.Go(func() error {
				obj, err := loader.LoadCommit(id)
				if err != nil {
					return err
				}
				objects[i] = obj
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}

		var next []plumbing.Hash
		for _, obj := range objects {
			node := ensureNode(graph, obj.ID)
			node.Parents = obj.Parents
			for _, parent := range obj.Parents {
				p := ensureNode(graph, parent)
				p.Children = append(p.Children, obj.ID)
				if scheduled.Add(parent) {
					next = append(next, parent)
				}
			}
		}
		sortHashes(next)
		frontier = next
	}

	normalize(graph)
	for id, names := range heads {
		graph[id].Branches = append([]string(nil), names...)
	}

	if err := checkAcyclic(graph); err != nil {
		return nil, err
	}
	return graph, nil
}

func ensureNode(g Graph, id plumbing.Hash) *CommitNode {
	node, ok := g[id]
	if !ok {
		node = &CommitNode{ID: id}
		g[id] = node
	}
	return node
}

// normalize sorts and deduplicates every child list so the graph's content
// carries no trace of discovery order.
func normalize(g Graph) {
	for _, node := range g {
		sortHashes(node.Children)
		deduped := node.Children[:0]
		for i, c := range node.Children {
			if i == 0 || c != node.Children[i-1] {
				deduped = append(deduped, c)
			}
		}
		node.Children = deduped
	}
}

// checkAcyclic runs a three-color depth-first search over parent edges with
// an explicit stack. A parent found on the active path means the storage is
// corrupted into a loop.
func checkAcyclic(g Graph) error {
	const (
		white = iota // untouched
		gray         // on the active path
		black        // fully explored
	)
	color := make(map[plumbing.Hash]int, len(g))

	type frame struct {
		id   plumbing.Hash
		next int
	}
	for _, start := range g.IDs() {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: start}}
		color[start] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			parents := g[top.id].Parents
			if top.next < len(parents) {
				parent := parents[top.next]
				top.next++
				switch color[parent] {
				case gray:
					return &CycleDetectedError{ID: parent}
				case white:
					color[parent] = gray
					stack = append(stack, frame{id: parent})
				}
			} else {
				color[top.id] = black
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}
