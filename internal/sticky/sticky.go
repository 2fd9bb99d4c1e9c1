// Package sticky implements the compact textual notation for an ordered
// commit graph. Each record is three lines: the commit identifier with its
// branch labels, a parent-reference line, and a child-reference line. A lone
// "-" marks an empty side; a lone "=" is the continuation marker, standing
// for the next record on the parent side and the previous record on the
// child side, so chains of single-parent commits never repeat identifiers.
package sticky

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/arteen1000/topo-order-commits/internal/gitdag"
)

const (
	parentsPrefix  = "parents:"
	childrenPrefix = "children:"
	markerNone     = "-"
	markerContinue = "="
)

// Serialize renders the graph in the given order. The terse continuation
// marker replaces a single parent that is the next record, and a single
// child that is the previous record; everything else is spelled out in full.
func Serialize(order []plumbing.Hash, graph gitdag.Graph) string {
	var b strings.Builder
	for i, id := range order {
		node := graph[id]

		b.WriteString(id.String())
		for _, branch := range node.Branches {
			b.WriteByte(' ')
			b.WriteString(branch)
		}
		b.WriteByte('\n')

		writeRefLine(&b, parentsPrefix, node.Parents, func(ref plumbing.Hash) bool {
			return i+1 < len(order) && order[i+1] == ref
		})
		writeRefLine(&b, childrenPrefix, node.Children, func(ref plumbing.Hash) bool {
			return i > 0 && order[i-1] == ref
		})
	}
	return b.String()
}

func writeRefLine(b *strings.Builder, prefix string, refs []plumbing.Hash, adjacent func(plumbing.Hash) bool) {
	b.WriteString(prefix)
	switch {
	case len(refs) == 0:
		b.WriteByte(' ')
		b.WriteString(markerNone)
	case len(refs) == 1 && adjacent(refs[0]):
		b.WriteByte(' ')
		b.WriteString(markerContinue)
	default:
		for _, ref := range refs {
			b.WriteByte(' ')
			b.WriteString(ref.String())
		}
	}
	b.WriteByte('\n')
}

// record holds one parsed block before continuation markers are resolved.
type record struct {
	id              plumbing.Hash
	branches        []string
	parents         []plumbing.Hash
	children        []plumbing.Hash
	parentContinues bool
	childContinues  bool
}

// Parse reads the notation back into the order and graph it was produced
// from. Both the terse and the fully spelled-out forms are accepted, and the
// two reference lines of every record are cross-checked against each other.
func Parse(text string) ([]plumbing.Hash, gitdag.Graph, error) {
	var lines []string
	if text != "" {
		lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	}
	if len(lines)%3 != 0 {
		return nil, nil, fmt.Errorf("sticky: %d lines, want a multiple of 3", len(lines))
	}

	records := make([]record, 0, len(lines)/3)
	for i := 0; i < len(lines); i += 3 {
		rec, err := parseRecord(lines[i], lines[i+1], lines[i+2])
		if err != nil {
			return nil, nil, fmt.Errorf("sticky: record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}

	order := make([]plumbing.Hash, 0, len(records))
	graph := make(gitdag.Graph, len(records))
	for _, rec := range records {
		if _, ok := graph[rec.id]; ok {
			return nil, nil, fmt.Errorf("sticky: duplicate record for %s", rec.id)
		}
		order = append(order, rec.id)
		graph[rec.id] = &gitdag.CommitNode{ID: rec.id, Branches: rec.branches}
	}

	for i := range records {
		rec := &records[i]
		if rec.parentContinues {
			if i+1 >= len(records) {
				return nil, nil, fmt.Errorf("sticky: parent continuation on last record %s", rec.id)
			}
			rec.parents = []plumbing.Hash{records[i+1].id}
		}
		if rec.childContinues {
			if i == 0 {
				return nil, nil, fmt.Errorf("sticky: child continuation on first record %s", rec.id)
			}
			rec.children = []plumbing.Hash{records[i-1].id}
		}
		node := graph[rec.id]
		node.Parents = rec.parents
		node.Children = rec.children
	}

	if err := crossCheck(graph); err != nil {
		return nil, nil, err
	}
	return order, graph, nil
}

func parseRecord(idLine, parentLine, childLine string) (record, error) {
	var rec record

	fields := strings.Fields(idLine)
	if len(fields) == 0 || !plumbing.IsHash(fields[0]) {
		return rec, fmt.Errorf("commit line %q does not start with an identifier", idLine)
	}
	rec.id = plumbing.NewHash(fields[0])
	if len(fields) > 1 {
		rec.branches = fields[1:]
	}

	var err error
	rec.parents, rec.parentContinues, err = parseRefLine(parentLine, parentsPrefix)
	if err != nil {
		return rec, err
	}
	rec.children, rec.childContinues, err = parseRefLine(childLine, childrenPrefix)
	return rec, err
}

func parseRefLine(line, prefix string) ([]plumbing.Hash, bool, error) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return nil, false, fmt.Errorf("line %q does not start with %q", line, prefix)
	}
	fields := strings.Fields(rest)
	if len(fields) == 1 {
		switch fields[0] {
		case markerNone:
			return nil, false, nil
		case markerContinue:
			return nil, true, nil
		}
	}
	if len(fields) == 0 {
		return nil, false, fmt.Errorf("empty reference line %q", line)
	}
	refs := make([]plumbing.Hash, 0, len(fields))
	for _, f := range fields {
		if !plumbing.IsHash(f) {
			return nil, false, fmt.Errorf("invalid identifier %q on line %q", f, line)
		}
		refs = append(refs, plumbing.NewHash(f))
	}
	return refs, false, nil
}

// crossCheck verifies that the parent and child lines describe the same edge
// set: every parent entry has a matching child entry and vice versa.
func crossCheck(graph gitdag.Graph) error {
	for id, node := range graph {
		for _, parent := range node.Parents {
			p, ok := graph[parent]
			if !ok {
				return fmt.Errorf("sticky: %s names parent %s with no record", id, parent)
			}
			if !containsHash(p.Children, id) {
				return fmt.Errorf("sticky: %s names parent %s, which does not list it as a child", id, parent)
			}
		}
		for _, child := range node.Children {
			c, ok := graph[child]
			if !ok {
				return fmt.Errorf("sticky: %s names child %s with no record", id, child)
			}
			if !containsHash(c.Parents, id) {
				return fmt.Errorf("sticky: %s names child %s, which does not list it as a parent", id, child)
			}
		}
	}
	return nil
}

func containsHash(hs []plumbing.Hash, id plumbing.Hash) bool {
	for _, h := range hs {
		if h == id {
			return true
		}
	}
	return false
}
