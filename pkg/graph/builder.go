package graph

import (
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
)

// Record is the arena form of a node: children are arena indices rather
// than pointers. In a graph produced by a Builder every child index is
// smaller than the record's own index, which rules out cycles structurally.
type Record struct {
	Op          Op
	Children    []int
	Params      Params
	OutputNames []string
}

// Graph is a frozen computation graph: the node arena plus the ordered
// indices of the outputs the caller asked to materialize. It is the unit
// of evaluation and of serialization.
type Graph struct {
	records []Record
	outputs []int
}

// Records returns the node arena in index order.
func (g *Graph) Records() []Record { return g.records }

// Outputs returns the requested output indices in Add-call order.
func (g *Graph) Outputs() []int { return g.outputs }

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.records) }

// Builder assembles a graph from node values. Add marks a node as a
// requested output and is chainable; Build freezes the arena and returns
// the output indices in Add-call order.
type Builder struct {
	outputs []*Node
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add marks n as a requested output. The same node may be added more than
// once; each call produces its own result slot.
func (b *Builder) Add(n *Node) *Builder {
	b.outputs = append(b.outputs, n)
	return b
}

// Build walks the output nodes child-first, deduplicates shared
// subexpressions by node identity, and assigns append-only arena indices.
// The first construction-time violation found anywhere in the reachable
// graph is returned, so a malformed graph is rejected before any data
// access.
func (b *Builder) Build() (*Graph, []int, error) {
	g := &Graph{}
	index := make(map[*Node]int)

	var visit func(n *Node) (int, error)
	visit = func(n *Node) (int, error) {
		if n == nil {
			return 0, core.NewError(-1, "", core.KindArityMismatch, "nil node reference")
		}
		if idx, ok := index[n]; ok {
			return idx, nil
		}
		if n.err != nil {
			return 0, n.err
		}
		children := make([]int, len(n.children))
		for i, child := range n.children {
			idx, err := visit(child)
			if err != nil {
				return 0, err
			}
			children[i] = idx
		}
		idx := len(g.records)
		g.records = append(g.records, Record{
			Op:          n.op,
			Children:    children,
			Params:      n.params,
			OutputNames: n.renames,
		})
		index[n] = idx
		return idx, nil
	}

	g.outputs = make([]int, len(b.outputs))
	for i, out := range b.outputs {
		idx, err := visit(out)
		if err != nil {
			return nil, nil, err
		}
		g.outputs[i] = idx
	}
	return g, g.outputs, nil
}
