package graph

import (
	"encoding/json"
	"fmt"
)

// wireNode is the JSON shape of one arena record.
type wireNode struct {
	Op          string   `json:"op"`
	Children    []int    `json:"children,omitempty"`
	Params      *Params  `json:"params,omitempty"`
	OutputNames []string `json:"output_names,omitempty"`
}

// wireGraph is the JSON shape of a serialized graph.
type wireGraph struct {
	Nodes   []wireNode `json:"nodes"`
	Outputs []int      `json:"outputs"`
}

// MarshalJSON encodes the graph as its wire form: the ordered node list
// plus the requested output indices.
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := wireGraph{
		Nodes:   make([]wireNode, len(g.records)),
		Outputs: g.outputs,
	}
	for i, rec := range g.records {
		node := wireNode{
			Op:          rec.Op.String(),
			Children:    rec.Children,
			OutputNames: rec.OutputNames,
		}
		if !rec.Params.isZero() {
			p := rec.Params
			node.Params = &p
		}
		w.Nodes[i] = node
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a serialized graph, validating operator names,
// comparison modes, required operator parameters, and child index ranges. Child indices pointing at or
// past the record itself are representable here (the wire form comes from
// an untrusted boundary); the evaluator detects any resulting cycle.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding graph: %w", err)
	}
	records := make([]Record, len(w.Nodes))
	for i, node := range w.Nodes {
		op, ok := OpByName(node.Op)
		if !ok {
			return fmt.Errorf("node %d: unknown operator %q", i, node.Op)
		}
		var params Params
		if node.Params != nil {
			params = *node.Params
		}
		if params.Cmp != "" && !ValidCmpMode(params.Cmp) {
			return fmt.Errorf("node %d: invalid comparison mode %q", i, params.Cmp)
		}
		switch op {
		case OpCmpArith, OpWhere:
			if params.Value == nil {
				return fmt.Errorf("node %d: %s requires a comparison value", i, node.Op)
			}
			if params.Cmp == "" {
				return fmt.Errorf("node %d: %s requires a comparison mode", i, node.Op)
			}
		case OpHead:
			if params.N < 0 {
				return fmt.Errorf("node %d: negative row limit %d", i, params.N)
			}
		}
		for _, child := range node.Children {
			if child < 0 || child >= len(w.Nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
		children := node.Children
		if children == nil {
			// children,omitempty drops empty slices on encode; restore the
			// non-nil empty slice Build produces so round trips are stable.
			children = []int{}
		}
		records[i] = Record{
			Op:          op,
			Children:    children,
			Params:      params,
			OutputNames: node.OutputNames,
		}
	}
	for _, out := range w.Outputs {
		if out < 0 || out >= len(records) {
			return fmt.Errorf("output index %d out of range", out)
		}
	}
	g.records = records
	g.outputs = w.Outputs
	return nil
}

// FromRecords assembles a graph directly from arena records, as received
// from an external boundary. No structural validation beyond index range
// is performed here; the evaluator validates the rest.
func FromRecords(records []Record, outputs []int) (*Graph, error) {
	for i, rec := range records {
		for _, child := range rec.Children {
			if child < 0 || child >= len(records) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
	}
	for _, out := range outputs {
		if out < 0 || out >= len(records) {
			return nil, fmt.Errorf("output index %d out of range", out)
		}
	}
	return &Graph{records: records, outputs: outputs}, nil
}
