package eval

import (
	"github.com/seera-networks/ISEKAI-comp/internal/stats"
	"github.com/seera-networks/ISEKAI-comp/pkg/column"
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
)

// Frame is an ordered collection of named columns, the intermediate result
// of every data-producing node.
type Frame struct {
	Cols []*column.Column
}

// Lookup returns the column with the given name, if present.
func (f *Frame) Lookup(name string) (*column.Column, bool) {
	for _, c := range f.Cols {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// value is the memoized result of one node: either a column frame or a
// model payload. Fit objects ride alongside the payload so downstream test
// nodes can consume the numeric fit, not just its JSON shape.
type value struct {
	frame   *Frame
	linfit  *stats.OLSFit
	logit   *stats.LogitFit
	payload any
}

// Output is the materialized result of one requested output node, in
// Add-call order. Exactly one of Columns, Payload, or Err is set.
type Output struct {
	// Node is the arena index of the output node.
	Node int
	// Columns holds data-producing results.
	Columns []core.ColumnData
	// Payload holds model-fitting and hypothesis-test results.
	Payload any
	// Err is the evaluation failure for this output, if any. Sibling
	// outputs not depending on the failed node are unaffected.
	Err error
}
