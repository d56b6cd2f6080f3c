package eval

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/seera-networks/ISEKAI-comp/pkg/column"
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
	"github.com/seera-networks/ISEKAI-comp/pkg/graph"
)

func arithFn(op graph.Op) func(a, b float64) float64 {
	switch op {
	case graph.OpAdd:
		return func(a, b float64) float64 { return a + b }
	case graph.OpSub:
		return func(a, b float64) float64 { return a - b }
	case graph.OpMul:
		return func(a, b float64) float64 { return a * b }
	default:
		// Division by zero follows IEEE 754: ±Inf, or NaN for 0/0.
		return func(a, b float64) float64 { return a / b }
	}
}

func requireFloat(idx int, rec graph.Record, c *column.Column) error {
	if c.Type() != column.Float64 {
		return nodeErr(idx, rec, core.KindNonNumericColumn,
			"column %q is %s, want float64", c.Name(), c.Type())
	}
	return nil
}

// applyArith handles both arithmetic forms: the scalar form broadcasts the
// constant over every input column, the binary form combines the two
// children's columns pairwise.
func (p *evaluation) applyArith(idx int, rec graph.Record, children []*value) (*value, error) {
	fn := arithFn(rec.Op)

	if rec.Params.Value != nil {
		cols, err := collect(idx, rec, children)
		if err != nil {
			return nil, err
		}
		out := make([]*column.Column, len(cols))
		for i, c := range cols {
			if err := requireFloat(idx, rec, c); err != nil {
				return nil, err
			}
			vals := make([]float64, c.Len())
			valid := make([]bool, c.Len())
			for r := range vals {
				if c.IsNull(r) {
					continue
				}
				valid[r] = true
				vals[r] = fn(c.Float(r), *rec.Params.Value)
			}
			out[i] = column.NewFloat64Nullable(c.Name(), vals, valid)
		}
		return frameValue(out...), nil
	}

	if len(children) != 2 {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"binary form takes exactly 2 inputs, got %d", len(children))
	}
	if children[0].frame == nil || children[1].frame == nil {
		return nil, nodeErr(idx, rec, core.KindTypeMismatch, "input is not column-producing")
	}
	left, right := children[0].frame.Cols, children[1].frame.Cols
	if len(left) != len(right) {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"operand sides produce %d and %d columns", len(left), len(right))
	}
	out := make([]*column.Column, len(left))
	for i := range left {
		a, b := left[i], right[i]
		if err := requireFloat(idx, rec, a); err != nil {
			return nil, err
		}
		if err := requireFloat(idx, rec, b); err != nil {
			return nil, err
		}
		if a.Len() != b.Len() {
			return nil, nodeErr(idx, rec, core.KindRowCountMismatch,
				"%q has %d rows, %q has %d", a.Name(), a.Len(), b.Name(), b.Len())
		}
		vals := make([]float64, a.Len())
		valid := make([]bool, a.Len())
		for r := range vals {
			if a.IsNull(r) || b.IsNull(r) {
				continue
			}
			valid[r] = true
			vals[r] = fn(a.Float(r), b.Float(r))
		}
		out[i] = column.NewFloat64Nullable(a.Name(), vals, valid)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyLog(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		if err := requireFloat(idx, rec, c); err != nil {
			return nil, err
		}
		vals := make([]float64, c.Len())
		valid := make([]bool, c.Len())
		for r := range vals {
			if c.IsNull(r) {
				continue
			}
			valid[r] = true
			if v := c.Float(r); v > 0 {
				vals[r] = math.Log(v)
			} else {
				vals[r] = math.NaN()
			}
		}
		out[i] = column.NewFloat64Nullable(c.Name(), vals, valid)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyGt(idx int, rec graph.Record, children []*value) (*value, error) {
	if len(children) != 2 || children[0].frame == nil || children[1].frame == nil {
		return nil, nodeErr(idx, rec, core.KindArityMismatch, "gt takes exactly 2 column inputs")
	}
	left, right := children[0].frame.Cols, children[1].frame.Cols
	if len(left) != len(right) {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"operand sides produce %d and %d columns", len(left), len(right))
	}
	out := make([]*column.Column, len(left))
	for i := range left {
		a, b := left[i], right[i]
		if err := requireFloat(idx, rec, a); err != nil {
			return nil, err
		}
		if err := requireFloat(idx, rec, b); err != nil {
			return nil, err
		}
		if a.Len() != b.Len() {
			return nil, nodeErr(idx, rec, core.KindRowCountMismatch,
				"%q has %d rows, %q has %d", a.Name(), a.Len(), b.Name(), b.Len())
		}
		vals := make([]bool, a.Len())
		valid := make([]bool, a.Len())
		for r := range vals {
			if a.IsNull(r) || b.IsNull(r) {
				continue
			}
			valid[r] = true
			vals[r] = a.Float(r) > b.Float(r)
		}
		out[i] = column.NewBoolNullable(a.Name(), vals, valid)
	}
	return frameValue(out...), nil
}

func compare(v, against float64, mode graph.CmpMode) bool {
	switch mode {
	case graph.CmpLT:
		return v < against
	case graph.CmpLE:
		return v <= against
	case graph.CmpEQ:
		return v == against
	case graph.CmpGE:
		return v >= against
	default:
		return v > against
	}
}

// requireCmpParams guards against records assembled outside the builder,
// where the comparison operand or mode may be absent.
func requireCmpParams(idx int, rec graph.Record) error {
	if rec.Params.Value == nil {
		return nodeErr(idx, rec, core.KindInvalidMode, "missing comparison value")
	}
	if !graph.ValidCmpMode(rec.Params.Cmp) {
		return nodeErr(idx, rec, core.KindInvalidMode, "mode %q", rec.Params.Cmp)
	}
	return nil
}

func (p *evaluation) applyCmpArith(idx int, rec graph.Record, children []*value) (*value, error) {
	if err := requireCmpParams(idx, rec); err != nil {
		return nil, err
	}
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		if err := requireFloat(idx, rec, c); err != nil {
			return nil, err
		}
		vals := make([]bool, c.Len())
		valid := make([]bool, c.Len())
		for r := range vals {
			if c.IsNull(r) {
				continue
			}
			valid[r] = true
			vals[r] = compare(c.Float(r), *rec.Params.Value, rec.Params.Cmp)
		}
		out[i] = column.NewBoolNullable(c.Name(), vals, valid)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyWhere(idx int, rec graph.Record, children []*value) (*value, error) {
	if err := requireCmpParams(idx, rec); err != nil {
		return nil, err
	}
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	// The replacement literal is coerced to the column element type; only
	// numeric columns participate in the comparison, so it must parse as
	// float64.
	repl, perr := strconv.ParseFloat(rec.Params.Replacement, 64)
	if perr != nil {
		return nil, nodeErr(idx, rec, core.KindTypeMismatch,
			"replacement %q is not numeric", rec.Params.Replacement)
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		if err := requireFloat(idx, rec, c); err != nil {
			return nil, err
		}
		vals := make([]float64, c.Len())
		valid := make([]bool, c.Len())
		for r := range vals {
			if c.IsNull(r) {
				continue
			}
			valid[r] = true
			if compare(c.Float(r), *rec.Params.Value, rec.Params.Cmp) {
				vals[r] = c.Float(r)
			} else {
				vals[r] = repl
			}
		}
		out[i] = column.NewFloat64Nullable(c.Name(), vals, valid)
	}
	return frameValue(out...), nil
}

// nonNullFloats extracts the non-null values of a numeric column.
func nonNullFloats(c *column.Column) []float64 {
	vals := make([]float64, 0, c.Len())
	for r := 0; r < c.Len(); r++ {
		if !c.IsNull(r) {
			vals = append(vals, c.Float(r))
		}
	}
	return vals
}

// applyNumericAgg computes mean, median, or sample variance per column as
// a single-row result. Nulls are skipped.
func (p *evaluation) applyNumericAgg(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		if err := requireFloat(idx, rec, c); err != nil {
			return nil, err
		}
		vals := nonNullFloats(c)
		var res float64
		switch rec.Op {
		case graph.OpMean:
			res = stat.Mean(vals, nil)
		case graph.OpMedian:
			sorted := append([]float64(nil), vals...)
			sort.Float64s(sorted)
			res = median(sorted)
		default: // var
			if len(vals) < 2 {
				return nil, nodeErr(idx, rec, core.KindInsufficientRows,
					"column %q has %d non-null rows, want at least 2", c.Name(), len(vals))
			}
			res = stat.Variance(vals, nil)
		}
		out[i] = column.NewFloat64(c.Name(), []float64{res})
	}
	return frameValue(out...), nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// applyMode returns the most frequent value per column, ties broken by
// first encounter in row order. Defined for any element type; nulls are
// skipped.
func (p *evaluation) applyMode(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		col, err := modeOf(idx, rec, c)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return frameValue(out...), nil
}

func modeOf(idx int, rec graph.Record, c *column.Column) (*column.Column, error) {
	if c.NonNullCount() == 0 {
		return nil, nodeErr(idx, rec, core.KindInsufficientRows,
			"column %q has no non-null rows", c.Name())
	}
	counts := make(map[any]int, c.Len())
	firstSeen := make(map[any]int, c.Len())
	var bestKey any
	best := 0
	for r := 0; r < c.Len(); r++ {
		if c.IsNull(r) {
			continue
		}
		var key any
		switch c.Type() {
		case column.Float64:
			key = c.Float(r)
		case column.String:
			key = c.Str(r)
		default:
			key = c.Bool(r)
		}
		if _, ok := firstSeen[key]; !ok {
			firstSeen[key] = r
		}
		counts[key]++
		n := counts[key]
		if n > best || (n == best && firstSeen[key] < firstSeen[bestKey]) {
			best = n
			bestKey = key
		}
	}
	switch c.Type() {
	case column.Float64:
		return column.NewFloat64(c.Name(), []float64{bestKey.(float64)}), nil
	case column.String:
		return column.NewString(c.Name(), []string{bestKey.(string)}), nil
	default:
		return column.NewBool(c.Name(), []bool{bestKey.(bool)}), nil
	}
}
