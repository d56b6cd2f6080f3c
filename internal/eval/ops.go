package eval

import (
	"context"
	"errors"
	"strconv"

	"github.com/seera-networks/ISEKAI-comp/internal/provider"
	"github.com/seera-networks/ISEKAI-comp/pkg/column"
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
	"github.com/seera-networks/ISEKAI-comp/pkg/graph"
)

// apply computes one node from its already-evaluated children.
func (p *evaluation) apply(ctx context.Context, idx int, rec graph.Record, children []*value) (*value, error) {
	switch rec.Op {
	case graph.OpLoc:
		return p.applyLoc(ctx, idx, rec)
	case graph.OpID:
		return p.applyID(idx, rec, children)
	case graph.OpHead:
		return p.applyHead(idx, rec, children)
	case graph.OpCount:
		return p.applyCount(idx, rec, children)
	case graph.OpMean, graph.OpMedian, graph.OpVar:
		return p.applyNumericAgg(idx, rec, children)
	case graph.OpMode:
		return p.applyMode(idx, rec, children)
	case graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv:
		return p.applyArith(idx, rec, children)
	case graph.OpLog:
		return p.applyLog(idx, rec, children)
	case graph.OpGt:
		return p.applyGt(idx, rec, children)
	case graph.OpCmpArith:
		return p.applyCmpArith(idx, rec, children)
	case graph.OpWhere:
		return p.applyWhere(idx, rec, children)
	case graph.OpIf:
		return p.applyIf(idx, rec, children)
	case graph.OpFull:
		return p.applyFull(idx, rec, children)
	case graph.OpNull:
		return p.applyNullCheck(idx, rec, children)
	case graph.OpNan:
		return p.applyNanCheck(idx, rec, children)
	case graph.OpBoolToStr:
		return p.applyBoolToStr(idx, rec, children)
	case graph.OpColumn:
		return p.applyColumn(idx, rec, children)
	case graph.OpZip:
		return p.applyZip(idx, rec, children)
	case graph.OpNot:
		return p.applyNot(idx, rec, children)
	case graph.OpLinearRegression:
		return p.applyLinearRegression(idx, rec, children)
	case graph.OpTTestLinearRegression:
		return p.applyTTest(idx, rec, children)
	case graph.OpLogisticRegression:
		return p.applyLogisticRegression(idx, rec, children)
	case graph.OpWaldTestLogisticRegression:
		return p.applyWaldTest(idx, rec, children)
	}
	return nil, core.NewError(idx, rec.Op.String(), core.KindTypeMismatch,
		"unsupported operator")
}

// nodeErr builds a node-scoped evaluation error.
func nodeErr(idx int, rec graph.Record, kind core.Kind, format string, args ...any) error {
	return core.NewError(idx, rec.Op.String(), kind, format, args...)
}

// collect flattens the children's frames into one ordered column list.
// A child carrying a model payload instead of columns is a type error.
func collect(idx int, rec graph.Record, children []*value) ([]*column.Column, error) {
	var cols []*column.Column
	for _, child := range children {
		if child.frame == nil {
			return nil, nodeErr(idx, rec, core.KindTypeMismatch,
				"input is not column-producing")
		}
		cols = append(cols, child.frame.Cols...)
	}
	if len(cols) == 0 {
		return nil, nodeErr(idx, rec, core.KindArityMismatch, "no input columns")
	}
	return cols, nil
}

// sameLength verifies all columns share one row count.
func sameLength(idx int, rec graph.Record, cols []*column.Column) (int, error) {
	n := cols[0].Len()
	for _, c := range cols[1:] {
		if c.Len() != n {
			return 0, nodeErr(idx, rec, core.KindRowCountMismatch,
				"column %q has %d rows, want %d", c.Name(), c.Len(), n)
		}
	}
	return n, nil
}

func frameValue(cols ...*column.Column) *value {
	return &value{frame: &Frame{Cols: cols}}
}

func (p *evaluation) applyLoc(ctx context.Context, idx int, rec graph.Record) (*value, error) {
	if len(rec.Params.Names) != 1 {
		return nil, nodeErr(idx, rec, core.KindArityMismatch, "loc takes exactly one column name")
	}
	name := rec.Params.Names[0]
	col, err := p.ev.prov.GetColumn(ctx, name)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownColumn) {
			return nil, nodeErr(idx, rec, core.KindUnknownColumn, "column %q", name)
		}
		return nil, nodeErr(idx, rec, core.KindProviderFailure, "fetching column %q: %w", name, err)
	}
	return frameValue(col), nil
}

func (p *evaluation) applyID(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	if len(rec.OutputNames) == 0 {
		return frameValue(cols...), nil
	}
	if len(rec.OutputNames) != len(cols) {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"%d renames for %d columns", len(rec.OutputNames), len(cols))
	}
	renamed := make([]*column.Column, len(cols))
	for i, c := range cols {
		renamed[i] = c.Rename(rec.OutputNames[i])
	}
	return frameValue(renamed...), nil
}

func (p *evaluation) applyHead(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		out[i] = c.Slice(rec.Params.N)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyCount(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		out[i] = column.NewFloat64(c.Name(), []float64{float64(c.Len())})
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyColumn(idx int, rec graph.Record, children []*value) (*value, error) {
	if children[0].frame == nil {
		return nil, nodeErr(idx, rec, core.KindTypeMismatch, "input is not column-producing")
	}
	out := make([]*column.Column, len(rec.Params.Names))
	for i, name := range rec.Params.Names {
		col, ok := children[0].frame.Lookup(name)
		if !ok {
			return nil, nodeErr(idx, rec, core.KindUnknownColumn, "column %q", name)
		}
		out[i] = col
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyZip(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	if _, err := sameLength(idx, rec, cols); err != nil {
		return nil, err
	}
	return frameValue(cols...), nil
}

func (p *evaluation) applyFull(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		out[i] = fullColumn(c.Name(), rec.Params.Fill, c.Len())
	}
	return frameValue(out...), nil
}

// fullColumn builds a constant column from a literal, parsed as float,
// then bool, else kept as string.
func fullColumn(name, literal string, n int) *column.Column {
	if f, err := strconv.ParseFloat(literal, 64); err == nil {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = f
		}
		return column.NewFloat64(name, vals)
	}
	if b, err := strconv.ParseBool(literal); err == nil {
		vals := make([]bool, n)
		for i := range vals {
			vals[i] = b
		}
		return column.NewBool(name, vals)
	}
	vals := make([]string, n)
	for i := range vals {
		vals[i] = literal
	}
	return column.NewString(name, vals)
}

func (p *evaluation) applyNullCheck(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		vals := make([]bool, c.Len())
		for r := range vals {
			vals[r] = c.IsNull(r)
		}
		out[i] = column.NewBool(c.Name(), vals)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyNanCheck(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		vals := make([]bool, c.Len())
		for r := range vals {
			vals[r] = c.IsNaN(r)
		}
		out[i] = column.NewBool(c.Name(), vals)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyBoolToStr(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		if c.Type() != column.Bool {
			return nil, nodeErr(idx, rec, core.KindTypeMismatch,
				"column %q is %s, want bool", c.Name(), c.Type())
		}
		vals := make([]string, c.Len())
		valid := make([]bool, c.Len())
		for r := range vals {
			if c.IsNull(r) {
				continue
			}
			valid[r] = true
			if c.Bool(r) {
				vals[r] = "1"
			} else {
				vals[r] = "0"
			}
		}
		out[i] = column.NewStringNullable(c.Name(), vals, valid)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyNot(idx int, rec graph.Record, children []*value) (*value, error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, err
	}
	out := make([]*column.Column, len(cols))
	for i, c := range cols {
		if c.Type() != column.Bool {
			return nil, nodeErr(idx, rec, core.KindTypeMismatch,
				"column %q is %s, want bool", c.Name(), c.Type())
		}
		vals := make([]bool, c.Len())
		valid := make([]bool, c.Len())
		for r := range vals {
			if c.IsNull(r) {
				continue
			}
			valid[r] = true
			vals[r] = !c.Bool(r)
		}
		out[i] = column.NewBoolNullable(c.Name(), vals, valid)
	}
	return frameValue(out...), nil
}

func (p *evaluation) applyIf(idx int, rec graph.Record, children []*value) (*value, error) {
	if len(children) != 3 {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"if takes exactly 3 inputs, got %d", len(children))
	}
	for _, child := range children {
		if child.frame == nil {
			return nil, nodeErr(idx, rec, core.KindTypeMismatch, "input is not column-producing")
		}
	}
	condF, thenF, elseF := children[0].frame, children[1].frame, children[2].frame
	if len(condF.Cols) != 1 {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"condition must be a single column, got %d", len(condF.Cols))
	}
	cond := condF.Cols[0]
	if cond.Type() != column.Bool {
		return nil, nodeErr(idx, rec, core.KindTypeMismatch,
			"condition column %q is %s, want bool", cond.Name(), cond.Type())
	}
	if len(thenF.Cols) != len(elseF.Cols) {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"then produces %d columns, else %d", len(thenF.Cols), len(elseF.Cols))
	}

	out := make([]*column.Column, len(thenF.Cols))
	for i := range thenF.Cols {
		tc, ec := thenF.Cols[i], elseF.Cols[i]
		if tc.Type() != ec.Type() {
			return nil, nodeErr(idx, rec, core.KindTypeMismatch,
				"branch types differ for %q: %s vs %s", tc.Name(), tc.Type(), ec.Type())
		}
		if tc.Len() != cond.Len() || ec.Len() != cond.Len() {
			return nil, nodeErr(idx, rec, core.KindRowCountMismatch,
				"branches must be row-aligned with the condition")
		}
		out[i] = selectRows(cond, tc, ec)
	}
	return frameValue(out...), nil
}

// selectRows picks, per row, the then value where cond is true and the
// else value otherwise. A null condition row yields a null result row.
func selectRows(cond, then, els *column.Column) *column.Column {
	n := cond.Len()
	valid := make([]bool, n)
	pick := func(r int) *column.Column {
		if cond.Bool(r) {
			return then
		}
		return els
	}
	switch then.Type() {
	case column.Float64:
		vals := make([]float64, n)
		for r := 0; r < n; r++ {
			src := pick(r)
			if cond.IsNull(r) || src.IsNull(r) {
				continue
			}
			valid[r] = true
			vals[r] = src.Float(r)
		}
		return column.NewFloat64Nullable(then.Name(), vals, valid)
	case column.String:
		vals := make([]string, n)
		for r := 0; r < n; r++ {
			src := pick(r)
			if cond.IsNull(r) || src.IsNull(r) {
				continue
			}
			valid[r] = true
			vals[r] = src.Str(r)
		}
		return column.NewStringNullable(then.Name(), vals, valid)
	default:
		vals := make([]bool, n)
		for r := 0; r < n; r++ {
			src := pick(r)
			if cond.IsNull(r) || src.IsNull(r) {
				continue
			}
			valid[r] = true
			vals[r] = src.Bool(r)
		}
		return column.NewBoolNullable(then.Name(), vals, valid)
	}
}
