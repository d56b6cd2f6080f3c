package graph

import (
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
)

// Params holds the operator-specific scalar parameters of a node. Only the
// fields relevant to the node's op are set.
type Params struct {
	// Value is the scalar operand of scalar-form arithmetic and the
	// comparison operand of cmp_arith / where.
	Value *float64 `json:"value,omitempty"`
	// Cmp is the comparison mode of cmp_arith / where.
	Cmp CmpMode `json:"cmp,omitempty"`
	// Replacement is the literal substituted for failing rows by where.
	Replacement string `json:"replacement,omitempty"`
	// Fill is the literal a full node repeats.
	Fill string `json:"fill,omitempty"`
	// N is the row limit of head.
	N int `json:"n,omitempty"`
	// Names are the projection targets of a column node and the source
	// column name of a loc node.
	Names []string `json:"names,omitempty"`
}

func (p Params) isZero() bool {
	return p.Value == nil && p.Cmp == "" && p.Replacement == "" &&
		p.Fill == "" && p.N == 0 && len(p.Names) == 0
}

// Node is one operator in a computation graph. Children are referenced by
// identity, so the same node value may feed several parents (fan-in); the
// resulting structure is a DAG, not a tree. Nodes are immutable once
// created.
type Node struct {
	op       Op
	children []*Node
	params   Params
	renames  []string
	// err records a construction-time violation; Build reports it before
	// any data access.
	err error
}

// Op returns the operator tag.
func (n *Node) Op() Op { return n.op }

// Children returns the child nodes in order.
func (n *Node) Children() []*Node { return n.children }

// Params returns the operator parameters.
func (n *Node) Params() Params { return n.params }

// Renames returns the positional output-name overrides, if any.
func (n *Node) Renames() []string { return n.renames }

func constructionErr(op Op, kind core.Kind, format string, args ...any) *Node {
	return &Node{op: op, err: core.NewError(-1, op.String(), kind, format, args...)}
}

// Loc fetches the named column from the tabular provider. It is the only
// leaf operator and the only source of real data; a loc node cannot itself
// be a requested output and has to be wrapped (typically by Id) to be
// materialized.
func Loc(name string) *Node {
	return &Node{op: OpLoc, params: Params{Names: []string{name}}}
}

// Id passes its children's columns through unchanged. When renames are
// given, they override the output names positionally and their count must
// equal the child count.
func Id(nodes []*Node, renames ...string) *Node {
	if len(renames) > 0 && len(renames) != len(nodes) {
		return constructionErr(OpID, core.KindArityMismatch,
			"%d renames for %d inputs", len(renames), len(nodes))
	}
	return &Node{op: OpID, children: nodes, renames: renames}
}

// Head truncates each referenced column to its first n rows. Shorter
// columns pass through whole; n below zero is treated as zero.
func Head(nodes []*Node, n int) *Node {
	return &Node{op: OpHead, children: nodes, params: Params{N: n}}
}

// Count returns, per referenced column, the row count. Null rows are
// counted.
func Count(nodes []*Node) *Node {
	return &Node{op: OpCount, children: nodes}
}

// Mean returns the arithmetic mean of each referenced numeric column as a
// single-row result. Nulls are skipped.
func Mean(nodes []*Node) *Node {
	return &Node{op: OpMean, children: nodes}
}

// Median returns the median of each referenced numeric column.
func Median(nodes []*Node) *Node {
	return &Node{op: OpMedian, children: nodes}
}

// Mode returns the most frequent value of each referenced column. Ties
// break toward the value encountered first in row order.
func Mode(nodes []*Node) *Node {
	return &Node{op: OpMode, children: nodes}
}

// Var returns the sample variance (denominator n-1) of each referenced
// numeric column. Columns with fewer than two non-null rows fail.
func Var(nodes []*Node) *Node {
	return &Node{op: OpVar, children: nodes}
}

func binary(op Op, a, b *Node) *Node {
	return &Node{op: op, children: []*Node{a, b}}
}

func scalar(op Op, nodes []*Node, v float64) *Node {
	return &Node{op: op, children: nodes, params: Params{Value: &v}}
}

// Add combines two column-producing children elementwise. Row counts must
// match; a null operand row yields a null result row.
func Add(a, b *Node) *Node { return binary(OpAdd, a, b) }

// AddScalar broadcasts the constant v over each row of every referenced
// column.
func AddScalar(nodes []*Node, v float64) *Node { return scalar(OpAdd, nodes, v) }

// Sub subtracts b from a elementwise.
func Sub(a, b *Node) *Node { return binary(OpSub, a, b) }

// SubScalar subtracts the constant v from each row.
func SubScalar(nodes []*Node, v float64) *Node { return scalar(OpSub, nodes, v) }

// Mul multiplies two columns elementwise.
func Mul(a, b *Node) *Node { return binary(OpMul, a, b) }

// MulScalar multiplies each row by the constant v.
func MulScalar(nodes []*Node, v float64) *Node { return scalar(OpMul, nodes, v) }

// Div divides a by b elementwise. Division by zero follows IEEE 754 float
// semantics (infinity or NaN) instead of failing.
func Div(a, b *Node) *Node { return binary(OpDiv, a, b) }

// DivScalar divides each row by the constant v.
func DivScalar(nodes []*Node, v float64) *Node { return scalar(OpDiv, nodes, v) }

// Log takes the natural logarithm of each element. Values at or below zero
// yield NaN rather than an error.
func Log(nodes []*Node) *Node {
	return &Node{op: OpLog, children: nodes}
}

// Gt compares two columns elementwise, producing a boolean column where
// a > b. Row counts must match.
func Gt(a, b *Node) *Node { return binary(OpGt, a, b) }

// CmpArith compares each element against the scalar value under the given
// mode, producing a boolean column. An unrecognized mode is rejected here,
// before evaluation.
func CmpArith(nodes []*Node, value float64, mode CmpMode) *Node {
	if !ValidCmpMode(mode) {
		return constructionErr(OpCmpArith, core.KindInvalidMode, "mode %q", mode)
	}
	return &Node{op: OpCmpArith, children: nodes, params: Params{Value: &value, Cmp: mode}}
}

// Where keeps rows that pass the comparison and substitutes replacement
// (a literal coerced to the column's element type at evaluation) for rows
// that fail it.
func Where(nodes []*Node, value float64, mode CmpMode, replacement string) *Node {
	if !ValidCmpMode(mode) {
		return constructionErr(OpWhere, core.KindInvalidMode, "mode %q", mode)
	}
	return &Node{op: OpWhere, children: nodes, params: Params{
		Value: &value, Cmp: mode, Replacement: replacement,
	}}
}

// If selects, per row, the then value where cond is true and the else
// value otherwise. cond must be boolean and row-aligned with both branches.
func If(cond, then, els *Node) *Node {
	return &Node{op: OpIf, children: []*Node{cond, then, els}}
}

// Full builds a constant column per referenced column, row-aligned with it
// and filled with the literal value (parsed as float, then bool, else kept
// as string).
func Full(value string, nodes []*Node) *Node {
	return &Node{op: OpFull, children: nodes, params: Params{Fill: value}}
}

// Null produces a boolean null-check column per referenced column. The
// input is an array even for a single node.
func Null(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return constructionErr(OpNull, core.KindArityMismatch, "empty input list")
	}
	return &Node{op: OpNull, children: nodes}
}

// Nan produces a boolean NaN-check column per referenced column. NaN is a
// valid float64 value, distinct from null.
func Nan(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return constructionErr(OpNan, core.KindArityMismatch, "empty input list")
	}
	return &Node{op: OpNan, children: nodes}
}

// BoolToStr maps boolean true/false to the strings "1"/"0" elementwise.
func BoolToStr(nodes []*Node) *Node {
	return &Node{op: OpBoolToStr, children: nodes}
}

// Column projects the named sub-columns out of a node producing several
// named columns. An unknown name fails at evaluation.
func Column(node *Node, names []string) *Node {
	if len(names) == 0 {
		return constructionErr(OpColumn, core.KindArityMismatch, "empty projection list")
	}
	return &Node{op: OpColumn, children: []*Node{node}, params: Params{Names: names}}
}

// Zip concatenates multiple equal-length columns row-wise into one
// combined frame, typically to stage regression inputs.
func Zip(nodes []*Node) *Node {
	return &Node{op: OpZip, children: nodes}
}

// Not negates a boolean column elementwise. Non-boolean input fails at
// evaluation.
func Not(nodes []*Node) *Node {
	return &Node{op: OpNot, children: nodes}
}

// LinearRegression fits ordinary least squares of y on the explanatory
// columns xs. At least one explanatory column is required.
func LinearRegression(y *Node, xs ...*Node) *Node {
	if len(xs) == 0 {
		return constructionErr(OpLinearRegression, core.KindArityMismatch,
			"at least one explanatory column required")
	}
	return &Node{op: OpLinearRegression, children: append([]*Node{y}, xs...)}
}

// TTestLinearRegression computes per-coefficient t-statistics and p-values
// for a prior LinearRegression fit, given the same response and design
// columns. fit must reference the LinearRegression node.
func TTestLinearRegression(y *Node, xs []*Node, fit *Node) *Node {
	if len(xs) == 0 {
		return constructionErr(OpTTestLinearRegression, core.KindArityMismatch,
			"at least one explanatory column required")
	}
	children := append([]*Node{y}, xs...)
	return &Node{op: OpTTestLinearRegression, children: append(children, fit)}
}

// LogisticRegression fits a binomial logistic model of y on xs via
// iteratively reweighted least squares. y must be boolean or 0/1 coded.
func LogisticRegression(y *Node, xs ...*Node) *Node {
	if len(xs) == 0 {
		return constructionErr(OpLogisticRegression, core.KindArityMismatch,
			"at least one explanatory column required")
	}
	return &Node{op: OpLogisticRegression, children: append([]*Node{y}, xs...)}
}

// WaldTestLogisticRegression computes Wald statistics for a prior
// LogisticRegression fit, given the same explanatory columns. fit must
// reference the LogisticRegression node.
func WaldTestLogisticRegression(xs []*Node, fit *Node) *Node {
	if len(xs) == 0 {
		return constructionErr(OpWaldTestLogisticRegression, core.KindArityMismatch,
			"at least one explanatory column required")
	}
	children := make([]*Node, 0, len(xs)+1)
	children = append(children, xs...)
	children = append(children, fit)
	return &Node{op: OpWaldTestLogisticRegression, children: children}
}
